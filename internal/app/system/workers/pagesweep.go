// internal/app/system/workers/pagesweep.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper drops expired entries and reports how many went.
type Sweeper interface {
	Sweep() int
}

// PageSweep is a background worker that removes idle page state.
type PageSweep struct {
	stores   map[string]Sweeper
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPageSweep creates a sweeper over the named stores.
//
// Parameters:
//   - stores: page state stores keyed by a name used in log lines
//   - logger: zap logger for logging
//   - interval: how often to sweep (e.g., 1 minute)
func NewPageSweep(stores map[string]Sweeper, logger *zap.Logger, interval time.Duration) *PageSweep {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageSweep{
		stores:   stores,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *PageSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("page state sweeper started",
		zap.Duration("interval", w.interval),
		zap.Int("stores", len(w.stores)))
}

// Stop signals the worker to stop and waits for it to finish. Safe to
// call more than once.
func (w *PageSweep) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("page state sweeper stopped")
}

func (w *PageSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.SweepOnce()
		}
	}
}

// SweepOnce sweeps every store and returns the total removed.
func (w *PageSweep) SweepOnce() int {
	total := 0
	for name, s := range w.stores {
		if n := s.Sweep(); n > 0 {
			w.log.Debug("swept idle page state", zap.String("store", name), zap.Int("count", n))
			total += n
		}
	}
	return total
}
