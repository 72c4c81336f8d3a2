package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: 7 * time.Second})
	if Short() != 7*time.Second {
		t.Errorf("Short = %v", Short())
	}
	if Medium() != DefaultMedium || Ping() != DefaultPing || Long() != DefaultLong {
		t.Errorf("unset values changed: %+v", Current())
	}

	Reset()
	if Short() != DefaultShort {
		t.Errorf("Reset left Short = %v", Short())
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.New(core), "load pupils")
	<-ctx.Done()
	cancel()
	if logs.Len() != 1 || logs.All()[0].ContextMap()["operation"] != "load pupils" {
		t.Errorf("logs = %+v", logs.All())
	}

	_, cancel = WithTimeout(context.Background(), time.Minute, zap.New(core), "fast")
	cancel()
	if logs.Len() != 1 {
		t.Errorf("canceled context logged a timeout")
	}
}
