// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger logs a failure with request context before rendering the
// user-facing error.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

func (l *ErrorLogger) log(r *http.Request, msg string, err error) {
	l.Log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
}

// HTMXLogServerError logs err and renders userMsg as a server error.
func (l *ErrorLogger) HTMXLogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	l.log(r, logMsg, err)
	HTMXError(w, r, http.StatusBadGateway, userMsg, func() {
		RenderServerError(w, r, userMsg, backURL)
	})
}

// HTMXLogBadRequest logs err at warn level and renders userMsg as a bad
// request.
func (l *ErrorLogger) HTMXLogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	l.Log.Warn(logMsg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	HTMXBadRequest(w, r, userMsg, backURL)
}
