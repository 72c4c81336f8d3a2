package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/dalemusser/gradebook/internal/app/system/htmlsanitize"
)

// maxMessage caps an error message taken from a response body.
const maxMessage = 500

// TransportError means no usable response arrived (network failure,
// timeout, canceled context).
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("apiclient: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response. Message is the server's explanation:
// the "message" field of a JSON body, otherwise the body as plain text.
type HTTPError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("apiclient: %s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("apiclient: %s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// DecodeError is a 2xx response whose body could not be decoded or failed
// validation.
type DecodeError struct {
	Method string
	Path   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("apiclient: decode %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func newHTTPError(method, path string, status int, contentType string, body []byte) *HTTPError {
	return &HTTPError{
		Method:  method,
		Path:    path,
		Status:  status,
		Message: bodyMessage(contentType, body),
	}
}

func bodyMessage(contentType string, body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}

	mt, _, _ := mime.ParseMediaType(contentType)
	if mt == "application/json" || strings.HasPrefix(text, "{") {
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(text), &payload); err == nil {
			return clip(strings.TrimSpace(payload.Message))
		}
	}
	if mt == "text/html" || !htmlsanitize.IsPlainText(text) {
		text = htmlsanitize.ToText(text)
	}
	return clip(text)
}

func clip(s string) string {
	if len(s) <= maxMessage {
		return s
	}
	cut := maxMessage
	for cut > 0 && !utf8Start(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func utf8Start(b byte) bool { return b&0xC0 != 0x80 }

// UserMessage returns the text to show for err: the server's message when
// it sent one, otherwise fallback.
func UserMessage(err error, fallback string) string {
	var he *HTTPError
	if errors.As(err, &he) && he.Message != "" {
		return he.Message
	}
	return fallback
}

// IsUnauthorized reports whether the API rejected the access token.
func IsUnauthorized(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == http.StatusUnauthorized
}

// IsStatus reports whether err is an HTTPError with the given status.
func IsStatus(err error, status int) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == status
}
