package labels

import (
	"strings"
	"time"
)

// DateLayout is the day-first format dates are shown in.
const DateLayout = "02.01.2006"

var dateInputs = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatDate renders an ISO date or timestamp as DD.MM.YYYY.
func FormatDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len("2006-01-02") {
		return "", false
	}
	for _, layout := range dateInputs {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout), true
		}
	}
	return "", false
}

// DateValue is Value with ISO dates shown as DD.MM.YYYY.
func DateValue(v any) string {
	if s, ok := v.(string); ok {
		if d, ok := FormatDate(s); ok {
			return d
		}
	}
	return Value(v)
}
