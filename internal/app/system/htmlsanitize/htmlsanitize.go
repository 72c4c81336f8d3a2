// Package htmlsanitize turns untrusted HTML (typically an error page from a
// proxy in front of the API) into plain text safe to show in a modal.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips every element; the content of script, style and title is
// dropped by bluemonday itself. Policies are safe for concurrent use.
var strict = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// ToText strips all markup from s, unescapes entities and collapses runs of
// whitespace into single spaces.
func ToText(s string) string {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return collapse(s)
	}
	return collapse(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s carries no markup.
func IsPlainText(s string) bool {
	return !strings.Contains(s, "<") || !strings.Contains(s, ">")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
