// Package richtext is the sanitization boundary for user-authored HTML.
// Stored rich text is never rendered verbatim; it passes through an
// allow-list policy first.
package richtext

import "github.com/microcosm-cc/bluemonday"

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("p", "span", "div")
	p.AllowImages()
	return p
}

// Sanitize strips everything outside the allow-list from stored rich text.
func Sanitize(html string) string {
	return policy.Sanitize(html)
}
