// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var policy = bluemonday.UGCPolicy()

// Sanitize strips unsafe HTML from user-authored content (journal entries,
// check-in notes) before it is rendered back into a page.
func Sanitize(html string) string {
	return policy.Sanitize(html)
}
