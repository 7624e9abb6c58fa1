// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email lowercases and trims an email address. Allowlist document ids and
// cleanup matching both key on this form.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display or squad name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// QueryParam trims a query/form parameter.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
