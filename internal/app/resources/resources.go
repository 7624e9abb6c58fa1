// Package resources carries the shared page chrome: the head, nav, and
// footer partials every feature page builds on.
package resources

import (
	"embed"
	"sync"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var sharedFS embed.FS

var once sync.Once

// LoadSharedTemplates registers the "shared" set the template engine
// requires at Boot. Startup calls it once; tests that boot an engine of
// their own call it too, so registration is guarded.
func LoadSharedTemplates() {
	once.Do(func() {
		templates.Register(templates.Set{
			Name:     "shared",
			FS:       sharedFS,
			Patterns: []string{"templates/*.gohtml"},
		})
	})
}
