// internal/app/features/companion/templates.go
package companion

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "companion",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
