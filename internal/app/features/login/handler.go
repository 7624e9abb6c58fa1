// internal/app/features/login/handler.go
package login

import (
	"net/http"
	"net/url"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"

	"github.com/tenmm/squadadmin/internal/app/system/auth"
)

// Handler serves the sign-in page. Google is the only sign-in method, so the
// page is a single button plus any error carried over from the OAuth flow.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

type loginPageData struct {
	Title      string
	IsLoggedIn bool
	UserName   string
	Error      string
	GoogleURL  string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if _, signedIn := auth.CurrentUser(r); signedIn {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	googleURL := "/auth/google"
	if ret := query.Get(r, "return"); ret != "" {
		googleURL += "?return=" + url.QueryEscape(ret)
	}

	templates.Render(w, r, "login", loginPageData{
		Title:     "Sign in",
		Error:     errorMessage(query.Get(r, "error")),
		GoogleURL: googleURL,
	})
}

// errorMessage maps the OAuth flow's error codes to user-facing text.
func errorMessage(code string) string {
	switch code {
	case "":
		return ""
	case "google_not_configured":
		return "Google sign-in is not configured. Please contact an administrator."
	case "google_denied":
		return "Google sign-in was cancelled."
	case "invalid_state":
		return "Your sign-in attempt expired. Please try again."
	case "invalid_code", "token_exchange":
		return "Google sign-in failed. Please try again."
	case "user_info":
		return "We couldn't read your Google profile. Please try again."
	default:
		return "Sign-in failed. Please try again."
	}
}
