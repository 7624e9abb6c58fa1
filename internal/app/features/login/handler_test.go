package login_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"

	"github.com/tenmm/squadadmin/internal/app/features/login"
	"github.com/tenmm/squadadmin/internal/app/resources"
	"github.com/tenmm/squadadmin/internal/testutil"
)

// bootTemplates compiles the registered template sets so the handler can
// render the page, the same way Startup does it.
func bootTemplates(t *testing.T) {
	t.Helper()
	resources.LoadSharedTemplates()
	eng := templates.New(false)
	if err := eng.Boot(zap.NewNop()); err != nil {
		t.Fatalf("boot templates: %v", err)
	}
	templates.UseEngine(eng, zap.NewNop())
}

func TestServeLogin_SignedInUserIsRedirectedHome(t *testing.T) {
	h := login.NewHandler(zap.NewNop())

	req := testutil.GetRequest(t, "/login", testutil.SignedInUser())
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
}

func TestServeLogin_AnonymousRendersForm(t *testing.T) {
	bootTemplates(t)
	h := login.NewHandler(zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/login?error=google_denied&return=/console", nil)
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Google sign-in was cancelled.") {
		t.Errorf("error banner missing from the login page:\n%s", body)
	}
}
