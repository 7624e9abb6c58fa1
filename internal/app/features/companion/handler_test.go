package companion_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"

	"github.com/tenmm/squadadmin/internal/app/features/companion"
	"github.com/tenmm/squadadmin/internal/app/resources"
	"github.com/tenmm/squadadmin/internal/app/store/docstore"
	userstore "github.com/tenmm/squadadmin/internal/app/store/users"
	"github.com/tenmm/squadadmin/internal/testutil"
)

func newTestHandler(t *testing.T) (*companion.Handler, *docstore.Memory) {
	t.Helper()
	docs := docstore.NewMemory()
	return companion.NewHandler(userstore.New(docs), zap.NewNop()), docs
}

// bootTemplates compiles the registered template sets so handlers can
// render full pages, the same way Startup does it.
func bootTemplates(t *testing.T) {
	t.Helper()
	resources.LoadSharedTemplates()
	eng := templates.New(false)
	if err := eng.Boot(zap.NewNop()); err != nil {
		t.Fatalf("boot templates: %v", err)
	}
	templates.UseEngine(eng, zap.NewNop())
}

func TestRoutes_AnonymousIsRedirectedToLogin(t *testing.T) {
	h, _ := newTestHandler(t)
	router := companion.Routes(h)

	req := httptest.NewRequest(http.MethodGet, "/daily", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?return=") {
		t.Errorf("Location = %q, want /login?return=...", loc)
	}
}

func TestServeDaily_ShowsSquadBadge(t *testing.T) {
	bootTemplates(t)
	h, docs := newTestHandler(t)

	u := testutil.SignedInUser()
	if err := docs.Set(context.Background(), docstore.UsersCollection, u.ID, docstore.Fields{
		"emailLower": u.Email, "displayName": u.Name, "squadID": "Morning Oaks", "accountType": "pro",
	}, true); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	req := testutil.GetRequest(t, "/app/daily", u)
	rec := httptest.NewRecorder()
	h.ServeDaily(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Morning Oaks") {
		t.Errorf("page is missing the squad badge:\n%s", body)
	}
}

func TestHandleJournal_SanitizesEchoedEntry(t *testing.T) {
	bootTemplates(t)
	h, docs := newTestHandler(t)

	u := testutil.SignedInUser()
	if err := docs.Set(context.Background(), docstore.UsersCollection, u.ID, docstore.Fields{
		"emailLower": u.Email, "displayName": u.Name, "squadID": "Morning Oaks",
	}, true); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	form := url.Values{}
	form.Set("entry", `Great day <script>alert("x")</script><b>bold</b>`)
	req := testutil.PostForm(t, "/app/journal", form, u)
	rec := httptest.NewRecorder()
	h.HandleJournal(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<script>") {
		t.Errorf("script tag survived sanitization:\n%s", body)
	}
	if !strings.Contains(body, "<b>bold</b>") {
		t.Errorf("benign markup was stripped from the echoed entry:\n%s", body)
	}
	if !strings.Contains(body, "Entry captured") {
		t.Errorf("saved notice missing from the journal page")
	}
}

func TestLoadDegradesWithoutUserRecord(t *testing.T) {
	bootTemplates(t)
	h, _ := newTestHandler(t)

	// No user doc in the store; the screen still serves with session data.
	req := testutil.GetRequest(t, "/app/daily", testutil.SignedInUser())
	rec := httptest.NewRecorder()
	h.ServeDaily(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Test Admin") {
		t.Errorf("degraded page does not show the session user's name:\n%s", body)
	}
}
