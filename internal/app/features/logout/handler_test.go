package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/tenmm/squadadmin/internal/app/features/logout"
	"github.com/tenmm/squadadmin/internal/app/store/docstore"
	synccore "github.com/tenmm/squadadmin/internal/app/sync"
	"github.com/tenmm/squadadmin/internal/app/system/auth"
	"github.com/tenmm/squadadmin/internal/app/system/authz"
	"github.com/tenmm/squadadmin/internal/testutil"
)

func newTestHandler(t *testing.T) (*logout.Handler, *synccore.Core) {
	t.Helper()
	logger := zap.NewNop()

	if err := auth.InitSessionStore("test-session-key-for-testing-only", "", false, logger); err != nil {
		t.Fatalf("InitSessionStore failed: %v", err)
	}

	core := synccore.New(docstore.NewMemory(), logger)
	admins := authz.NewAdminSet("admin@example.com")
	return logout.NewHandler(core, admins, logger), core
}

func TestServeLogout_RedirectsToHome(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	rec := httptest.NewRecorder()

	handler.ServeLogout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
}

func TestServeLogout_ClearsSessionCookie(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	rec := httptest.NewRecorder()

	handler.ServeLogout(rec, req)

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionName {
			found = true
			if c.MaxAge != -1 {
				t.Errorf("cookie MaxAge = %d, want -1 (delete)", c.MaxAge)
			}
			break
		}
	}
	if !found {
		t.Error("expected session cookie to be set for deletion")
	}
}

func TestServeLogout_AdminReleasesConsoleSession(t *testing.T) {
	handler, core := newTestHandler(t)

	admin := testutil.SignedInUser()
	core.AcquireFor(admin.Email)
	if !core.Active() {
		t.Fatal("core should be active after AcquireFor")
	}

	req := testutil.GetRequest(t, "/logout", admin)
	rec := httptest.NewRecorder()
	handler.ServeLogout(rec, req)

	if core.Active() {
		t.Error("admin logout should release the console session")
	}
}

func TestServeLogout_StaleCookieKeepsOtherAdminsSession(t *testing.T) {
	handler, core := newTestHandler(t)

	// Another admin's session opened the mirrors in this process.
	core.AcquireFor("other@example.com")
	t.Cleanup(func() { core.ReleaseFor("other@example.com") })

	// This admin's cookie predates the process; they hold no session here.
	req := testutil.GetRequest(t, "/logout", testutil.SignedInUser())
	rec := httptest.NewRecorder()
	handler.ServeLogout(rec, req)

	if !core.Active() {
		t.Error("a sign-out with no held session must not tear down the mirrors")
	}
}

func TestServeLogout_NonAdminKeepsConsoleSession(t *testing.T) {
	handler, core := newTestHandler(t)

	core.Acquire()
	t.Cleanup(core.Release)

	member := &auth.SessionUser{ID: "sub-2", Name: "Member", Email: "member@example.com"}
	req := testutil.GetRequest(t, "/logout", member)
	rec := httptest.NewRecorder()
	handler.ServeLogout(rec, req)

	if !core.Active() {
		t.Error("non-admin logout should not release the console session")
	}
}

func TestServeLogout_HTMXReturnsHXRedirect(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	handler.ServeLogout(rec, req)

	if hx := rec.Header().Get("HX-Redirect"); hx != "/" {
		t.Errorf("HX-Redirect = %q, want /", hx)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
