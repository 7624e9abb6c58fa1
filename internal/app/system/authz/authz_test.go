package authz_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tenmm/squadadmin/internal/app/system/auth"
	"github.com/tenmm/squadadmin/internal/app/system/authz"
)

func TestNewAdminSet_NormalizesEntries(t *testing.T) {
	set := authz.NewAdminSet(" Admin@Example.com , ,other@example.COM")

	if !set.Contains("admin@example.com") {
		t.Error("lowercased lookup failed")
	}
	if !set.Contains("  OTHER@example.com ") {
		t.Error("lookup should normalize its argument")
	}
	if set.Contains("stranger@example.com") {
		t.Error("unknown email reported as admin")
	}
	if set.Empty() {
		t.Error("set with two entries reported empty")
	}
}

func TestRequestLevel(t *testing.T) {
	set := authz.NewAdminSet("admin@example.com")

	anon := httptest.NewRequest("GET", "/console", nil)
	if got := set.RequestLevel(anon); got != authz.Anonymous {
		t.Errorf("no session = %v, want Anonymous", got)
	}

	member := auth.WithUser(anon, &auth.SessionUser{ID: "u1", Email: "member@example.com"})
	if got := set.RequestLevel(member); got != authz.SignedIn {
		t.Errorf("non-admin session = %v, want SignedIn", got)
	}

	admin := auth.WithUser(anon, &auth.SessionUser{ID: "u2", Email: "Admin@Example.com"})
	if got := set.RequestLevel(admin); got != authz.Admin {
		t.Errorf("admin session = %v, want Admin", got)
	}
	if !set.IsAdmin(admin) {
		t.Error("IsAdmin false for configured admin")
	}
}

func TestRequireAdmin(t *testing.T) {
	set := authz.NewAdminSet("admin@example.com")
	var reached bool
	handler := set.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	// Anonymous HTML request redirects to login.
	req := httptest.NewRequest("GET", "/console?tab=users", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("anonymous status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc == "" || loc == "/forbidden" {
		t.Errorf("anonymous redirect = %q, want login with return", loc)
	}

	// Signed-in non-admin is forbidden.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, auth.WithUser(req, &auth.SessionUser{ID: "u1", Email: "member@example.com"}))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/forbidden" {
		t.Errorf("non-admin = %d %q, want redirect to /forbidden",
			rec.Code, rec.Header().Get("Location"))
	}
	if reached {
		t.Fatal("handler reached without admin access")
	}

	// Admin passes through.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, auth.WithUser(req, &auth.SessionUser{ID: "u2", Email: "admin@example.com"}))
	if !reached {
		t.Fatal("handler not reached for admin")
	}
}
