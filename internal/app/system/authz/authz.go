// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/tenmm/squadadmin/internal/app/system/auth"
	"github.com/tenmm/squadadmin/internal/app/system/normalize"
)

// Admin access is granted by email membership in a configured set, not by a
// role stored on the user record. The set is fixed at startup.

// AdminSet holds the normalized admin emails.
type AdminSet struct {
	emails map[string]struct{}
}

// NewAdminSet parses a comma-separated list of admin emails.
func NewAdminSet(list string) *AdminSet {
	set := &AdminSet{emails: map[string]struct{}{}}
	for _, raw := range strings.Split(list, ",") {
		if email := normalize.Email(raw); email != "" {
			set.emails[email] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the email belongs to an admin.
func (s *AdminSet) Contains(email string) bool {
	_, ok := s.emails[normalize.Email(email)]
	return ok
}

// Empty reports whether no admins are configured at all.
func (s *AdminSet) Empty() bool { return len(s.emails) == 0 }

// Level is where a request sits in the authorization ladder.
type Level int

const (
	Anonymous Level = iota // no session
	SignedIn               // valid session, not an admin
	Admin                  // valid session with a configured admin email
)

// RequestLevel classifies the current request.
func (s *AdminSet) RequestLevel(r *http.Request) Level {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return Anonymous
	}
	if s.Contains(u.Email) {
		return Admin
	}
	return SignedIn
}

// IsAdmin reports whether the current request's user is an admin.
func (s *AdminSet) IsAdmin(r *http.Request) bool {
	return s.RequestLevel(r) == Admin
}

// RequireAdmin gates a route on admin membership. Anonymous requests get
// login-redirect semantics; signed-in non-admins get forbidden semantics.
func (s *AdminSet) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch s.RequestLevel(r) {
		case Admin:
			next.ServeHTTP(w, r)

		case SignedIn:
			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", "/forbidden")
				w.WriteHeader(http.StatusForbidden)
				return
			}
			if strings.Contains(r.Header.Get("Accept"), "text/html") {
				http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
				return
			}
			http.Error(w, "forbidden", http.StatusForbidden)

		default:
			ret := url.QueryEscape(r.URL.RequestURI())
			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", "/login?return="+ret)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if strings.Contains(r.Header.Get("Accept"), "text/html") {
				http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
				return
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}
	})
}
