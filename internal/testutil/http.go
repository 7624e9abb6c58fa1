package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/tenmm/squadadmin/internal/app/system/auth"
)

// SignedInUser is a fixed session identity for handler tests.
func SignedInUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:    "google-sub-12345",
		Name:  "Test Admin",
		Email: "admin@example.com",
	}
}

// GetRequest builds a GET request carrying the given session user.
// Pass nil for an anonymous request.
func GetRequest(t *testing.T, target string, user *auth.SessionUser) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if user != nil {
		req = auth.WithUser(req, user)
	}
	return req
}

// PostForm builds a form POST request carrying the given session user.
func PostForm(t *testing.T, target string, form url.Values, user *auth.SessionUser) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if user != nil {
		req = auth.WithUser(req, user)
	}
	return req
}

// WithChiURLParam attaches a chi route parameter to the request context so
// handlers can be exercised without a full router.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
