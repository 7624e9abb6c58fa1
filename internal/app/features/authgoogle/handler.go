// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	userstore "github.com/tenmm/squadadmin/internal/app/store/users"
	synccore "github.com/tenmm/squadadmin/internal/app/sync"
	"github.com/tenmm/squadadmin/internal/app/system/auth"
	"github.com/tenmm/squadadmin/internal/app/system/authz"
	"github.com/tenmm/squadadmin/internal/app/system/normalize"
	"github.com/tenmm/squadadmin/internal/app/system/timeouts"
)

// stateCookie carries the OAuth state token and the post-login destination
// across the round trip to Google. It is signed, not persisted; the flow is
// short-lived and single-process, so a server-side state store is not needed.
const stateCookieName = "squadadmin-oauth-state"

const stateCookieMaxAge = 600 // seconds

// Handler handles Google OAuth authentication.
type Handler struct {
	Users  *userstore.Store
	Core   *synccore.Core
	Admins *authz.AdminSet
	Log    *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://squadadmin.example.com/auth/google/callback"

	codec *securecookie.SecureCookie
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	users *userstore.Store,
	core *synccore.Core,
	admins *authz.AdminSet,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:        users,
		Core:         core,
		Admins:       admins,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		codec: securecookie.New(
			securecookie.GenerateRandomKey(32),
			securecookie.GenerateRandomKey(32),
		),
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

type statePayload struct {
	State  string
	Return string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	payload := statePayload{
		State:  state,
		Return: query.Get(r, "return"),
	}
	encoded, err := h.codec.Encode(stateCookieName, payload)
	if err != nil {
		h.Log.Error("failed to encode OAuth state cookie", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    encoded,
		Path:     "/auth/google",
		MaxAge:   stateCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	url := h.oauth2Config().AuthCodeURL(state)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("redirect_url", url),
		zap.String("return_url", payload.Return))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code for tokens, fetches the Google profile, registers the     |
| sign-in, and creates the session.                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Check for errors from Google
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, "/login?error=google_denied", http.StatusSeeOther)
		return
	}

	// Validate state against the signed cookie
	state := r.URL.Query().Get("state")
	payload, ok := h.readStateCookie(w, r)
	if state == "" || !ok || payload.State != state {
		h.Log.Warn("invalid or expired OAuth state")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	// Exchange code for token
	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, "/login?error=invalid_code", http.StatusSeeOther)
		return
	}

	exCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	token, err := h.oauth2Config().Exchange(exCtx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	googleUser, err := fetchGoogleUserInfo(exCtx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}

	h.Log.Debug("Google user info fetched",
		zap.String("google_id", googleUser.ID),
		zap.String("email", googleUser.Email))

	regCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	user, err := h.Users.RegisterSignIn(regCtx, userstore.Profile{
		Subject: googleUser.ID,
		Email:   googleUser.Email,
		Name:    googleUser.Name,
	})
	if err != nil {
		h.Log.Error("failed to register sign-in", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	sessionUser := auth.SessionUser{
		ID:    user.ID,
		Name:  user.DisplayName,
		Email: user.Email,
	}
	if err := auth.SignIn(w, r, sessionUser); err != nil {
		h.Log.Error("failed to save session", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	isAdmin := h.Admins.Contains(user.Email)
	if isAdmin {
		// Admin sign-in opens a console session so the live mirrors are
		// warm before the console page loads.
		h.Core.AcquireFor(user.Email)
	}

	h.Log.Info("user signed in",
		zap.String("email", normalize.Email(user.Email)),
		zap.Bool("admin", isAdmin))

	fallback := "/app/daily"
	if isAdmin {
		fallback = "/console"
	}
	http.Redirect(w, r, urlutil.SafeReturn(payload.Return, "", fallback), http.StatusSeeOther)
}

// readStateCookie decodes and clears the state cookie. The cookie is
// one-shot; a replayed callback fails state validation.
func (h *Handler) readStateCookie(w http.ResponseWriter, r *http.Request) (statePayload, bool) {
	c, err := r.Cookie(stateCookieName)
	if err != nil {
		return statePayload{}, false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	var payload statePayload
	if err := h.codec.Decode(stateCookieName, c.Value, &payload); err != nil {
		return statePayload{}, false
	}
	return payload, true
}

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &info, nil
}

// generateState returns a cryptographically random state token.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
