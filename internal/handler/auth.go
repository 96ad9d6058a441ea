package handler

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"
)

// stateCookie carries the anti-CSRF state between the login redirect and
// the provider callback.
const stateCookie = "oauth_state"

// loginResponse is returned by the callback on a successful sign-in.
// NeedsRegistration tells the SPA to route to the profile registration page
// before the dashboard — a first-time user has no nickname yet.
type loginResponse struct {
	Token             string `json:"token"`
	NeedsRegistration bool   `json:"needs_registration"`
}

// Login handles GET /auth/login: redirect to the provider's consent page.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		writeErr(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, s.identity.AuthURL(state), http.StatusFound)
}

// Callback handles GET /auth/callback: exchange the provider code for a
// session token. A user cancelling the consent screen comes back without a
// code — that is "no change", not an error, so the client is told to retry
// rather than shown a failure.
//
// On success the principal's profile row is ensured (idempotent), so every
// signed-in user exists in the users collection before any trip query runs.
func (s *Server) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		// Cancelled or denied at the consent screen.
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		requestErr(w, "state mismatch")
		return
	}

	principal, err := s.identity.ExchangeCode(r.Context(), code)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	if err := s.profiles.Ensure(r.Context(), principal); err != nil {
		writeErr(w, r, err)
		return
	}

	token, err := s.sessions.Issue(principal)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	needsRegistration := true
	if profile, err := s.profiles.Get(r.Context(), principal.ID); err == nil {
		needsRegistration = !profile.Registered()
	}

	// Clear the single-use state cookie.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth", MaxAge: -1})

	writeJSON(w, http.StatusOK, loginResponse{
		Token:             token,
		NeedsRegistration: needsRegistration,
	})
}

// Logout handles POST /auth/logout. Sessions are stateless bearer tokens,
// so there is nothing to revoke server-side; the endpoint exists so the
// client has a definite point at which to discard its token and abandon any
// in-flight requests.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
