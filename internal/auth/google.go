// Package auth wraps the external identity provider. It owns the Google
// authorization-code flow and the signed session tokens the API hands back
// to the SPA. Nothing else in the codebase talks to the provider.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/tabiplan/backend/internal/domain"
)

// userinfoURL is Google's OpenID userinfo endpoint. Overridable in tests.
const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleVerifier drives the Google sign-in flow: build the consent URL,
// exchange the callback code, and fetch the user's identity.
type GoogleVerifier struct {
	config      *oauth2.Config
	userinfoURL string
	httpClient  *http.Client
}

// NewGoogleVerifier constructs a verifier for the given OAuth client.
// redirectURL must match one of the redirect URIs registered with Google.
func NewGoogleVerifier(clientID, clientSecret, redirectURL string) *GoogleVerifier {
	return &GoogleVerifier{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userinfoURL: userinfoURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthURL returns the Google consent page URL for the given anti-CSRF state.
func (v *GoogleVerifier) AuthURL(state string) string {
	return v.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeCode trades the callback code for a token and resolves the
// authenticated principal from the userinfo endpoint. Provider failures wrap
// domain.ErrAuthentication so handlers surface a retryable 401 rather than
// a 500.
func (v *GoogleVerifier) ExchangeCode(ctx context.Context, code string) (domain.Principal, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.httpClient)

	token, err := v.config.Exchange(ctx, code)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("auth.GoogleVerifier.ExchangeCode: %w: %v", domain.ErrAuthentication, err)
	}

	principal, err := v.fetchUserinfo(ctx, token)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("auth.GoogleVerifier.ExchangeCode: %w", err)
	}
	return principal, nil
}

// googleUserinfo is the subset of the userinfo response this system reads.
type googleUserinfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

func (v *GoogleVerifier) fetchUserinfo(ctx context.Context, token *oauth2.Token) (domain.Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userinfoURL, nil)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: userinfo: %v", domain.ErrAuthentication, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Principal{}, fmt.Errorf("%w: userinfo status %d", domain.ErrAuthentication, resp.StatusCode)
	}

	var info googleUserinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return domain.Principal{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.ID == "" {
		return domain.Principal{}, fmt.Errorf("%w: userinfo has no subject id", domain.ErrAuthentication)
	}

	return domain.Principal{
		ID:        info.ID,
		Name:      info.Name,
		Email:     info.Email,
		AvatarURL: info.Picture,
	}, nil
}
