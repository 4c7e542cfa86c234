// Package oauth2 holds the Google OAuth plumbing: the browser
// authorization-code flow and server-side ID token validation for native and
// SPA clients. It produces verified profile assertions; mapping them onto
// local accounts is the caller's job.
package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/tasknest/tasknest"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo?access_token="

// GoogleAuth drives both Google login flows.
type GoogleAuth struct {
	config oauth2.Config

	// validateIDToken is swappable for tests; defaults to idtoken.Validate.
	validateIDToken func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewGoogleAuth(clientId, clientSecret, callbackURL string) *GoogleAuth {
	if clientId == "" {
		clientId = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if callbackURL == "" {
		callbackURL = os.Getenv("GOOGLE_CALLBACK_URL")
	}
	return &GoogleAuth{
		config: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		validateIDToken: idtoken.Validate,
	}
}

// AuthCodeURL builds the Google consent URL carrying the state nonce.
func (g *GoogleAuth) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

// Exchange trades the callback code for tokens and fetches the user's
// profile from the userinfo endpoint.
func (g *GoogleAuth) Exchange(r *http.Request, code string) (tasknest.ExternalProfile, error) {
	token, err := g.config.Exchange(r.Context(), code)
	if err != nil {
		return tasknest.ExternalProfile{}, fmt.Errorf("code exchange failed: %w", err)
	}
	userInfo, err := fetchUserInfo(r.Context(), token)
	if err != nil {
		return tasknest.ExternalProfile{}, err
	}
	return profileFromClaims(userInfo)
}

// VerifyIDToken validates a Google-issued ID token against our client id and
// returns the profile embedded in its claims.
func (g *GoogleAuth) VerifyIDToken(r *http.Request, rawIDToken string) (tasknest.ExternalProfile, error) {
	payload, err := g.validateIDToken(r.Context(), rawIDToken, g.config.ClientID)
	if err != nil {
		return tasknest.ExternalProfile{}, fmt.Errorf("id token validation failed: %w", err)
	}
	claims := map[string]any{
		"id":      payload.Subject,
		"name":    payload.Claims["name"],
		"email":   payload.Claims["email"],
		"picture": payload.Claims["picture"],
	}
	return profileFromClaims(claims)
}

func fetchUserInfo(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL+token.AccessToken, nil)
	if err != nil {
		return nil, err
	}
	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer response.Body.Close()

	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading userinfo response: %w", err)
	}
	var userInfo map[string]any
	if err := json.Unmarshal(contents, &userInfo); err != nil {
		return nil, fmt.Errorf("failed parsing userinfo response: %w", err)
	}
	return userInfo, nil
}

func profileFromClaims(claims map[string]any) (tasknest.ExternalProfile, error) {
	str := func(key string) string {
		v, _ := claims[key].(string)
		return v
	}
	profile := tasknest.ExternalProfile{
		ID:        str("id"),
		Name:      str("name"),
		Email:     str("email"),
		AvatarURL: str("picture"),
	}
	if profile.ID == "" || profile.Email == "" {
		return tasknest.ExternalProfile{}, fmt.Errorf("provider profile missing id or email")
	}
	return profile, nil
}
