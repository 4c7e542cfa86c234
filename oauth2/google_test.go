package oauth2

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/idtoken"
)

func TestAuthCodeURL(t *testing.T) {
	auth := NewGoogleAuth("client-id", "client-secret", "http://localhost:8080/api/auth/google/callback")

	got := auth.AuthCodeURL("state-nonce")
	if !strings.Contains(got, "state=state-nonce") {
		t.Errorf("expected state in URL, got %q", got)
	}
	if !strings.Contains(got, "client_id=client-id") {
		t.Errorf("expected client id in URL, got %q", got)
	}
	if !strings.Contains(got, "accounts.google.com") {
		t.Errorf("expected Google endpoint, got %q", got)
	}
}

func TestVerifyIDToken(t *testing.T) {
	auth := NewGoogleAuth("client-id", "client-secret", "")

	var gotAudience string
	auth.validateIDToken = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		gotAudience = audience
		return &idtoken.Payload{
			Subject: "google-sub-1",
			Claims: map[string]any{
				"name":    "Alice",
				"email":   "alice@example.com",
				"picture": "https://lh3.googleusercontent.com/a/photo=s96-c",
			},
		}, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	profile, err := auth.VerifyIDToken(req, "raw-id-token")
	if err != nil {
		t.Fatalf("VerifyIDToken failed: %v", err)
	}
	if gotAudience != "client-id" {
		t.Errorf("token must be validated against our client id, got %q", gotAudience)
	}
	if profile.ID != "google-sub-1" || profile.Email != "alice@example.com" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestVerifyIDToken_ValidationFailure(t *testing.T) {
	auth := NewGoogleAuth("client-id", "client-secret", "")
	auth.validateIDToken = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		return nil, fmt.Errorf("audience mismatch")
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if _, err := auth.VerifyIDToken(req, "raw-id-token"); err == nil {
		t.Error("expected validation failure to propagate")
	}
}

func TestProfileFromClaims(t *testing.T) {
	tests := []struct {
		name    string
		claims  map[string]any
		wantErr bool
	}{
		{
			name:   "complete claims",
			claims: map[string]any{"id": "sub-1", "name": "Alice", "email": "alice@example.com", "picture": "photo"},
		},
		{
			name:    "missing id",
			claims:  map[string]any{"email": "alice@example.com"},
			wantErr: true,
		},
		{
			name:    "missing email",
			claims:  map[string]any{"id": "sub-1"},
			wantErr: true,
		},
		{
			name:    "non-string values ignored",
			claims:  map[string]any{"id": 42, "email": "alice@example.com"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := profileFromClaims(tt.claims)
			if tt.wantErr {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("profileFromClaims failed: %v", err)
			}
			if profile.ID != "sub-1" {
				t.Errorf("unexpected profile: %+v", profile)
			}
		})
	}
}
