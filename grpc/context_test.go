package grpc

import (
	"context"
	"testing"

	"google.golang.org/grpc/metadata"
)

func TestUserIDFromContext_Empty(t *testing.T) {
	if got := UserIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty user ID, got %q", got)
	}
	if IsAuthenticated(context.Background()) {
		t.Error("expected unauthenticated context")
	}
}

func TestWithUserID(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-123")
	if got := UserIDFromContext(ctx); got != "user-123" {
		t.Errorf("expected user ID %q, got %q", "user-123", got)
	}
	if !IsAuthenticated(ctx) {
		t.Error("expected authenticated context")
	}
}

func TestTokenToOutgoingContext(t *testing.T) {
	ctx := TokenToOutgoingContext(context.Background(), "abc123")
	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		t.Fatal("expected outgoing metadata")
	}
	values := md.Get(MetadataKeyAuthorization)
	if len(values) != 1 || values[0] != "Bearer abc123" {
		t.Errorf("expected bearer token in outgoing metadata, got %v", values)
	}
}

func TestBearerFromContext(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"bearer prefix", "Bearer abc123", "abc123"},
		{"lowercase prefix", "bearer abc123", "abc123"},
		{"bare token", "abc123", "abc123"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := metadata.Pairs(MetadataKeyAuthorization, tt.value)
			ctx := metadata.NewIncomingContext(context.Background(), md)
			if got := bearerFromContext(ctx); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	if got := bearerFromContext(context.Background()); got != "" {
		t.Errorf("expected empty token without metadata, got %q", got)
	}
}
