package grpc

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/tasknest/tasknest"
)

func testIssuer() *tasknest.TokenIssuer {
	return tasknest.NewTokenIssuer("test-secret", "tasknest", time.Hour)
}

func incomingContext(t *testing.T, authorization string) context.Context {
	t.Helper()
	if authorization == "" {
		return context.Background()
	}
	md := metadata.Pairs(MetadataKeyAuthorization, authorization)
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestUnaryAuthInterceptor(t *testing.T) {
	issuer := testIssuer()
	token, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	otherToken, err := tasknest.NewTokenIssuer("other-secret", "tasknest", time.Hour).Issue("user-123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tests := []struct {
		name          string
		config        *InterceptorConfig
		authorization string
		method        string
		wantCode      codes.Code
		wantUserID    string
	}{
		{
			name:          "valid token",
			config:        DefaultInterceptorConfig(issuer),
			authorization: "Bearer " + token,
			method:        "/tasknest.Todos/List",
			wantCode:      codes.OK,
			wantUserID:    "user-123",
		},
		{
			name:     "missing token rejected",
			config:   DefaultInterceptorConfig(issuer),
			method:   "/tasknest.Todos/List",
			wantCode: codes.Unauthenticated,
		},
		{
			name:          "forged token rejected",
			config:        DefaultInterceptorConfig(issuer),
			authorization: "Bearer " + otherToken,
			method:        "/tasknest.Todos/List",
			wantCode:      codes.Unauthenticated,
		},
		{
			name:     "public method without token",
			config:   NewPublicMethodsConfig(issuer, "/tasknest.Auth/Login"),
			method:   "/tasknest.Auth/Login",
			wantCode: codes.OK,
		},
		{
			name:     "optional auth without token",
			config:   OptionalAuthConfig(issuer),
			method:   "/tasknest.Todos/List",
			wantCode: codes.OK,
		},
		{
			name:          "optional auth with valid token",
			config:        OptionalAuthConfig(issuer),
			authorization: "Bearer " + token,
			method:        "/tasknest.Todos/List",
			wantCode:      codes.OK,
			wantUserID:    "user-123",
		},
		{
			name:          "optional auth ignores bad token",
			config:        OptionalAuthConfig(issuer),
			authorization: "Bearer garbage",
			method:        "/tasknest.Todos/List",
			wantCode:      codes.OK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interceptor := UnaryAuthInterceptor(tt.config)

			var gotUserID string
			handler := func(ctx context.Context, req any) (any, error) {
				gotUserID = UserIDFromContext(ctx)
				return "ok", nil
			}

			ctx := incomingContext(t, tt.authorization)
			_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, handler)

			if tt.wantCode == codes.OK {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				if gotUserID != tt.wantUserID {
					t.Errorf("expected user ID %q, got %q", tt.wantUserID, gotUserID)
				}
				return
			}
			if status.Code(err) != tt.wantCode {
				t.Errorf("expected code %v, got %v", tt.wantCode, err)
			}
		})
	}
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeServerStream) Context() context.Context { return s.ctx }

func TestStreamAuthInterceptor(t *testing.T) {
	issuer := testIssuer()
	token, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	interceptor := StreamAuthInterceptor(DefaultInterceptorConfig(issuer))

	t.Run("valid token reaches handler with user", func(t *testing.T) {
		stream := &fakeServerStream{ctx: incomingContext(t, "Bearer "+token)}
		var gotUserID string
		err := interceptor(nil, stream, &grpc.StreamServerInfo{FullMethod: "/tasknest.Todos/Watch"},
			func(srv any, ss grpc.ServerStream) error {
				gotUserID = UserIDFromContext(ss.Context())
				return nil
			})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if gotUserID != "user-123" {
			t.Errorf("expected user ID %q, got %q", "user-123", gotUserID)
		}
	})

	t.Run("missing token rejected", func(t *testing.T) {
		stream := &fakeServerStream{ctx: context.Background()}
		err := interceptor(nil, stream, &grpc.StreamServerInfo{FullMethod: "/tasknest.Todos/Watch"},
			func(srv any, ss grpc.ServerStream) error { return nil })
		if status.Code(err) != codes.Unauthenticated {
			t.Errorf("expected Unauthenticated, got %v", err)
		}
	})
}
