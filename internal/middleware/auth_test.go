package middleware

import (
	"context"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/models"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

type identity struct {
	userID string
	email  string
}

// callThrough runs RequireAuth around a handler that records the identity
// it was called with.
func callThrough(t *testing.T, jwtManager *auth.JWTManager, header string) (identity, error) {
	t.Helper()
	var seen identity
	next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		seen = identity{userID: GetUserID(ctx), email: GetEmail(ctx)}
		return nil, nil
	}

	req := connect.NewRequest(&struct{}{})
	if header != "" {
		req.Header().Set("Authorization", header)
	}
	_, err := RequireAuth(jwtManager)(next)(context.Background(), req)
	return seen, err
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager(testSecret, time.Hour)
	user := &models.User{ID: "user-1", Email: "alice@example.com"}
	token, err := jwtManager.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	t.Run("valid token", func(t *testing.T) {
		seen, err := callThrough(t, jwtManager, "Bearer "+token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen.userID != "user-1" || seen.email != "alice@example.com" {
			t.Errorf("identity = %+v, want user-1/alice@example.com", seen)
		}
	})

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic " + token},
		{name: "empty token", header: "Bearer "},
		{name: "garbage token", header: "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := callThrough(t, jwtManager, tt.header)
			if connect.CodeOf(err) != connect.CodeUnauthenticated {
				t.Errorf("code = %v, want %v", connect.CodeOf(err), connect.CodeUnauthenticated)
			}
		})
	}

	t.Run("token from another key", func(t *testing.T) {
		other := auth.NewJWTManager("another-secret-key-at-least-32-characters", time.Hour)
		foreign, err := other.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if _, err := callThrough(t, jwtManager, "Bearer "+foreign); connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Errorf("code = %v, want %v", connect.CodeOf(err), connect.CodeUnauthenticated)
		}
	})
}
