package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, "john@acme.test", "admin")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user %s, got %s", userID, claims.UserID)
	}
	if claims.Email != "john@acme.test" || claims.Role != "admin" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	other := NewManager("different-secret", "refresh-secret", time.Minute, time.Hour)

	token, err := m.GenerateAccessToken(uuid.New(), "john@acme.test", "member")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := other.ValidateAccessToken(token); err == nil {
		t.Fatal("token signed with a different secret must not validate")
	}
}

func TestAccessTokenExpired(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret", -time.Minute, time.Hour)

	token, err := m.GenerateAccessToken(uuid.New(), "john@acme.test", "member")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := m.ValidateAccessToken(token); err == nil {
		t.Fatal("expired token must not validate")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	userID := uuid.New()

	token, err := m.GenerateRefreshToken(userID)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	got, err := m.ValidateRefreshToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if got != userID {
		t.Fatalf("expected user %s, got %s", userID, got)
	}

	// Refresh tokens must not pass access validation.
	if _, err := m.ValidateAccessToken(token); err == nil {
		t.Fatal("refresh token validated as access token")
	}
}
