package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/google/uuid"
)

func newManager() *JWTManager {
	return NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-that-is-long-enough-123456",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "medbook-test",
	})
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := newManager()
	id := domain.Identity{SubjectID: uuid.New(), Email: "p@example.com", Role: domain.RolePatient}

	pair, err := m.GenerateTokenPair(id)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("token type = %q", pair.TokenType)
	}

	got, err := m.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if *got != id {
		t.Errorf("identity = %+v, want %+v", *got, id)
	}

	if _, err := m.ValidateAccessToken(pair.RefreshToken); !errors.Is(err, ErrTokenTypeMismatch) {
		t.Errorf("refresh token used as access: got %v", err)
	}
	if _, err := m.ValidateRefreshToken(pair.RefreshToken); err != nil {
		t.Errorf("ValidateRefreshToken: %v", err)
	}
}

func TestJWTManager_Expired(t *testing.T) {
	m := newManager()
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }

	pair, err := m.GenerateTokenPair(domain.Identity{SubjectID: uuid.New(), Role: domain.RoleDoctor})
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	m.now = time.Now
	if _, err := m.ValidateAccessToken(pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestJWTManager_Rejects(t *testing.T) {
	m := newManager()
	pair, _ := m.GenerateTokenPair(domain.Identity{SubjectID: uuid.New(), Role: domain.RoleAdmin})

	other := NewJWTManager(config.JWTConfig{
		Secret:         "a-completely-different-secret-value!!",
		AccessTokenTTL: time.Minute,
		Issuer:         "medbook-test",
	})

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.jwt"},
		{"empty", ""},
		{"wrong key", pair.AccessToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := other.ValidateAccessToken(tt.token); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}

	if _, err := m.GenerateTokenPair(domain.Identity{SubjectID: uuid.New(), Role: "nurse"}); err == nil {
		t.Error("expected error for unknown role")
	}
}
