package jwt

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"veritrust/internal/domain"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, secret string, claims map[string]any) string {
	t.Helper()
	header := map[string]any{"alg": "HS256", "typ": "JWT"}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) + "." + base64.RawURLEncoding.EncodeToString(claimsJSON)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signingInput))
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func newTestAuthenticator(t *testing.T, now time.Time) *Authenticator {
	t.Helper()
	auth, err := NewAuthenticator(testSecret, time.Minute, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	return auth
}

func TestAuthenticate_OK(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	auth := newTestAuthenticator(t, now)
	token := mintToken(t, testSecret, map[string]any{
		"id":   "user-42",
		"role": "issuer",
		"exp":  now.Add(time.Hour).Unix(),
	})

	actor, err := auth.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if actor.ID != "user-42" || actor.Role != domain.RoleIssuer {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestAuthenticate_SubjectFallback(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	auth := newTestAuthenticator(t, now)
	token := mintToken(t, testSecret, map[string]any{
		"sub":  "user-42",
		"role": "user",
	})

	actor, err := auth.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if actor.ID != "user-42" {
		t.Fatalf("expected sub fallback, got %+v", actor)
	}
}

func TestAuthenticate_Missing(t *testing.T) {
	auth := newTestAuthenticator(t, time.Now())
	if _, err := auth.Authenticate(context.Background(), ""); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestAuthenticate_Invalid(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	auth := newTestAuthenticator(t, now)

	cases := map[string]string{
		"garbage":       "not-a-jwt",
		"wrong secret":  mintToken(t, "other-secret", map[string]any{"id": "u", "role": "user"}),
		"expired":       mintToken(t, testSecret, map[string]any{"id": "u", "role": "user", "exp": now.Add(-2 * time.Hour).Unix()}),
		"not yet valid": mintToken(t, testSecret, map[string]any{"id": "u", "role": "user", "nbf": now.Add(2 * time.Hour).Unix()}),
		"no identity":   mintToken(t, testSecret, map[string]any{"role": "user"}),
		"unknown role":  mintToken(t, testSecret, map[string]any{"id": "u", "role": "root"}),
	}
	for name, token := range cases {
		if _, err := auth.Authenticate(context.Background(), token); !errors.Is(err, domain.ErrInvalidCredential) {
			t.Fatalf("%s: expected ErrInvalidCredential, got %v", name, err)
		}
	}
}

func TestAuthenticate_ClockSkewTolerated(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	auth := newTestAuthenticator(t, now)
	token := mintToken(t, testSecret, map[string]any{
		"id":   "user-42",
		"role": "user",
		"exp":  now.Add(-30 * time.Second).Unix(),
	})
	if _, err := auth.Authenticate(context.Background(), token); err != nil {
		t.Fatalf("expiry inside skew window must pass: %v", err)
	}
}
