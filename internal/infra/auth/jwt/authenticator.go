// Package jwt verifies the bearer credentials issued by the identity
// service. This core only verifies tokens; it never issues or stores
// them.
package jwt

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"veritrust/internal/domain"
)

type Authenticator struct {
	secret    []byte
	clockSkew time.Duration
	now       func() time.Time
}

type Option func(*Authenticator)

func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

func NewAuthenticator(secret string, clockSkew time.Duration, opts ...Option) (*Authenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	auth := &Authenticator{
		secret:    []byte(secret),
		clockSkew: clockSkew,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(auth)
	}
	return auth, nil
}

// Authenticate verifies an HS256 compact JWS and extracts the actor
// identity. Stateless: each call depends only on the token and the
// configured secret.
func (a *Authenticator) Authenticate(_ context.Context, bearerToken string) (domain.Actor, error) {
	token := strings.TrimSpace(bearerToken)
	if token == "" {
		return domain.Actor{}, domain.ErrMissingCredential
	}
	header, claims, signingInput, signature, err := parseCompact(token)
	if err != nil {
		return domain.Actor{}, domain.ErrInvalidCredential
	}
	if alg, _ := header["alg"].(string); alg != "HS256" {
		return domain.Actor{}, domain.ErrInvalidCredential
	}
	if typ, ok := header["typ"].(string); ok && typ != "" && strings.ToUpper(typ) != "JWT" {
		return domain.Actor{}, domain.ErrInvalidCredential
	}
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(signingInput))
	if !hmac.Equal(mac.Sum(nil), signature) {
		return domain.Actor{}, domain.ErrInvalidCredential
	}
	if err := a.validateClaims(claims); err != nil {
		return domain.Actor{}, domain.ErrInvalidCredential
	}
	actor := actorFromClaims(claims)
	if actor.ID == "" || !actor.Role.Valid() {
		return domain.Actor{}, domain.ErrInvalidCredential
	}
	return actor, nil
}

func parseCompact(token string) (header, claims map[string]any, signingInput string, signature []byte, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, nil, "", nil, errors.New("not a compact JWS")
	}
	headerRaw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, "", nil, err
	}
	claimsRaw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, nil, "", nil, err
	}
	signature, err = base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, nil, "", nil, err
	}
	if err := json.Unmarshal(headerRaw, &header); err != nil {
		return nil, nil, "", nil, err
	}
	if err := json.Unmarshal(claimsRaw, &claims); err != nil {
		return nil, nil, "", nil, err
	}
	return header, claims, parts[0] + "." + parts[1], signature, nil
}

func (a *Authenticator) validateClaims(claims map[string]any) error {
	now := a.now()
	if exp, ok := numericClaim(claims, "exp"); ok {
		if now.After(time.Unix(exp, 0).Add(a.clockSkew)) {
			return errors.New("token expired")
		}
	}
	if nbf, ok := numericClaim(claims, "nbf"); ok {
		if now.Add(a.clockSkew).Before(time.Unix(nbf, 0)) {
			return errors.New("token not yet valid")
		}
	}
	return nil
}

func numericClaim(claims map[string]any, key string) (int64, bool) {
	switch v := claims[key].(type) {
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	}
	return 0, false
}

func actorFromClaims(claims map[string]any) domain.Actor {
	actor := domain.Actor{}
	if id, _ := claims["id"].(string); id != "" {
		actor.ID = id
	}
	if actor.ID == "" {
		if sub, _ := claims["sub"].(string); sub != "" {
			actor.ID = sub
		}
	}
	if role, _ := claims["role"].(string); role != "" {
		actor.Role = domain.Role(role)
	}
	return actor
}
