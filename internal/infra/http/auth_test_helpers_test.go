package http

import (
	"context"
	"net/http"
	"strings"

	"veritrust/internal/domain"
)

// staticAuthenticator maps a bearer token of the form "role:actorID"
// straight to an actor, so handler tests exercise the real role table
// without minting signed tokens.
type staticAuthenticator struct{}

func (staticAuthenticator) Authenticate(_ context.Context, bearerToken string) (domain.Actor, error) {
	token := strings.TrimSpace(bearerToken)
	if token == "" {
		return domain.Actor{}, domain.ErrMissingCredential
	}
	role, id, ok := strings.Cut(token, ":")
	if !ok || id == "" || !domain.Role(role).Valid() {
		return domain.Actor{}, domain.ErrInvalidCredential
	}
	return domain.Actor{ID: id, Role: domain.Role(role)}, nil
}

func addAuthHeader(req *http.Request, role domain.Role, actorID string) {
	req.Header.Set("Authorization", "Bearer "+string(role)+":"+actorID)
}
