package http

import (
	"errors"
	"net/http"
	"strings"

	"veritrust/internal/domain"

	"github.com/gin-gonic/gin"
)

const actorContextKey = "actor"

// requireAuth verifies the bearer credential and checks the operation
// against the role table. On failure it writes the response itself and
// reports ok=false.
func (s *Server) requireAuth(c *gin.Context, operation string) (domain.Actor, bool) {
	if s.authenticator == nil {
		writeFailure(c, http.StatusInternalServerError, "authentication not configured")
		return domain.Actor{}, false
	}
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" {
		writeFailure(c, http.StatusUnauthorized, "missing bearer token")
		return domain.Actor{}, false
	}
	actor, err := s.authenticator.Authenticate(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrMissingCredential) {
			writeFailure(c, http.StatusUnauthorized, "missing bearer token")
		} else {
			writeFailure(c, http.StatusUnauthorized, "invalid or expired credential")
		}
		return domain.Actor{}, false
	}
	if s.authorizer != nil {
		if err := s.authorizer.Require(actor, operation); err != nil {
			writeError(c, err)
			return domain.Actor{}, false
		}
	}
	c.Set(actorContextKey, actor)
	return actor, true
}

func extractBearerToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(value), "bearer ") {
		return ""
	}
	return strings.TrimSpace(value[len("bearer "):])
}
