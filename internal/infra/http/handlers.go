package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"veritrust/internal/domain"
	"veritrust/internal/infra/auth/rbac"

	"github.com/gin-gonic/gin"
)

// Every response uses the same envelope; a warning is attached when the
// primary action succeeded but its audit write was lost.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Warning string `json:"warning,omitempty"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type anchorData struct {
	Fingerprint string `json:"fingerprint"`
	AnchoredAt  string `json:"anchored_at"`
	Revoked     bool   `json:"revoked"`
	Idempotent  bool   `json:"idempotent"`
	TxID        string `json:"tx_id,omitempty"`
}

type verifyData struct {
	Fingerprint string `json:"fingerprint"`
	Exists      bool   `json:"exists"`
	AnchoredAt  string `json:"anchored_at,omitempty"`
	Revoked     bool   `json:"revoked"`
}

type auditEntryData struct {
	ID            string `json:"id"`
	Seq           int64  `json:"seq"`
	ActorID       string `json:"actor_id"`
	ActorRole     string `json:"actor_role"`
	Action        string `json:"action"`
	ResourceType  string `json:"resource_type"`
	ResourceID    string `json:"resource_id,omitempty"`
	OriginAddress string `json:"origin_address,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func (s *Server) handleAnchor(c *gin.Context) {
	actor, ok := s.requireAuth(c, rbac.OpAnchor)
	if !ok {
		return
	}
	if !s.enforceRateLimit(c, "anchor") {
		return
	}
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		writeFailure(c, http.StatusBadRequest, "content is required")
		return
	}
	result, err := s.anchors.Anchor(c.Request.Context(), []byte(req.Content))
	if err != nil {
		writeError(c, err)
		return
	}

	warning := s.recordAudit(c, actor, domain.AuditActionAnchorCreated, domain.AuditResourceAnchor, result.Record.Fingerprint.Hex())

	message := "content anchored"
	if result.Idempotent {
		message = "content already anchored"
	}
	writeSuccess(c, message, anchorData{
		Fingerprint: result.Record.Fingerprint.Hex(),
		AnchoredAt:  formatTime(result.Record.AnchoredAt),
		Revoked:     result.Record.Revoked,
		Idempotent:  result.Idempotent,
		TxID:        result.TxID,
	}, warning)
}

func (s *Server) handleVerify(c *gin.Context) {
	content := c.Query("content")
	if content == "" {
		writeFailure(c, http.StatusBadRequest, "content is required")
		return
	}
	result, err := s.anchors.Verify(c.Request.Context(), []byte(content))
	if err != nil {
		writeError(c, err)
		return
	}
	message := "fingerprint not anchored"
	if result.Exists {
		message = "fingerprint anchored"
		if result.Revoked {
			message = "fingerprint anchored but revoked"
		}
	}
	writeSuccess(c, message, verifyData{
		Fingerprint: result.Fingerprint.Hex(),
		Exists:      result.Exists,
		AnchoredAt:  formatTime(result.AnchoredAt),
		Revoked:     result.Revoked,
	}, "")
}

func (s *Server) handleRevoke(c *gin.Context) {
	actor, ok := s.requireAuth(c, rbac.OpRevoke)
	if !ok {
		return
	}
	if !s.enforceRateLimit(c, "revoke") {
		return
	}
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		writeFailure(c, http.StatusBadRequest, "content is required")
		return
	}
	result, err := s.anchors.Revoke(c.Request.Context(), []byte(req.Content))
	if err != nil {
		writeError(c, err)
		return
	}

	warning := s.recordAudit(c, actor, domain.AuditActionAnchorRevoked, domain.AuditResourceAnchor, result.Record.Fingerprint.Hex())

	message := "fingerprint revoked"
	if result.Idempotent {
		message = "fingerprint already revoked"
	}
	writeSuccess(c, message, anchorData{
		Fingerprint: result.Record.Fingerprint.Hex(),
		AnchoredAt:  formatTime(result.Record.AnchoredAt),
		Revoked:     result.Record.Revoked,
		Idempotent:  result.Idempotent,
		TxID:        result.TxID,
	}, warning)
}

func (s *Server) handleAudit(c *gin.Context) {
	actor, ok := s.requireAuth(c, rbac.OpAuditRead)
	if !ok {
		return
	}
	limit := s.cfg.AuditListDefaultLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeFailure(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	entries, err := s.audit.List(c.Request.Context(), limit, actor.Role)
	if err != nil {
		writeError(c, err)
		return
	}

	// Recorded after the read so the listing itself reflects the state
	// the admin actually saw.
	warning := s.recordAudit(c, actor, domain.AuditActionAuditViewed, domain.AuditResourceAuditLog, "")

	out := make([]auditEntryData, 0, len(entries))
	for _, entry := range entries {
		out = append(out, auditEntryData{
			ID:            entry.ID,
			Seq:           entry.Seq,
			ActorID:       entry.ActorID,
			ActorRole:     string(entry.ActorRole),
			Action:        string(entry.Action),
			ResourceType:  string(entry.ResourceType),
			ResourceID:    entry.ResourceID,
			OriginAddress: entry.OriginAddress,
			CreatedAt:     formatTime(entry.CreatedAt),
		})
	}
	writeSuccess(c, "audit entries", gin.H{"count": len(out), "entries": out}, warning)
}

func (s *Server) handleAdmin(c *gin.Context) {
	actor, ok := s.requireAuth(c, rbac.OpAdminAccess)
	if !ok {
		return
	}
	warning := s.recordAudit(c, actor, domain.AuditActionAdminRouteAccess, domain.AuditResourceAdminRoute, "")
	writeSuccess(c, "admin route accessed", gin.H{
		"id":   actor.ID,
		"role": string(actor.Role),
	}, warning)
}

func (s *Server) handleProtected(c *gin.Context) {
	actor, ok := s.requireAuth(c, rbac.OpProtectedAccess)
	if !ok {
		return
	}
	writeSuccess(c, "protected route accessed", gin.H{
		"id":   actor.ID,
		"role": string(actor.Role),
	}, "")
}

// recordAudit appends one entry for a privileged action that already
// succeeded. A lost audit write must not fail the primary action, but
// it is reported so an operator can reconcile the trail.
func (s *Server) recordAudit(c *gin.Context, actor domain.Actor, action domain.AuditAction, resourceType domain.AuditResourceType, resourceID string) string {
	if s.audit == nil {
		return "audit recorder not configured"
	}
	_, err := s.audit.Record(c.Request.Context(), domain.AuditEntry{
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		Action:        action,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		OriginAddress: originAddress(c),
	})
	if err != nil {
		log.Printf("audit write failed for action %s by %s: %v", action, actor.ID, err)
		return "audit record could not be written; the operation itself succeeded"
	}
	return ""
}

func originAddress(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		for i := 0; i < len(forwarded); i++ {
			if forwarded[i] == ',' {
				return forwarded[:i]
			}
		}
		return forwarded
	}
	return c.ClientIP()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeSuccess(c *gin.Context, message string, data any, warning string) {
	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Message: message,
		Data:    data,
		Warning: warning,
	})
}

func writeFailure(c *gin.Context, status int, message string) {
	c.JSON(status, apiResponse{
		Success: false,
		Message: message,
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeFailure(c, http.StatusBadRequest, "invalid input")
	case errors.Is(err, domain.ErrMissingCredential):
		writeFailure(c, http.StatusUnauthorized, "missing credential")
	case errors.Is(err, domain.ErrInvalidCredential):
		writeFailure(c, http.StatusUnauthorized, "invalid or expired credential")
	case errors.Is(err, domain.ErrForbidden):
		writeFailure(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeFailure(c, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrNotAnchored):
		writeFailure(c, http.StatusConflict, "fingerprint is not anchored")
	case errors.Is(err, domain.ErrAnchorConflict):
		writeFailure(c, http.StatusConflict, "concurrent anchor submission; re-query to confirm")
	case errors.Is(err, domain.ErrLedgerTimeout):
		writeFailure(c, http.StatusGatewayTimeout, "ledger confirmation timed out; outcome unknown, verify to confirm")
	case errors.Is(err, domain.ErrLedgerUnavailable):
		writeFailure(c, http.StatusBadGateway, "ledger unavailable")
	case errors.Is(err, domain.ErrLedgerRejected):
		writeFailure(c, http.StatusBadGateway, "ledger rejected the transaction")
	default:
		log.Printf("unexpected error: %v", err)
		writeFailure(c, http.StatusInternalServerError, "internal error")
	}
}
