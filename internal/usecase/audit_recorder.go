package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"veritrust/internal/domain"
)

const (
	DefaultAuditListLimit = 50
	MaxAuditListLimit     = 500
)

// AuditRecorder is the sole writer of the audit trail. Each privileged
// action appends exactly one entry with a server-assigned timestamp.
type AuditRecorder struct {
	Repo  AuditRepository
	Clock Clock
}

func NewAuditRecorder(repo AuditRepository, clock Clock) *AuditRecorder {
	return &AuditRecorder{Repo: repo, Clock: clock}
}

func (r *AuditRecorder) Record(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error) {
	if r == nil || r.Repo == nil {
		return domain.AuditEntry{}, fmt.Errorf("%w: audit repository required", domain.ErrAuditWrite)
	}
	if entry.ActorID == "" || entry.Action == "" || entry.ResourceType == "" {
		return domain.AuditEntry{}, errors.New("audit entry missing required fields")
	}
	if !entry.ActorRole.Valid() {
		return domain.AuditEntry{}, errors.New("audit entry has unknown actor role")
	}
	entry.CreatedAt = r.now().UTC()
	out, err := r.Repo.Append(ctx, entry)
	if err != nil {
		return domain.AuditEntry{}, fmt.Errorf("%w: %v", domain.ErrAuditWrite, err)
	}
	return out, nil
}

// List returns the most recent entries newest-first. Listing is
// admin-only no matter which surface calls it.
func (r *AuditRecorder) List(ctx context.Context, limit int, role domain.Role) ([]domain.AuditEntry, error) {
	if role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	if r == nil || r.Repo == nil {
		return nil, fmt.Errorf("%w: audit repository required", domain.ErrAuditWrite)
	}
	if limit <= 0 {
		limit = DefaultAuditListLimit
	}
	if limit > MaxAuditListLimit {
		limit = MaxAuditListLimit
	}
	return r.Repo.ListRecent(ctx, limit)
}

func (r *AuditRecorder) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}
