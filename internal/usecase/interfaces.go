package usecase

import (
	"context"
	"time"

	"veritrust/internal/domain"
)

type Clock func() time.Time

// AuditRepository is the append-only durable store behind the recorder.
// Append must be atomic: a partially written entry is never observable.
type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error)
	// ListRecent returns the most recent entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
	// ListChain returns every entry in chain order (seq ascending).
	ListChain(ctx context.Context) ([]domain.AuditEntry, error)
}
