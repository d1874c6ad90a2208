package usecase

import (
	"context"
	"errors"
	"fmt"

	"veritrust/internal/domain"
)

// VerifyAuditChain walks the whole trail oldest-first and recomputes
// every chain link. It detects mutation, reordering, and gaps; an empty
// trail is trivially valid.
func VerifyAuditChain(ctx context.Context, repo AuditRepository) error {
	if repo == nil {
		return errors.New("audit repository required")
	}
	entries, err := repo.ListChain(ctx)
	if err != nil {
		return err
	}

	expectedSeq := int64(1)
	prevHash := domain.ZeroAuditHash
	for _, entry := range entries {
		if entry.Seq != expectedSeq {
			return fmt.Errorf("audit chain seq mismatch: expected %d got %d", expectedSeq, entry.Seq)
		}
		if entry.PrevEntryHash != prevHash {
			return fmt.Errorf("audit chain prev hash mismatch at seq %d", entry.Seq)
		}
		expectedHash, err := domain.ComputeAuditEntryHash(entry)
		if err != nil {
			return fmt.Errorf("audit chain hash compute failed at seq %d: %w", entry.Seq, err)
		}
		if expectedHash != entry.EntryHash {
			return fmt.Errorf("audit chain hash mismatch at seq %d", entry.Seq)
		}
		prevHash = entry.EntryHash
		expectedSeq++
	}
	return nil
}
