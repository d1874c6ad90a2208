package usecase

import (
	"context"
	"errors"
	"time"

	"veritrust/internal/domain"
	"veritrust/internal/infra/crypto"
)

// AnchorService drives the Unanchored -> Anchored -> Revoked state
// machine. The ledger is the sole authority on ordering: every path
// queries before submitting, so retries after a timeout never create a
// duplicate transaction for a fingerprint already in its target state.
type AnchorService struct {
	Ledger domain.LedgerClient
}

func NewAnchorService(ledger domain.LedgerClient) *AnchorService {
	return &AnchorService{Ledger: ledger}
}

type AnchorResult struct {
	Record domain.AnchorRecord
	// Idempotent is true when the fingerprint was already anchored and
	// no new ledger transaction was submitted.
	Idempotent bool
	TxID       string
}

type VerificationResult struct {
	Fingerprint domain.Fingerprint
	Exists      bool
	AnchoredAt  time.Time
	Revoked     bool
}

type RevokeResult struct {
	Record     domain.AnchorRecord
	Idempotent bool
	TxID       string
}

// Anchor records the content's fingerprint on the ledger. Anchoring an
// already-anchored (or revoked) fingerprint returns the existing record
// unchanged; revoked is terminal, so no re-anchor is attempted either.
func (s *AnchorService) Anchor(ctx context.Context, content []byte) (AnchorResult, error) {
	fp, err := crypto.ComputeFingerprint(content)
	if err != nil {
		return AnchorResult{}, err
	}
	record, err := s.Ledger.Query(ctx, fp)
	if err != nil {
		return AnchorResult{}, err
	}
	if record.Exists {
		return AnchorResult{Record: record, Idempotent: true}, nil
	}

	txID, err := s.submitAndConfirm(ctx, domain.LedgerOpAnchor, fp)
	if errors.Is(err, domain.ErrAnchorConflict) {
		// Lost the race: the winner's transaction is the state
		// transition. One fresh query resolves it.
		record, qerr := s.Ledger.Query(ctx, fp)
		if qerr == nil && record.Exists {
			return AnchorResult{Record: record, Idempotent: true}, nil
		}
		return AnchorResult{}, err
	}
	if err != nil {
		return AnchorResult{}, err
	}

	record, err = s.Ledger.Query(ctx, fp)
	if err != nil {
		return AnchorResult{}, err
	}
	return AnchorResult{Record: record, TxID: txID}, nil
}

// Verify is a pure read. Content that was never anchored reports
// Exists=false rather than an error.
func (s *AnchorService) Verify(ctx context.Context, content []byte) (VerificationResult, error) {
	fp, err := crypto.ComputeFingerprint(content)
	if err != nil {
		return VerificationResult{}, err
	}
	record, err := s.Ledger.Query(ctx, fp)
	if err != nil {
		return VerificationResult{}, err
	}
	return VerificationResult{
		Fingerprint: fp,
		Exists:      record.Exists,
		AnchoredAt:  record.AnchoredAt,
		Revoked:     record.Revoked,
	}, nil
}

// Revoke marks a previously anchored fingerprint as no longer trusted.
// Revoking an unanchored fingerprint is an error; revoking twice is a
// no-op success.
func (s *AnchorService) Revoke(ctx context.Context, content []byte) (RevokeResult, error) {
	fp, err := crypto.ComputeFingerprint(content)
	if err != nil {
		return RevokeResult{}, err
	}
	record, err := s.Ledger.Query(ctx, fp)
	if err != nil {
		return RevokeResult{}, err
	}
	if !record.Exists {
		return RevokeResult{}, domain.ErrNotAnchored
	}
	if record.Revoked {
		return RevokeResult{Record: record, Idempotent: true}, nil
	}

	txID, err := s.submitAndConfirm(ctx, domain.LedgerOpRevoke, fp)
	if errors.Is(err, domain.ErrAnchorConflict) {
		record, qerr := s.Ledger.Query(ctx, fp)
		if qerr == nil && record.Revoked {
			return RevokeResult{Record: record, Idempotent: true}, nil
		}
		return RevokeResult{}, err
	}
	if err != nil {
		return RevokeResult{}, err
	}

	record, err = s.Ledger.Query(ctx, fp)
	if err != nil {
		return RevokeResult{}, err
	}
	return RevokeResult{Record: record, TxID: txID}, nil
}

func (s *AnchorService) submitAndConfirm(ctx context.Context, op domain.LedgerOp, fp domain.Fingerprint) (string, error) {
	handle, err := s.Ledger.Submit(ctx, op, fp)
	if err != nil {
		return "", err
	}
	if _, err := s.Ledger.AwaitConfirmation(ctx, handle); err != nil {
		return "", err
	}
	return handle.TxID, nil
}
