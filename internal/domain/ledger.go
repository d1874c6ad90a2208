package domain

import (
	"context"
	"time"
)

type LedgerOp string

const (
	LedgerOpAnchor LedgerOp = "anchor"
	LedgerOpRevoke LedgerOp = "revoke"
)

// AnchorRecord is the ledger's view of a fingerprint. The ledger owns it;
// callers must not cache it beyond a single request.
type AnchorRecord struct {
	Fingerprint Fingerprint
	Exists      bool
	AnchoredAt  time.Time
	Revoked     bool
}

// TxHandle identifies a submitted ledger transaction whose confirmation
// is still pending.
type TxHandle struct {
	TxID        string
	Op          LedgerOp
	Fingerprint Fingerprint
	SubmittedAt time.Time
}

type ConfirmationReceipt struct {
	TxID        string
	BlockNumber int64
	ConfirmedAt time.Time
}

// LedgerClient wraps the external append-only ledger. Submit is the only
// state-mutating call; Query must be side-effect free.
type LedgerClient interface {
	Submit(ctx context.Context, op LedgerOp, fp Fingerprint) (TxHandle, error)
	// AwaitConfirmation blocks until the ledger reports the transaction
	// final. On ErrLedgerTimeout the transaction may still confirm later;
	// a subsequent Query is the authoritative way to resolve the ambiguity.
	AwaitConfirmation(ctx context.Context, handle TxHandle) (ConfirmationReceipt, error)
	Query(ctx context.Context, fp Fingerprint) (AnchorRecord, error)
}
