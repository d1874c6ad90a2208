package domain

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")

	ErrNotAnchored    = errors.New("fingerprint not anchored")
	ErrAnchorConflict = errors.New("concurrent anchor submission")

	ErrLedgerTimeout     = errors.New("ledger confirmation timed out")
	ErrLedgerRejected    = errors.New("ledger rejected transaction")
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	ErrAuditWrite = errors.New("audit write failed")
)
