package domain

import "encoding/hex"

// FingerprintSize is the width of a content fingerprint in bytes.
const FingerprintSize = 32

// Fingerprint is the fixed-width content identifier the ledger keys on.
// Identical content always produces the identical fingerprint.
type Fingerprint [FingerprintSize]byte

func (f Fingerprint) Hex() string {
	return hex.EncodeToString(f[:])
}

func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

func ParseFingerprint(s string) (Fingerprint, error) {
	var f Fingerprint
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != FingerprintSize {
		return Fingerprint{}, ErrInvalidInput
	}
	copy(f[:], raw)
	return f, nil
}
