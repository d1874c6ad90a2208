package crypto

import (
	"crypto/sha256"

	"veritrust/internal/domain"
)

// ComputeFingerprint derives the fixed-width content identifier for a
// document. Pure and deterministic: the same bytes always map to the
// same fingerprint.
func ComputeFingerprint(content []byte) (domain.Fingerprint, error) {
	if len(content) == 0 {
		return domain.Fingerprint{}, domain.ErrInvalidInput
	}
	return domain.Fingerprint(sha256.Sum256(content)), nil
}

func ComputeFingerprintString(content string) (domain.Fingerprint, error) {
	return ComputeFingerprint([]byte(content))
}
