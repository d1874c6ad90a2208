package crypto

import (
	"testing"

	"veritrust/internal/domain"
)

func TestComputeFingerprint_Deterministic(t *testing.T) {
	first, err := ComputeFingerprint([]byte("contract-v1"))
	if err != nil {
		t.Fatalf("compute fingerprint: %v", err)
	}
	second, err := ComputeFingerprint([]byte("contract-v1"))
	if err != nil {
		t.Fatalf("compute fingerprint again: %v", err)
	}
	if first != second {
		t.Fatalf("fingerprints differ for identical content: %s vs %s", first.Hex(), second.Hex())
	}
}

func TestComputeFingerprint_DistinctInputs(t *testing.T) {
	corpus := []string{
		"contract-v1",
		"contract-v2",
		"contract-v1 ",
		" contract-v1",
		"Contract-v1",
		"a",
		"b",
		"\x00",
		"\x00\x00",
		"diploma-2026-001",
	}
	seen := make(map[domain.Fingerprint]string, len(corpus))
	for _, content := range corpus {
		fp, err := ComputeFingerprintString(content)
		if err != nil {
			t.Fatalf("compute fingerprint for %q: %v", content, err)
		}
		if prior, ok := seen[fp]; ok {
			t.Fatalf("collision between %q and %q", prior, content)
		}
		seen[fp] = content
	}
}

func TestComputeFingerprint_EmptyInput(t *testing.T) {
	if _, err := ComputeFingerprint(nil); err != domain.ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for nil content, got %v", err)
	}
	if _, err := ComputeFingerprintString(""); err != domain.ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for empty string, got %v", err)
	}
}

func TestFingerprint_HexRoundTrip(t *testing.T) {
	fp, err := ComputeFingerprintString("contract-v1")
	if err != nil {
		t.Fatalf("compute fingerprint: %v", err)
	}
	parsed, err := domain.ParseFingerprint(fp.Hex())
	if err != nil {
		t.Fatalf("parse fingerprint hex: %v", err)
	}
	if parsed != fp {
		t.Fatal("hex round trip changed the fingerprint")
	}
}

func TestParseFingerprint_Invalid(t *testing.T) {
	for _, input := range []string{"", "zz", "abcd", "not-hex-at-all"} {
		if _, err := domain.ParseFingerprint(input); err == nil {
			t.Fatalf("expected parse failure for %q", input)
		}
	}
}
