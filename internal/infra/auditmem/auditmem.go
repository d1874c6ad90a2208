// Package auditmem is an in-memory audit store used in no-db mode and
// in tests. It applies the same hash-chain rules as the postgres
// repository, so chain verification behaves identically against both.
package auditmem

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"

	"veritrust/internal/domain"
)

type Store struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.AuditEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		id, err := newID()
		if err != nil {
			return domain.AuditEntry{}, err
		}
		entry.ID = id
	}
	entry.Seq = int64(len(s.entries)) + 1
	entry.PrevEntryHash = domain.ZeroAuditHash
	if n := len(s.entries); n > 0 {
		entry.PrevEntryHash = s.entries[n-1].EntryHash
	}
	hash, err := domain.ComputeAuditEntryHash(entry)
	if err != nil {
		return domain.AuditEntry{}, err
	}
	entry.EntryHash = hash
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]domain.AuditEntry, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

func (s *Store) ListChain(ctx context.Context) ([]domain.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func newID() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	raw[6] = (raw[6] & 0x0f) | 0x40
	raw[8] = (raw[8] & 0x3f) | 0x80
	s := hex.EncodeToString(raw)
	return s[0:8] + "-" + s[8:12] + "-" + s[12:16] + "-" + s[16:20] + "-" + s[20:32], nil
}
