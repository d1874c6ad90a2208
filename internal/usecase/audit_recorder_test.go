package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"veritrust/internal/domain"
	"veritrust/internal/infra/auditmem"
)

type failingAuditRepo struct{}

func (failingAuditRepo) Append(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error) {
	return domain.AuditEntry{}, errors.New("store unavailable")
}

func (failingAuditRepo) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	return nil, errors.New("store unavailable")
}

func (failingAuditRepo) ListChain(ctx context.Context) ([]domain.AuditEntry, error) {
	return nil, errors.New("store unavailable")
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func adminEntry(action domain.AuditAction) domain.AuditEntry {
	return domain.AuditEntry{
		ActorID:       "actor-1",
		ActorRole:     domain.RoleAdmin,
		Action:        action,
		ResourceType:  domain.AuditResourceAdminRoute,
		OriginAddress: "203.0.113.9",
	}
}

func TestRecord_AssignsServerTimestamp(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	recorder := NewAuditRecorder(auditmem.New(), fixedClock(now))

	entry := adminEntry(domain.AuditActionAdminRouteAccess)
	entry.CreatedAt = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	out, err := recorder.Record(context.Background(), entry)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !out.CreatedAt.Equal(now) {
		t.Fatalf("caller-supplied timestamp must be overridden, got %v", out.CreatedAt)
	}
	if out.Seq != 1 || out.EntryHash == "" {
		t.Fatalf("unexpected appended entry: %+v", out)
	}
}

func TestRecord_MissingFields(t *testing.T) {
	recorder := NewAuditRecorder(auditmem.New(), nil)
	entry := adminEntry(domain.AuditActionAdminRouteAccess)
	entry.ActorID = ""
	if _, err := recorder.Record(context.Background(), entry); err == nil {
		t.Fatal("expected error for missing actor id")
	}
	entry = adminEntry(domain.AuditActionAdminRouteAccess)
	entry.ActorRole = "superuser"
	if _, err := recorder.Record(context.Background(), entry); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestRecord_StoreFailureSurfacesAsAuditWrite(t *testing.T) {
	recorder := NewAuditRecorder(failingAuditRepo{}, nil)
	_, err := recorder.Record(context.Background(), adminEntry(domain.AuditActionAnchorCreated))
	if !errors.Is(err, domain.ErrAuditWrite) {
		t.Fatalf("expected ErrAuditWrite, got %v", err)
	}
}

func TestList_RequiresAdmin(t *testing.T) {
	recorder := NewAuditRecorder(auditmem.New(), nil)
	for _, role := range []domain.Role{domain.RoleUser, domain.RoleIssuer, ""} {
		if _, err := recorder.List(context.Background(), 10, role); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("role %q: expected ErrForbidden, got %v", role, err)
		}
	}
}

func TestList_ReverseChronological(t *testing.T) {
	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	recorder := NewAuditRecorder(auditmem.New(), func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})

	actions := []domain.AuditAction{
		domain.AuditActionAnchorCreated,
		domain.AuditActionAnchorRevoked,
		domain.AuditActionAdminRouteAccess,
	}
	for _, action := range actions {
		if _, err := recorder.Record(context.Background(), adminEntry(action)); err != nil {
			t.Fatalf("record %s: %v", action, err)
		}
	}

	entries, err := recorder.List(context.Background(), 10, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
			t.Fatal("entries not in reverse chronological order")
		}
	}
	if entries[0].Action != domain.AuditActionAdminRouteAccess {
		t.Fatalf("newest entry first, got %s", entries[0].Action)
	}

	limited, err := recorder.List(context.Background(), 1, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("list limit=1: %v", err)
	}
	if len(limited) != 1 || limited[0].Action != domain.AuditActionAdminRouteAccess {
		t.Fatalf("limit=1 must return exactly the newest entry, got %+v", limited)
	}
}

func TestVerifyAuditChain_OK(t *testing.T) {
	store := auditmem.New()
	recorder := NewAuditRecorder(store, nil)
	for i := 0; i < 3; i++ {
		if _, err := recorder.Record(context.Background(), adminEntry(domain.AuditActionAnchorCreated)); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	if err := VerifyAuditChain(context.Background(), store); err != nil {
		t.Fatalf("verify chain: %v", err)
	}
}

func TestVerifyAuditChain_DetectsTampering(t *testing.T) {
	store := auditmem.New()
	recorder := NewAuditRecorder(store, nil)
	for i := 0; i < 2; i++ {
		if _, err := recorder.Record(context.Background(), adminEntry(domain.AuditActionAnchorCreated)); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	entries, err := store.ListChain(context.Background())
	if err != nil {
		t.Fatalf("list chain: %v", err)
	}

	tampered := tamperedRepo{entries: append([]domain.AuditEntry(nil), entries...)}
	tampered.entries[0].ActorID = "someone-else"
	if err := VerifyAuditChain(context.Background(), tampered); err == nil {
		t.Fatal("expected chain verification to fail on mutated entry")
	}

	reordered := tamperedRepo{entries: []domain.AuditEntry{entries[1], entries[0]}}
	if err := VerifyAuditChain(context.Background(), reordered); err == nil {
		t.Fatal("expected chain verification to fail on reorder")
	}

	gapped := tamperedRepo{entries: []domain.AuditEntry{entries[1]}}
	if err := VerifyAuditChain(context.Background(), gapped); err == nil {
		t.Fatal("expected chain verification to fail on seq gap")
	}
}

type tamperedRepo struct {
	entries []domain.AuditEntry
}

func (r tamperedRepo) Append(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error) {
	return entry, nil
}

func (r tamperedRepo) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	return r.entries, nil
}

func (r tamperedRepo) ListChain(ctx context.Context) ([]domain.AuditEntry, error) {
	return r.entries, nil
}
