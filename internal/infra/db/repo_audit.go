package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"veritrust/internal/domain"

	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append writes one entry inside a single transaction: allocate the next
// seq under a row lock, link the previous entry's hash, compute this
// entry's hash, insert. Either the whole entry lands or nothing does.
func (r *AuditRepository) Append(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error) {
	if r.db == nil {
		return domain.AuditEntry{}, errDBUnavailable
	}
	if entry.ID == "" {
		id, err := newUUID()
		if err != nil {
			return domain.AuditEntry{}, err
		}
		entry.ID = id
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.CreatedAt = entry.CreatedAt.UTC().Truncate(time.Microsecond)
	if entry.Action == "" || entry.ActorID == "" || entry.ResourceType == "" {
		return domain.AuditEntry{}, errors.New("audit entry missing required fields")
	}

	var out domain.AuditEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, prevHash, err := nextAuditSeq(ctx, tx)
		if err != nil {
			return err
		}
		entry.Seq = seq
		entry.PrevEntryHash = prevHash

		entryHash, err := domain.ComputeAuditEntryHash(entry)
		if err != nil {
			return err
		}
		entry.EntryHash = entryHash

		model := modelFromEntry(entry)
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		out = entry
		return nil
	})
	if err != nil {
		return domain.AuditEntry{}, err
	}
	return out, nil
}

func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	if limit <= 0 {
		limit = 50
	}
	var models []AuditEntryModel
	if err := r.db.WithContext(ctx).
		Order("seq DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AuditEntry, 0, len(models))
	for _, model := range models {
		out = append(out, entryFromModel(model))
	}
	return out, nil
}

func (r *AuditRepository) ListChain(ctx context.Context) ([]domain.AuditEntry, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []AuditEntryModel
	if err := r.db.WithContext(ctx).
		Order("seq ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AuditEntry, 0, len(models))
	for _, model := range models {
		out = append(out, entryFromModel(model))
	}
	return out, nil
}

func nextAuditSeq(ctx context.Context, tx *gorm.DB) (int64, string, error) {
	if err := tx.WithContext(ctx).Exec(
		"INSERT INTO audit_chain_head (id, seq) VALUES (1, 0) ON CONFLICT (id) DO NOTHING",
	).Error; err != nil {
		return 0, "", err
	}

	var currentSeq int64
	if err := tx.WithContext(ctx).Raw(
		"SELECT seq FROM audit_chain_head WHERE id = 1 FOR UPDATE",
	).Scan(&currentSeq).Error; err != nil {
		return 0, "", err
	}
	nextSeq := currentSeq + 1
	if err := tx.WithContext(ctx).Exec(
		"UPDATE audit_chain_head SET seq = ? WHERE id = 1",
		nextSeq,
	).Error; err != nil {
		return 0, "", err
	}

	prevHash := domain.ZeroAuditHash
	if currentSeq > 0 {
		var prev AuditEntryModel
		if err := tx.WithContext(ctx).
			Where("seq = ?", currentSeq).
			Take(&prev).Error; err != nil {
			return 0, "", err
		}
		prevHash = prev.EntryHash
	}
	if prevHash == "" {
		return 0, "", fmt.Errorf("missing previous entry hash at seq %d", currentSeq)
	}
	return nextSeq, prevHash, nil
}

func modelFromEntry(entry domain.AuditEntry) AuditEntryModel {
	return AuditEntryModel{
		ID:            entry.ID,
		Seq:           entry.Seq,
		ActorID:       entry.ActorID,
		ActorRole:     string(entry.ActorRole),
		Action:        string(entry.Action),
		ResourceType:  string(entry.ResourceType),
		ResourceID:    stringPtrIfNotEmpty(entry.ResourceID),
		OriginAddress: stringPtrIfNotEmpty(entry.OriginAddress),
		PrevEntryHash: entry.PrevEntryHash,
		EntryHash:     entry.EntryHash,
		CreatedAt:     entry.CreatedAt.UTC(),
	}
}

func entryFromModel(model AuditEntryModel) domain.AuditEntry {
	return domain.AuditEntry{
		ID:            model.ID,
		Seq:           model.Seq,
		ActorID:       model.ActorID,
		ActorRole:     domain.Role(model.ActorRole),
		Action:        domain.AuditAction(model.Action),
		ResourceType:  domain.AuditResourceType(model.ResourceType),
		ResourceID:    stringValue(model.ResourceID),
		OriginAddress: stringValue(model.OriginAddress),
		PrevEntryHash: model.PrevEntryHash,
		EntryHash:     model.EntryHash,
		CreatedAt:     model.CreatedAt.UTC(),
	}
}
