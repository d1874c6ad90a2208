package db

import "time"

type AuditEntryModel struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	Seq           int64     `gorm:"uniqueIndex;not null"`
	ActorID       string    `gorm:"index;not null"`
	ActorRole     string    `gorm:"not null"`
	Action        string    `gorm:"index;not null"`
	ResourceType  string    `gorm:"not null"`
	ResourceID    *string   `gorm:"index"`
	OriginAddress *string
	PrevEntryHash string    `gorm:"not null"`
	EntryHash     string    `gorm:"uniqueIndex;not null"`
	CreatedAt     time.Time `gorm:"index;not null"`
}

func (AuditEntryModel) TableName() string {
	return "audit_entries"
}
