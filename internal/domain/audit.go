package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"
)

const AuditChainVersion = "veritrust_audit_v1"

// ZeroAuditHash seeds the chain link of the first audit entry.
const ZeroAuditHash = "0000000000000000000000000000000000000000000000000000000000000000"

type AuditAction string

const (
	AuditActionAnchorCreated    AuditAction = "ANCHOR_CREATED"
	AuditActionAnchorRevoked    AuditAction = "ANCHOR_REVOKED"
	AuditActionAuditViewed      AuditAction = "AUDIT_VIEWED"
	AuditActionAdminRouteAccess AuditAction = "ADMIN_ROUTE_ACCESS"
)

type AuditResourceType string

const (
	AuditResourceAnchor     AuditResourceType = "anchor"
	AuditResourceAuditLog   AuditResourceType = "audit_log"
	AuditResourceAdminRoute AuditResourceType = "admin_route"
)

// AuditEntry is one immutable record of a privileged action. Entries are
// hash-chained: EntryHash covers the entry plus PrevEntryHash, so any
// mutation, gap, or reorder is detectable after the fact.
type AuditEntry struct {
	ID            string
	Seq           int64
	ActorID       string
	ActorRole     Role
	Action        AuditAction
	ResourceType  AuditResourceType
	ResourceID    string
	OriginAddress string
	PrevEntryHash string
	EntryHash     string
	CreatedAt     time.Time
}

type auditChainEnvelope struct {
	Version       string `json:"v"`
	Seq           int64  `json:"seq"`
	ActorID       string `json:"actor_id"`
	ActorRole     string `json:"actor_role"`
	Action        string `json:"action"`
	ResourceType  string `json:"resource_type"`
	ResourceID    string `json:"resource_id,omitempty"`
	OriginAddress string `json:"origin_address,omitempty"`
	PrevEntryHash string `json:"prev_entry_hash"`
	CreatedAt     string `json:"created_at"`
}

// ComputeAuditEntryHash derives the chain hash for an entry. Both the
// writer (db repository) and the chain verifier use this, so the two can
// never drift apart.
func ComputeAuditEntryHash(entry AuditEntry) (string, error) {
	if entry.Action == "" || entry.ActorID == "" {
		return "", errors.New("audit entry missing action or actor_id")
	}
	if entry.PrevEntryHash == "" {
		return "", errors.New("audit entry missing prev_entry_hash")
	}
	if entry.CreatedAt.IsZero() {
		return "", errors.New("audit entry missing created_at")
	}
	envelope := auditChainEnvelope{
		Version:       AuditChainVersion,
		Seq:           entry.Seq,
		ActorID:       entry.ActorID,
		ActorRole:     string(entry.ActorRole),
		Action:        string(entry.Action),
		ResourceType:  string(entry.ResourceType),
		ResourceID:    entry.ResourceID,
		OriginAddress: entry.OriginAddress,
		PrevEntryHash: entry.PrevEntryHash,
		CreatedAt:     entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	encoded, err := json.Marshal(envelope)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
