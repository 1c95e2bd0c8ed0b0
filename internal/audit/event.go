// Package audit emits tamper-evident migration lifecycle events. Events are
// hash-chained per (source, target) pair and never fail the migration.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	EventMigrated   = "table_migrated"
	EventRolledBack = "migration_rolled_back"
)

// Event is one audit record.
type Event struct {
	Version   string    `json:"version"`
	EventType string    `json:"event_type"`
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`

	SourceTable string `json:"source_table"`
	TargetTable string `json:"target_table"`
	SnapshotID  int64  `json:"snapshot_id,omitempty"`
	Partitions  int    `json:"partitions"`
	Files       int    `json:"files"`
	Error       string `json:"error,omitempty"`

	Chain ChainInfo `json:"chain"`
}

// ChainInfo links events of one migration pair into a hash chain.
type ChainInfo struct {
	PrevEventHash string `json:"prev_event_hash"`
	EventHash     string `json:"event_hash"`
}

// ChainKey returns the chain identity for this event.
func (e *Event) ChainKey() string {
	return e.SourceTable + "->" + e.TargetTable
}

// GenerateEventID creates a unique event id.
func GenerateEventID() string {
	return uuid.NewString()
}

// ComputeEventHash hashes the event with its own EventHash cleared.
func ComputeEventHash(e *Event) string {
	clone := *e
	clone.Chain.EventHash = ""
	data, err := json.Marshal(&clone)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}
