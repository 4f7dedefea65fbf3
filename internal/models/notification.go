package models

import (
	"time"
)

// Subscriber is a chat endpoint registered for notifications. The registry
// has set semantics: adding an existing subscriber is a no-op.
type Subscriber struct {
	ChatID  string    `json:"chat_id" badgerhold:"key"`
	AddedAt time.Time `json:"added_at"`
}

// NotificationRecord is the ledger entry for one delivered artifact.
// For a given artifact identity, fan-out is attempted at most once
// system-wide; the record is written after fan-out was attempted for all
// subscribers, not only on full success.
type NotificationRecord struct {
	ArtifactID  string    `json:"artifact_id"`
	Quarter     string    `json:"quarter"`
	DeliveredAt time.Time `json:"delivered_at"`
	Attempted   int       `json:"attempted"`
	Failed      int       `json:"failed"`
}
