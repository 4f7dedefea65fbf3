package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/vigil/internal/models"
)

// KeyValuePair represents a stored key/value entry
type KeyValuePair struct {
	Key         string    `json:"key" badgerhold:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KeyValueStorage holds small persisted scalars, such as the last detected
// quarter marker. Keys are case-insensitive.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, description string) error
	Delete(ctx context.Context, key string) error
}

// RunStorage is the append-only archive of pipeline runs, keyed by
// quarter + generation timestamp.
type RunStorage interface {
	// Append persists a completed run. Writes are crash-atomic.
	Append(ctx context.Context, run *models.QuarterRun) error

	// GetLatest returns the most recently generated run, or ErrNotFound.
	GetLatest(ctx context.Context) (*models.QuarterRun, error)

	// GetByQuarter returns the most recent run for the quarter, or ErrNotFound.
	GetByQuarter(ctx context.Context, quarter models.QuarterLabel) (*models.QuarterRun, error)

	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]models.QuarterRun, error)
}

// CacheStorage is the fingerprint cache backing store. Implementations
// must not surface I/O failures to callers; a failed lookup behaves as a
// miss and a failed store is dropped, so the pipeline degrades to
// "always reprocess" rather than crashing.
type CacheStorage interface {
	// Lookup returns the cached result for the fingerprint, or (nil, false).
	Lookup(ctx context.Context, fingerprint string) (*models.ProcessingResult, bool)

	// Store records a result under the fingerprint. Best-effort.
	Store(ctx context.Context, fingerprint string, result models.ProcessingResult)
}

// SubscriberStorage is the deduplicated notification registry.
type SubscriberStorage interface {
	// Add registers a subscriber. No-op if already present.
	Add(ctx context.Context, chatID string) error

	// Remove unregisters a subscriber. No-op if absent.
	Remove(ctx context.Context, chatID string) error

	// List returns all subscribers.
	List(ctx context.Context) ([]models.Subscriber, error)
}

// LedgerStorage tracks the last delivered artifact for at-most-once fan-out.
type LedgerStorage interface {
	// LastDelivered returns the most recent ledger record, or ErrNotFound
	// when nothing has been delivered yet.
	LastDelivered(ctx context.Context) (*models.NotificationRecord, error)

	// Record replaces the ledger with the given delivery record.
	Record(ctx context.Context, record *models.NotificationRecord) error
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	KeyValueStorage() KeyValueStorage
	RunStorage() RunStorage
	CacheStorage() CacheStorage
	SubscriberStorage() SubscriberStorage
	LedgerStorage() LedgerStorage
	Close() error
}
