package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ledgerKey is the single record key for the notification ledger. The
// ledger tracks only the last delivered artifact identity.
const ledgerKey = "notification_ledger"

// LedgerStorage implements the at-most-once notification ledger
type LedgerStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewLedgerStorage creates a new LedgerStorage instance
func NewLedgerStorage(db *BadgerDB, logger arbor.ILogger) interfaces.LedgerStorage {
	return &LedgerStorage{
		db:     db,
		logger: logger,
	}
}

// LastDelivered returns the most recent ledger record
func (s *LedgerStorage) LastDelivered(ctx context.Context) (*models.NotificationRecord, error) {
	var record models.NotificationRecord
	err := s.db.Store().Get(ledgerKey, &record)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read notification ledger: %w", err)
	}
	return &record, nil
}

// Record replaces the ledger with the given delivery record
func (s *LedgerStorage) Record(ctx context.Context, record *models.NotificationRecord) error {
	if err := s.db.Store().Upsert(ledgerKey, record); err != nil {
		return fmt.Errorf("failed to write notification ledger: %w", err)
	}

	s.logger.Debug().
		Str("artifact_id", record.ArtifactID).
		Int("attempted", record.Attempted).
		Int("failed", record.Failed).
		Msg("Notification ledger updated")

	return nil
}
