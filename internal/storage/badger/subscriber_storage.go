package badger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SubscriberStorage implements the deduplicated subscriber registry.
// Chat IDs are the record keys, which gives set semantics for free.
type SubscriberStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSubscriberStorage creates a new SubscriberStorage instance
func NewSubscriberStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SubscriberStorage {
	return &SubscriberStorage{
		db:     db,
		logger: logger,
	}
}

// Add registers a subscriber. Re-adding an existing subscriber is a no-op.
func (s *SubscriberStorage) Add(ctx context.Context, chatID string) error {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return fmt.Errorf("chat ID cannot be empty")
	}

	subscriber := models.Subscriber{
		ChatID:  chatID,
		AddedAt: time.Now().UTC(),
	}

	err := s.db.Store().Insert(chatID, &subscriber)
	if err == badgerhold.ErrKeyExists {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to add subscriber: %w", err)
	}

	s.logger.Info().Str("chat_id", chatID).Msg("Subscriber registered")
	return nil
}

// Remove unregisters a subscriber. Removing an absent subscriber is a no-op.
func (s *SubscriberStorage) Remove(ctx context.Context, chatID string) error {
	err := s.db.Store().Delete(strings.TrimSpace(chatID), &models.Subscriber{})
	if err == badgerhold.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to remove subscriber: %w", err)
	}

	s.logger.Info().Str("chat_id", chatID).Msg("Subscriber removed")
	return nil
}

// List returns all subscribers ordered by registration time
func (s *SubscriberStorage) List(ctx context.Context) ([]models.Subscriber, error) {
	var subscribers []models.Subscriber
	err := s.db.Store().Find(&subscribers, badgerhold.Where("ChatID").Ne("").SortBy("AddedAt"))
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	return subscribers, nil
}
