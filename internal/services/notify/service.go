package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// Service fans a persisted run out to the subscriber registry. Delivery
// is at most once per artifact identity: the ledger is consulted before
// any send and written after fan-out was attempted for every subscriber,
// so a partially failed fan-out is never replayed.
type Service struct {
	messenger   interfaces.Messenger
	subscribers interfaces.SubscriberStorage
	ledger      interfaces.LedgerStorage
	config      *common.TelegramConfig
	logger      arbor.ILogger
}

func NewService(messenger interfaces.Messenger, subscribers interfaces.SubscriberStorage, ledger interfaces.LedgerStorage, config *common.TelegramConfig, logger arbor.ILogger) *Service {
	return &Service{
		messenger:   messenger,
		subscribers: subscribers,
		ledger:      ledger,
		config:      config,
		logger:      logger,
	}
}

// MaybeNotify delivers the run's consolidated summary unless this
// artifact was already handled. Returns the number of subscribers
// reached.
func (s *Service) MaybeNotify(ctx context.Context, run *models.QuarterRun) (int, error) {
	if !s.config.Enabled {
		return 0, nil
	}
	if run.Consolidated == "" {
		s.logger.Info().
			Str("quarter", string(run.Quarter)).
			Msg("Run has no consolidated output, nothing to notify")
		return 0, nil
	}

	artifactID := run.ArtifactID()

	last, err := s.ledger.LastDelivered(ctx)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return 0, fmt.Errorf("failed to read notification ledger: %w", err)
	}
	if last != nil && last.ArtifactID == artifactID {
		s.logger.Info().
			Str("artifact", artifactID).
			Msg("Artifact already delivered, skipping notification")
		return 0, nil
	}

	subscribers, err := s.subscribers.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list subscribers: %w", err)
	}
	if len(subscribers) == 0 {
		s.logger.Warn().
			Str("quarter", string(run.Quarter)).
			Msg("No subscribers registered, notification dropped")
	}

	delivered := 0
	failed := 0
	for _, subscriber := range subscribers {
		if err := s.deliver(ctx, subscriber.ChatID, run); err != nil {
			failed++
			s.logger.Error().
				Err(err).
				Str("chat_id", subscriber.ChatID).
				Str("quarter", string(run.Quarter)).
				Msg("Notification delivery failed for subscriber")
			continue
		}
		delivered++
	}

	// Written after fan-out regardless of per-subscriber outcomes
	record := &models.NotificationRecord{
		ArtifactID:  artifactID,
		Quarter:     string(run.Quarter),
		DeliveredAt: run.GeneratedAt,
		Attempted:   len(subscribers),
		Failed:      failed,
	}
	if err := s.ledger.Record(ctx, record); err != nil {
		return delivered, fmt.Errorf("failed to update notification ledger: %w", err)
	}

	s.logger.Info().
		Str("quarter", string(run.Quarter)).
		Str("artifact", artifactID).
		Int("delivered", delivered).
		Int("failed", failed).
		Msg("Notification fan-out completed")

	return delivered, nil
}

// deliver sends the chunked summary and the run's artifacts to one chat
func (s *Service) deliver(ctx context.Context, chatID string, run *models.QuarterRun) error {
	message := fmt.Sprintf("📊 Resultados %s publicados\n\n%s", run.Quarter, run.Consolidated)

	for _, chunk := range ChunkText(message, s.config.MessageLimit) {
		if err := s.messenger.SendMessage(ctx, chatID, chunk); err != nil {
			return err
		}
	}

	if run.ReportPath != "" {
		if err := s.sendAttachment(ctx, chatID, run.ReportPath,
			fmt.Sprintf("Relatório %s", run.Quarter)); err != nil {
			s.logger.Warn().
				Err(err).
				Str("chat_id", chatID).
				Str("file", run.ReportPath).
				Msg("Report attachment not delivered")
		}
	}
	if run.PackagePath != "" {
		if err := s.sendAttachment(ctx, chatID, run.PackagePath,
			fmt.Sprintf("Documentos %s", run.Quarter)); err != nil {
			s.logger.Warn().
				Err(err).
				Str("chat_id", chatID).
				Str("file", run.PackagePath).
				Msg("Package attachment not delivered")
		}
	}

	return nil
}

func (s *Service) sendAttachment(ctx context.Context, chatID, path, caption string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read attachment %s: %w", path, err)
	}
	return s.messenger.SendDocument(ctx, chatID, filepath.Base(path), content, caption)
}
