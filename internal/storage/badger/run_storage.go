package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// RunStorage implements the RunStorage interface for Badger. Runs are
// append-only; a run record is never rewritten after insertion.
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

// Append persists a completed run record
func (s *RunStorage) Append(ctx context.Context, run *models.QuarterRun) error {
	if run.ID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}

	if err := s.db.Store().Insert(run.ID, run); err != nil {
		return fmt.Errorf("failed to append run %s: %w", run.ID, err)
	}

	s.logger.Debug().
		Str("run_id", run.ID).
		Str("quarter", run.Quarter.String()).
		Str("status", string(run.Status)).
		Msg("Quarter run persisted")

	return nil
}

// GetLatest returns the most recently generated run
func (s *RunStorage) GetLatest(ctx context.Context) (*models.QuarterRun, error) {
	var runs []models.QuarterRun
	err := s.db.Store().Find(&runs, badgerhold.Where("ID").Ne("").SortBy("GeneratedAt").Reverse().Limit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	if len(runs) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &runs[0], nil
}

// GetByQuarter returns the most recent run for the given quarter
func (s *RunStorage) GetByQuarter(ctx context.Context, quarter models.QuarterLabel) (*models.QuarterRun, error) {
	var runs []models.QuarterRun
	err := s.db.Store().Find(&runs, badgerhold.Where("Quarter").Eq(quarter).SortBy("GeneratedAt").Reverse().Limit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to query runs for quarter %s: %w", quarter, err)
	}
	if len(runs) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &runs[0], nil
}

// List returns up to limit runs, newest first
func (s *RunStorage) List(ctx context.Context, limit int) ([]models.QuarterRun, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("GeneratedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []models.QuarterRun
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}
