package badger

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// CacheStorage implements the fingerprint cache over Badger. Storage-layer
// failures never reach the caller: a failed lookup is a miss and a failed
// store is dropped, so the pipeline degrades to reprocessing instead of
// crashing when cache storage is unavailable.
type CacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCacheStorage creates a new CacheStorage instance
func NewCacheStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CacheStorage {
	return &CacheStorage{
		db:     db,
		logger: logger,
	}
}

// Lookup returns the cached result for the fingerprint, or (nil, false)
func (s *CacheStorage) Lookup(ctx context.Context, fingerprint string) (*models.ProcessingResult, bool) {
	var entry models.CacheEntry
	err := s.db.Store().Get(fingerprint, &entry)
	if err == badgerhold.ErrNotFound {
		return nil, false
	}
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("fingerprint", fingerprint).
			Msg("Cache lookup failed, treating as miss")
		return nil, false
	}

	return &entry.Result, true
}

// Store records a result under the fingerprint, best-effort
func (s *CacheStorage) Store(ctx context.Context, fingerprint string, result models.ProcessingResult) {
	entry := models.CacheEntry{
		Fingerprint: fingerprint,
		Result:      result,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.db.Store().Upsert(fingerprint, &entry); err != nil {
		s.logger.Warn().
			Err(err).
			Str("fingerprint", fingerprint).
			Str("file", result.Document.Path).
			Msg("Cache store failed, result will be recomputed next pass")
	}
}
