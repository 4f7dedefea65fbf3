package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
)

// Manager wires the per-entity storages over one Badger connection
type Manager struct {
	db          *BadgerDB
	kv          interfaces.KeyValueStorage
	runs        interfaces.RunStorage
	cache       interfaces.CacheStorage
	subscribers interfaces.SubscriberStorage
	ledger      interfaces.LedgerStorage
	logger      arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.StorageManager = (*Manager)(nil)

// NewManager opens the database and constructs all storages
func NewManager(config *common.BadgerConfig, logger arbor.ILogger) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	return &Manager{
		db:          db,
		kv:          NewKVStorage(db, logger),
		runs:        NewRunStorage(db, logger),
		cache:       NewCacheStorage(db, logger),
		subscribers: NewSubscriberStorage(db, logger),
		ledger:      NewLedgerStorage(db, logger),
		logger:      logger,
	}, nil
}

func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

func (m *Manager) RunStorage() interfaces.RunStorage {
	return m.runs
}

func (m *Manager) CacheStorage() interfaces.CacheStorage {
	return m.cache
}

func (m *Manager) SubscriberStorage() interfaces.SubscriberStorage {
	return m.subscribers
}

func (m *Manager) LedgerStorage() interfaces.LedgerStorage {
	return m.ledger
}

// Close closes the underlying database connection
func (m *Manager) Close() error {
	return m.db.Close()
}
