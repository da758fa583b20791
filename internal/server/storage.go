package server

import (
	"fmt"

	"github.com/jglee22/OpenHorizons-sub001/internal/config"
	"github.com/jglee22/OpenHorizons-sub001/internal/database"
	"github.com/jglee22/OpenHorizons-sub001/internal/database/boltstore"
	"github.com/jglee22/OpenHorizons-sub001/internal/logger"
	"github.com/jglee22/OpenHorizons-sub001/internal/quest"
	"github.com/jglee22/OpenHorizons-sub001/internal/reward"
)

// Storage is the opened save store and, for SQL drivers, the reward ledger.
type Storage struct {
	Driver string
	Store  quest.Store

	ledger *database.Database
	close  func() error
}

// OpenStorage opens the backend named by cfg.Driver.
func OpenStorage(cfg config.StorageConfig) (*Storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite, config.DriverPostgres:
		db, err := database.OpenWithConfig(cfg.DatabaseConfig())
		if err != nil {
			return nil, err
		}
		logger.Info("Storage opened", "driver", cfg.Driver)
		return &Storage{Driver: cfg.Driver, Store: db, ledger: db, close: db.Close}, nil

	case config.DriverBolt:
		store, err := boltstore.Open(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		logger.Info("Storage opened", "driver", cfg.Driver, "path", cfg.BoltPath)
		return &Storage{Driver: cfg.Driver, Store: store, close: store.Close}, nil

	case config.DriverMemory:
		logger.Warning("Using in-memory storage; quest progress is lost on shutdown")
		return &Storage{Driver: cfg.Driver, Store: quest.NewMemoryStore()}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Ledger returns the SQL database holding reward grants, if any.
func (s *Storage) Ledger() (*database.Database, bool) {
	return s.ledger, s.ledger != nil
}

// Grantor returns where quest rewards are delivered.
func (s *Storage) Grantor() reward.Grantor {
	if s.ledger != nil {
		return NewLedgerAdapter(s.ledger)
	}
	return auditGrantor()
}

// LoaderOptions returns content loader options wired to this storage.
func (s *Storage) LoaderOptions() quest.LoaderOptions {
	providers := map[string]quest.InitialSuccess{}
	if s.ledger != nil {
		providers[GrantedItemsProvider] = NewLedgerAdapter(s.ledger).GrantedItems()
	} else {
		providers[GrantedItemsProvider] = quest.ConstantInitialSuccess(0)
	}
	return quest.LoaderOptions{
		Rewards:        reward.Factory(s.Grantor()),
		InitialSuccess: providers,
	}
}

// Close closes the backend.
func (s *Storage) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
