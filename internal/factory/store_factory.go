package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/adapters/store"
	"github.com/mvidal/phishguard/internal/config"
	"github.com/mvidal/phishguard/internal/core"
)

// StoreFactory creates document stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateDocumentStore creates a document store based on the configuration
func (f *StoreFactory) CreateDocumentStore() (core.DocumentStore, error) {
	storeType := f.cfg.GetString("store.type")

	switch storeType {
	case "memory":
		return store.NewMemoryStore(f.logger), nil
	case "sqlite":
		sqlitePath := f.cfg.GetString("store.sqlite_path")
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return store.NewSQLiteStore(sqlitePath, f.logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
