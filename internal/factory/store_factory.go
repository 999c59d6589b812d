package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jobtrack/mailscan/internal/adapters/store"
	"github.com/jobtrack/mailscan/internal/config"
	"github.com/jobtrack/mailscan/internal/core"
)

// StoreFactory creates application stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{cfg: cfg, logger: logger}
}

// CreateStore creates an application store based on the configuration
func (f *StoreFactory) CreateStore() (core.ApplicationStore, error) {
	storeCfg := f.cfg.GetStore()

	switch storeCfg.Backend {
	case "sqlite":
		return store.NewSQLiteStore(storeCfg.SQLitePath, f.logger)
	case "mysql":
		return store.NewMySQLStore(storeCfg.MySQLDSN, f.logger)
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", storeCfg.Backend)
	}
}
