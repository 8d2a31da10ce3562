package database

import (
	"fmt"
	"os"
	"path/filepath"

	"realvora-go/internal/config"
	"realvora-go/internal/ledger"
)

// NewDatabaseFromConfig opens the ledger store selected by cfg.Type.
// A sqlite store lives at <data_dir>/<chainID>.db.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, chainID string, clock ledger.Clock) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		return NewSQLiteDatabase(filepath.Join(cfg.DataDir, chainID+".db"), clock)
	case "memory":
		return NewSQLiteDatabase(":memory:", clock)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
