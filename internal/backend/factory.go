package backend

import (
	"fmt"

	"abone/internal/log"
	"abone/internal/storage"
	"abone/internal/store/memory"
)

// New builds the configured backend. The memory backend needs no cleanup;
// the SQLite backend returns one that closes the database.
func New(cfg Config, logger *log.Logger) (*Result, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	switch cfg.Type {
	case SQLite:
		repo, err := storage.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil
	default:
		logger.Info("initialized memory backend")
		return &Result{Store: memory.New()}, nil
	}
}
