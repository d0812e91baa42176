package cli

import (
	"fmt"
	"path/filepath"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
	"github.com/Makepad-fr/tada/internal/store/sqlstore"
)

const defaultSQLiteFile = "tada.db"

// OpenBackend opens the storage named by cfg.Backend.
func OpenBackend(cfg *config.Config) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewMemory(), nil
	case config.BackendFile:
		path := cfg.Path
		if path == "" {
			p, err := jsonstore.DefaultPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		return jsonstore.New(path), nil
	case config.BackendSQLite:
		path := cfg.Path
		if path == "" {
			path = defaultSQLiteFile
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("sqlite path: %w", err)
		}
		return sqlstore.OpenSQLite(abs)
	case config.BackendMySQL:
		return sqlstore.OpenMySQL(cfg.DSN)
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
