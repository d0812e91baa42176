// Package sqlstore provides SQL-backed implementations of store.Backend.
//
// Both dialects keep every key in one table:
//
//	kv(name PRIMARY KEY, value TEXT)
//
// The table is created on open. SQLite uses the pure Go driver so no CGO
// toolchain is needed.
package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/Makepad-fr/tada/internal/store"
)

type dialect struct {
	driver string
	schema string
	upsert string
}

var (
	sqliteDialect = dialect{
		driver: "sqlite",
		schema: `CREATE TABLE IF NOT EXISTS kv (
    name  TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`,
		upsert: `INSERT INTO kv (name, value) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
	}

	mysqlDialect = dialect{
		driver: "mysql",
		schema: `CREATE TABLE IF NOT EXISTS kv (
    name  VARCHAR(191) PRIMARY KEY,
    value MEDIUMTEXT NOT NULL
)`,
		upsert: `INSERT INTO kv (name, value) VALUES (?, ?)
ON DUPLICATE KEY UPDATE value = VALUES(value)`,
	}
)

// Store implements store.Backend on top of database/sql.
type Store struct {
	db      *sql.DB
	dialect dialect
}

var _ store.Backend = (*Store)(nil)

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return open(sqliteDialect, path)
}

// OpenMySQL connects to the database named in dsn, for example
// "user:pass@tcp(127.0.0.1:3306)/tada".
func OpenMySQL(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("mysql: empty dsn")
	}
	return open(mysqlDialect, dsn)
}

func open(d dialect, dsn string) (*Store, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if _, err := db.Exec(d.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}
	return &Store{db: db, dialect: d}, nil
}

func (s *Store) Get(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM kv WHERE name = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(key, value string) error {
	if _, err := s.db.Exec(s.dialect.upsert, key, value); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
