package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/Makepad-fr/tada/internal/store"
)

// JSON-backed key/value storage. Single file holding one object of string
// values, human-readable and portable. Hand edits may carry comments and
// trailing commas; they are dropped on the next write.
// No locking; fine for a local single-user CLI.

const DataFileName = "todos.json"

// DefaultPath is todos.json in the working directory.
func DefaultPath() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}
	return filepath.Join(wd, DataFileName), nil
}

// Store is a store.Backend persisted to one JSON file.
type Store struct {
	path string
}

var _ store.Backend = (*Store)(nil)

// New returns a Store for path. The file is created on the first Set.
func New(path string) *Store {
	return &Store{path: path}
}

// Path is the file the store reads and writes.
func (s *Store) Path() string { return s.path }

func (s *Store) Get(key string) (string, bool, error) {
	data, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (s *Store) Set(key, value string) error {
	data, err := s.load()
	if err != nil {
		return err
	}
	data[key] = value
	return s.save(data)
}

func (s *Store) Close() error { return nil }

func (s *Store) load() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	data := map[string]string{}
	if len(b) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(jsonc.ToJSON(b), &data); err != nil {
		return nil, fmt.Errorf("json unmarshal %s: %w", s.path, err)
	}
	return data, nil
}

// save writes to a temp file in the same directory and renames it over the
// target so a crash never leaves a truncated file behind.
func (s *Store) save(data map[string]string) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".todos-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
