package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"softtennis-coach/models"
)

// JSONFileStore keeps the ledger in a single JSON document on disk.
type JSONFileStore struct {
	Path string
}

func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{Path: path}
}

func (s *JSONFileStore) Name() string { return "json-file:" + s.Path }

// Load returns an empty mapping when the file does not exist yet.
func (s *JSONFileStore) Load(_ context.Context) (map[string]models.UserProgress, error) {
	if s.Path == "" {
		return nil, ErrNotConfigured
	}
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]models.UserProgress{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return Unmarshal(raw)
}

// Save writes to a temp file in the same directory and renames it over the target,
// so a failed write never leaves a truncated document behind.
func (s *JSONFileStore) Save(_ context.Context, data map[string]models.UserProgress) error {
	if s.Path == "" {
		return ErrNotConfigured
	}
	raw, err := Marshal(data)
	if err != nil {
		return fmt.Errorf("encode progress data: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.Path, err)
	}
	return nil
}
