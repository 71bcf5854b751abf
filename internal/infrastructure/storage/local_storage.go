package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	contentapp "github.com/autopecas/backend/internal/application/content"
)

var _ contentapp.ObjectStorage = (*LocalObjectStorage)(nil)

// LocalObjectStorage writes objects below a directory served by the HTTP
// server. It is used when object storage is disabled (development, single node).
type LocalObjectStorage struct {
	dir     string
	baseURL string
}

// NewLocalObjectStorage creates the directory if needed
func NewLocalObjectStorage(dir, baseURL string) (*LocalObjectStorage, error) {
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if baseURL == "" {
		baseURL = "/uploads"
	}
	return &LocalObjectStorage{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir returns the root directory
func (s *LocalObjectStorage) Dir() string {
	return s.dir
}

func (s *LocalObjectStorage) path(key string) (string, error) {
	if key == "" {
		return "", ErrStorageKeyRequired
	}
	clean := filepath.Clean("/" + key)
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

// Put writes data to dir/key
func (s *LocalObjectStorage) Put(_ context.Context, key string, data []byte, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return nil
}

// PublicURL returns baseURL/key
func (s *LocalObjectStorage) PublicURL(key string) string {
	return s.baseURL + "/" + strings.TrimPrefix(key, "/")
}

// Delete removes dir/key; a missing file is not an error
func (s *LocalObjectStorage) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
