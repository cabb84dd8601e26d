package storage

import (
	"errors"
	"os"
	"path/filepath"
)

// RawStore caches the downloaded bulletin pages, one file per month.
type RawStore struct {
	dir string
}

func NewRawStore(dir string) *RawStore {
	return &RawStore{dir: dir}
}

func (s *RawStore) Path(month string) string {
	return filepath.Join(s.dir, month+".html")
}

// Load reports false when the month has not been cached yet.
func (s *RawStore) Load(month string) ([]byte, bool, error) {
	blob, err := os.ReadFile(s.Path(month))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return blob, len(blob) > 0, nil
}

func (s *RawStore) Save(month string, blob []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	path := s.Path(month)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, blob, 0o644)
}
