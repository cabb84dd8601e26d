package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"housingprice/internal"
)

const (
	indexFile    = "index.json"
	failuresFile = "failures.json"
)

// FileStore keeps one CSV file per dataset plus index.json and failures.json in
// a single directory. Every write replaces the whole file.
type FileStore struct {
	dir string
}

func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) DatasetPath(name string) string {
	return filepath.Join(s.dir, name+".csv")
}

func (s *FileStore) LoadIndex() (internal.ProcessedIndex, error) {
	idx := internal.NewProcessedIndex()
	blob, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if errors.Is(err, os.ErrNotExist) {
		return idx, nil
	}
	if err != nil {
		return idx, err
	}
	if err := json.Unmarshal(blob, &idx); err != nil {
		return idx, err
	}
	if idx.Processed == nil {
		idx.Processed = map[string]internal.ProcessedEntry{}
	}
	return idx, nil
}

func (s *FileStore) MarkProcessed(month string, entry internal.ProcessedEntry) error {
	idx, err := s.LoadIndex()
	if err != nil {
		return err
	}
	idx.Processed[month] = entry
	return s.writeJSON(indexFile, idx)
}

func (s *FileStore) ReadDataset(name string) ([]internal.Row, error) {
	f, err := os.Open(s.DatasetPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRowsCSV(f)
}

func (s *FileStore) UpdateDataset(name string, fn func([]internal.Row) ([]internal.Row, error)) error {
	existing, err := s.ReadDataset(name)
	if err != nil {
		return err
	}
	updated, err := fn(existing)
	if err != nil {
		return err
	}
	if len(updated) == 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := WriteRowsCSV(&buf, updated); err != nil {
		return err
	}
	return writeFileAtomic(s.DatasetPath(name), buf.Bytes())
}

func (s *FileStore) WriteFailures(failures []internal.FailureRecord) error {
	if len(failures) == 0 {
		return nil
	}
	return s.writeJSON(failuresFile, failures)
}

// ListFailures returns the failures of the last run that had any.
func (s *FileStore) ListFailures(limit int) ([]internal.FailureRecord, error) {
	blob, err := os.ReadFile(filepath.Join(s.dir, failuresFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []internal.FailureRecord
	if err := json.Unmarshal(blob, &out); err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *FileStore) writeJSON(name string, v any) error {
	blob, err := MarshalJSON(v)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.dir, name), blob)
}

// MarshalJSON indents with two spaces and leaves non-ASCII and HTML characters unescaped.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, blob []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
