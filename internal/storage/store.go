package storage

import (
	"fmt"
	"strings"

	"housingprice/internal"
	"housingprice/internal/config"
)

// Store holds the processed-month index, the merged datasets and the failures
// of the last run. UpdateDataset is the only way to change a dataset: it reads
// the current rows, hands them to fn and replaces the dataset with the result.
type Store interface {
	LoadIndex() (internal.ProcessedIndex, error)
	MarkProcessed(month string, entry internal.ProcessedEntry) error
	ReadDataset(name string) ([]internal.Row, error)
	UpdateDataset(name string, fn func([]internal.Row) ([]internal.Row, error)) error
	WriteFailures(failures []internal.FailureRecord) error
	Close() error
}

// RunLog is implemented by stores that keep a history of pipeline runs.
type RunLog interface {
	RecordRun(summary internal.RunSummary) error
	LastRun() (*internal.RunSummary, error)
}

// FailureLog is implemented by stores that can list recorded failures.
type FailureLog interface {
	ListFailures(limit int) ([]internal.FailureRecord, error)
}

const (
	BackendFiles    = "files"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

func OpenStore(cfg config.Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StoreBackend)) {
	case "", BackendFiles:
		return OpenFileStore(cfg.ProcessedDir())
	case BackendSQLite:
		return Open(cfg.DBPath)
	case BackendPostgres:
		if err := cfg.Require("POSTGRES_DSN", cfg.PostgresDSN); err != nil {
			return nil, err
		}
		return OpenPostgres(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
}

// DatasetColumns is the union of value columns, in first-seen order.
func DatasetColumns(rows []internal.Row) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, row := range rows {
		for _, col := range row.Columns {
			if _, ok := seen[col]; ok {
				continue
			}
			seen[col] = struct{}{}
			out = append(out, col)
		}
	}
	return out
}
