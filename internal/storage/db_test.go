package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"housingprice/internal"
)

func TestRebindDollar(t *testing.T) {
	got := rebindDollar(`INSERT INTO failures (month, url, error) VALUES (?, ?, ?)`)
	want := `INSERT INTO failures (month, url, error) VALUES ($1, $2, $3)`
	if got != want {
		t.Fatalf("got %q", got)
	}

	sqlite := &DB{dialect: dialectSQLite}
	if q := sqlite.rebind("SELECT ?"); q != "SELECT ?" {
		t.Fatalf("sqlite query rewritten: %q", q)
	}
}

func TestFailureLogs(t *testing.T) {
	files, err := OpenFileStore(t.TempDir())
	require.NoError(t, err)
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	records := []internal.FailureRecord{
		{Month: "2024-01", URL: "https://example.test/1", Error: "status=404"},
		{Month: "2024-02", URL: "https://example.test/2", Error: "no recognizable tables"},
	}
	for name, log := range map[string]interface {
		Store
		FailureLog
	}{BackendFiles: files, BackendSQLite: db} {
		t.Run(name, func(t *testing.T) {
			empty, err := log.ListFailures(0)
			require.NoError(t, err)
			require.Empty(t, empty)

			require.NoError(t, log.WriteFailures(records))
			got, err := log.ListFailures(0)
			require.NoError(t, err)
			require.Len(t, got, 2)

			one, err := log.ListFailures(1)
			require.NoError(t, err)
			require.Len(t, one, 1)
		})
	}
}

// Runs against a real server only when HOUSINGPRICE_TEST_POSTGRES_DSN is set.
func TestPostgresDatasetRoundTrip(t *testing.T) {
	dsn := os.Getenv("HOUSINGPRICE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("HOUSINGPRICE_TEST_POSTGRES_DSN not set")
	}
	db, err := OpenPostgres(dsn)
	require.NoError(t, err)
	defer db.Close()

	name := fmt.Sprintf("test_%d", time.Now().UnixNano())
	require.NoError(t, db.UpdateDataset(name, func(existing []internal.Row) ([]internal.Row, error) {
		require.Empty(t, existing)
		return sampleRows(), nil
	}))
	got, err := db.ReadDataset(name)
	require.NoError(t, err)
	if diff := cmp.Diff(sampleRows(), got); diff != "" {
		t.Fatalf("dataset mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, db.MarkProcessed("1999-01", internal.ProcessedEntry{Title: "t", URL: "u"}))
	idx, err := db.LoadIndex()
	require.NoError(t, err)
	require.True(t, idx.Has("1999-01"))
}
