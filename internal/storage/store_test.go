package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"housingprice/internal"
)

func sampleRows() []internal.Row {
	return []internal.Row{
		{
			Month: "2024-01", Topic: internal.TopicNewHome, City: "北京",
			Columns: []string{internal.MetricMoM, internal.MetricYoY},
			Values:  map[string]string{internal.MetricMoM: "100.2", internal.MetricYoY: "98.7"},
		},
		{
			Month: "2024-01", Topic: internal.TopicNewHomeCategory1, City: "上海",
			Columns: []string{"90m2及以下-环比", "90-144m2-环比"},
			Values:  map[string]string{"90m2及以下-环比": "100.1", "90-144m2-环比": "99.9"},
		},
	}
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	tmp := t.TempDir()

	files, err := OpenFileStore(filepath.Join(tmp, "processed"))
	require.NoError(t, err)
	db, err := Open(filepath.Join(tmp, "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]Store{BackendFiles: files, BackendSQLite: db}
}

func TestStoreDatasetRoundTrip(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			rows, err := store.ReadDataset("all")
			require.NoError(t, err)
			require.Len(t, rows, 0)

			err = store.UpdateDataset("all", func(existing []internal.Row) ([]internal.Row, error) {
				require.Len(t, existing, 0)
				return sampleRows(), nil
			})
			require.NoError(t, err)

			got, err := store.ReadDataset("all")
			require.NoError(t, err)
			if diff := cmp.Diff(sampleRows(), got); diff != "" {
				t.Fatalf("dataset mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreUpdateErrorKeepsDataset(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.UpdateDataset("new_home", func([]internal.Row) ([]internal.Row, error) {
				return sampleRows()[:1], nil
			}))

			boom := errors.New("boom")
			err := store.UpdateDataset("new_home", func([]internal.Row) ([]internal.Row, error) {
				return nil, boom
			})
			require.ErrorIs(t, err, boom)

			rows, err := store.ReadDataset("new_home")
			require.NoError(t, err)
			require.Len(t, rows, 1)
		})
	}
}

func TestStoreIndex(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			idx, err := store.LoadIndex()
			require.NoError(t, err)
			require.False(t, idx.Has("2024-01"))

			entry := internal.ProcessedEntry{Title: "2024年1月份70个大中城市商品住宅销售价格变动情况", URL: "https://example.test/a.html", DocDate: "2024-02-16"}
			require.NoError(t, store.MarkProcessed("2024-01", entry))
			require.NoError(t, store.MarkProcessed("2024-02", entry))

			idx, err = store.LoadIndex()
			require.NoError(t, err)
			require.True(t, idx.Has("2024-01"))
			require.True(t, idx.Has("2024-02"))
			require.Equal(t, entry, idx.Processed["2024-01"])
		})
	}
}

func TestDBRunLog(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	last, err := db.LastRun()
	require.NoError(t, err)
	require.Nil(t, last)

	summary := internal.RunSummary{TraceID: "abc", StartedAt: "2024-01-01T00:00:00Z", FinishedAt: "2024-01-01T00:01:00Z", Candidates: 3, Processed: 2, Failures: 1}
	require.NoError(t, db.RecordRun(summary))
	require.NoError(t, db.WriteFailures([]internal.FailureRecord{{Month: "2024-01", URL: "u", Error: "e"}}))

	last, err = db.LastRun()
	require.NoError(t, err)
	require.Equal(t, &summary, last)

	failures, err := db.ListFailures(10)
	require.NoError(t, err)
	require.Len(t, failures, 1)
}
