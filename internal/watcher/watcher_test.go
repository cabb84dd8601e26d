package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"housingprice/internal/config"
	"housingprice/internal/pipeline"
	"housingprice/internal/storage"
)

type runnerFunc func(ctx context.Context) (pipeline.RunResult, error)

func (f runnerFunc) Run(ctx context.Context) (pipeline.RunResult, error) {
	return f(ctx)
}

func testService(t *testing.T, runner Runner, autoExport bool) (*Service, string) {
	t.Helper()
	store, err := storage.OpenFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "docs")
	cfg := config.Config{OutputDir: out, WatchIntervalSec: 3600, WatchAutoExport: autoExport}
	return NewService(store, runner, cfg), out
}

func TestRunExportsAfterProcessingAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	svc, out := testService(t, runnerFunc(func(context.Context) (pipeline.RunResult, error) {
		calls++
		cancel()
		return pipeline.RunResult{Candidates: 1, Processed: []string{"2024-01"}}, nil
	}), true)

	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
	if calls != 1 {
		t.Fatalf("calls=%d", calls)
	}
	if _, err := os.Stat(filepath.Join(out, "data.json")); err != nil {
		t.Fatalf("expected export: %v", err)
	}
}

func TestCycleSkipsExportWhenNothingProcessed(t *testing.T) {
	svc, out := testService(t, runnerFunc(func(context.Context) (pipeline.RunResult, error) {
		return pipeline.RunResult{Candidates: 3, Skipped: 3}, nil
	}), true)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("unexpected export dir: %v", err)
	}
}

func TestCycleReturnsRunError(t *testing.T) {
	boom := errors.New("search down")
	svc, _ := testService(t, runnerFunc(func(context.Context) (pipeline.RunResult, error) {
		return pipeline.RunResult{}, boom
	}), false)

	if err := svc.runCycle(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}

func TestZeroIntervalFallsBack(t *testing.T) {
	svc := NewService(nil, nil, config.Config{})
	if svc.interval != defaultInterval {
		t.Fatalf("interval=%v", svc.interval)
	}
}
