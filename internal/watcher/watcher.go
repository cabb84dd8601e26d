package watcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"housingprice/internal/config"
	"housingprice/internal/pipeline"
	"housingprice/internal/storage"
)

// Runner performs one ingestion run.
type Runner interface {
	Run(ctx context.Context) (pipeline.RunResult, error)
}

type Service struct {
	store      storage.Store
	runner     Runner
	outputDir  string
	interval   time.Duration
	autoExport bool
}

const defaultInterval = 6 * time.Hour

func NewService(store storage.Store, runner Runner, cfg config.Config) *Service {
	interval := cfg.WatchInterval()
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		store:      store,
		runner:     runner,
		outputDir:  cfg.OutputDir,
		interval:   interval,
		autoExport: cfg.WatchAutoExport,
	}
}

// Run repeats a cycle every interval until ctx is done. Cycle errors are
// logged and do not stop the loop.
func (s *Service) Run(ctx context.Context) error {
	slog.Info("watcher started", "interval", s.interval.String(), "autoExport", s.autoExport)
	for {
		if err := s.runCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("watcher cycle failed", "err", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("watcher stopped")
			return nil
		case <-time.After(s.interval):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	result, err := s.runner.Run(ctx)
	if err != nil {
		return err
	}

	if s.autoExport && len(result.Processed) > 0 {
		if _, err := pipeline.ExportSite(s.store, s.outputDir); err != nil {
			return err
		}
	}

	slog.Info("watcher cycle done",
		"candidates", result.Candidates,
		"processed", len(result.Processed),
		"skipped", result.Skipped,
		"failures", len(result.Failures))
	return nil
}
