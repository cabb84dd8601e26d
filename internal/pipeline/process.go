package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"housingprice/internal"
	"housingprice/internal/config"
	"housingprice/internal/storage"
	"housingprice/internal/util"
)

// BulletinSource lists candidate bulletins.
type BulletinSource interface {
	Search(ctx context.Context) ([]internal.Bulletin, error)
}

// PageFetcher downloads a bulletin page.
type PageFetcher interface {
	FetchHTML(ctx context.Context, url string) ([]byte, error)
}

type ProcessingService struct {
	store    storage.Store
	raw      *storage.RawStore
	source   BulletinSource
	fetcher  PageFetcher
	keywords []string
}

func NewProcessingService(store storage.Store, raw *storage.RawStore, source BulletinSource, fetcher PageFetcher, cfg config.Config) *ProcessingService {
	return &ProcessingService{
		store:    store,
		raw:      raw,
		source:   source,
		fetcher:  fetcher,
		keywords: cfg.TitleKeywords,
	}
}

type RunResult struct {
	Candidates int
	Processed  []string
	Skipped    int
	Failures   []internal.FailureRecord
}

// Run ingests every bulletin month that is not in the index yet. A failing
// bulletin is recorded and the run moves on; only a failing search, index read
// or failures write aborts the run.
func (s *ProcessingService) Run(ctx context.Context) (RunResult, error) {
	start := time.Now()
	result := RunResult{}

	idx, err := s.store.LoadIndex()
	if err != nil {
		return result, fmt.Errorf("load index: %w", err)
	}

	found, err := s.source.Search(ctx)
	if err != nil {
		return result, fmt.Errorf("search bulletins: %w", err)
	}
	targets := SelectBulletins(found, s.keywords)
	result.Candidates = len(targets)
	slog.Info("bulletins found", "results", len(found), "candidates", len(targets), "processed", len(idx.Processed))

	for _, b := range targets {
		if ctx.Err() != nil {
			break
		}
		if idx.Has(b.Month) {
			result.Skipped++
			continue
		}

		slog.Info("processing bulletin", "month", b.Month, "url", b.URL)
		rows, err := s.ProcessBulletin(ctx, b)
		if err != nil {
			slog.Error("bulletin failed", "month", b.Month, "url", b.URL, "err", err)
			result.Failures = append(result.Failures, internal.FailureRecord{Month: b.Month, URL: b.URL, Error: err.Error()})
			continue
		}
		idx.Processed[b.Month] = entryFor(b)
		result.Processed = append(result.Processed, b.Month)
		slog.Info("bulletin done", "month", b.Month, "rows", rows)
	}

	if err := s.store.WriteFailures(result.Failures); err != nil {
		return result, fmt.Errorf("write failures: %w", err)
	}
	s.recordRun(start, result)
	return result, ctx.Err()
}

// ProcessBulletin fetches, parses and merges one bulletin, then marks its month
// as processed. It returns the number of rows ingested.
func (s *ProcessingService) ProcessBulletin(ctx context.Context, b internal.Bulletin) (int, error) {
	html, cached, err := s.loadHTML(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	tables, err := ParseBulletin(html, b.Month)
	if err != nil {
		return 0, err
	}
	// Only pages that parsed are cached, so an error page is fetched again next run.
	if !cached && s.raw != nil {
		if err := s.raw.Save(b.Month, html); err != nil {
			slog.Warn("raw cache write failed", "month", b.Month, "err", err)
		}
	}
	rows, err := s.Ingest(tables)
	if err != nil {
		return 0, fmt.Errorf("merge: %w", err)
	}
	if err := s.store.MarkProcessed(b.Month, entryFor(b)); err != nil {
		return 0, fmt.Errorf("update index: %w", err)
	}
	return rows, nil
}

// Ingest merges the rows of a parsed bulletin into the per-topic datasets and
// the combined dataset.
func (s *ProcessingService) Ingest(tables []TableResult) (int, error) {
	all := []internal.Row{}
	present := map[internal.Topic]bool{}
	for _, t := range tables {
		all = append(all, t.Rows...)
		present[t.Topic] = true
	}
	if len(all) == 0 {
		return 0, nil
	}

	for _, topic := range internal.Topics() {
		if !present[topic] {
			continue
		}
		merge := MergeTopic(topic)
		if err := s.store.UpdateDataset(topic.String(), func(existing []internal.Row) ([]internal.Row, error) {
			return merge(existing, all), nil
		}); err != nil {
			return 0, fmt.Errorf("%s: %w", topic, err)
		}
	}
	if err := s.store.UpdateDataset(DatasetCombined, func(existing []internal.Row) ([]internal.Row, error) {
		return MergeCombined(existing, all), nil
	}); err != nil {
		return 0, fmt.Errorf("%s: %w", DatasetCombined, err)
	}
	return len(all), nil
}

func (s *ProcessingService) loadHTML(ctx context.Context, b internal.Bulletin) ([]byte, bool, error) {
	if s.raw != nil {
		blob, ok, err := s.raw.Load(b.Month)
		if err != nil {
			slog.Warn("raw cache unreadable", "month", b.Month, "err", err)
		}
		if ok {
			slog.Debug("using cached page", "month", b.Month)
			return blob, true, nil
		}
	}

	blob, err := s.fetcher.FetchHTML(ctx, b.URL)
	if err != nil {
		return nil, false, err
	}
	return blob, false, nil
}

func (s *ProcessingService) recordRun(start time.Time, result RunResult) {
	runLog, ok := s.store.(storage.RunLog)
	if !ok {
		return
	}
	summary := internal.RunSummary{
		TraceID:    traceID(),
		StartedAt:  start.UTC().Format(time.RFC3339),
		FinishedAt: time.Now().UTC().Format(time.RFC3339),
		Candidates: result.Candidates,
		Processed:  len(result.Processed),
		Skipped:    result.Skipped,
		Failures:   len(result.Failures),
	}
	if err := runLog.RecordRun(summary); err != nil {
		slog.Warn("record run failed", "err", err)
	}
}

// SelectBulletins keeps bulletins whose title contains every keyword and names
// a month, ordered by month. Titles without a month are dropped silently.
func SelectBulletins(found []internal.Bulletin, keywords []string) []internal.Bulletin {
	out := []internal.Bulletin{}
	for _, b := range found {
		if !containsAll(b.Title, keywords) {
			continue
		}
		month, ok := util.ParseMonth(b.Title)
		if !ok {
			continue
		}
		b.Month = month
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func containsAll(title string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(title, kw) {
			return false
		}
	}
	return true
}

func entryFor(b internal.Bulletin) internal.ProcessedEntry {
	return internal.ProcessedEntry{Title: b.Title, URL: b.URL, DocDate: b.DocDate}
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
