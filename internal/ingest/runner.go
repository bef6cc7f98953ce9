package ingest

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Aaditya7171/event-platform/internal/domain"
	"github.com/Aaditya7171/event-platform/internal/source"
	"github.com/Aaditya7171/event-platform/pkg/logger"
	"github.com/Aaditya7171/event-platform/pkg/telemetry"
	"go.uber.org/zap"
)

// Fetcher retrieves a source page
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Runner executes ingestion runs: fetch, extract, resolve, dedupe, reconcile.
// At most one run is active per Runner.
type Runner struct {
	fetcher    Fetcher
	reconciler *Reconciler
	log        *logger.Logger
	now        func() time.Time

	running sync.Mutex

	mu   sync.RWMutex
	last *Report

	runs     *telemetry.Counter
	duration *telemetry.Histogram
}

// NewRunner creates a runner
func NewRunner(fetcher Fetcher, reconciler *Reconciler, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.Named("ingest")

	runs, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ingest_runs_total",
		Description: "Ingestion runs, by result",
		Unit:        "{run}",
	})
	if err != nil {
		log.Warn("failed to create runs counter", zap.Error(err))
	}
	duration, err := telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "ingest_run_duration_seconds",
		Description: "Wall time of ingestion runs",
		Unit:        "s",
	}, 0.5, 1, 2.5, 5, 10, 30, 60, 120)
	if err != nil {
		log.Warn("failed to create run duration histogram", zap.Error(err))
	}

	return &Runner{
		fetcher:    fetcher,
		reconciler: reconciler,
		log:        log,
		now:        time.Now,
		runs:       runs,
		duration:   duration,
	}
}

// Run ingests the source once. A fetch or parse failure returns an error
// before anything is written; per-candidate failures are in the report.
func (r *Runner) Run(ctx context.Context, d *source.Descriptor) (*Report, error) {
	if !r.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.running.Unlock()

	ctx, span := telemetry.StartSpan(ctx, "ingest.Run")
	defer span.End()

	log := r.log.WithContext(ctx).WithFields(zap.String("source", d.Name))
	report := &Report{Source: d.Name, StartedAt: r.now()}

	extractor, err := source.NewExtractor(d)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("build extractor: %w", err)
	}

	body, err := r.fetcher.Fetch(ctx, d.URL)
	if err != nil {
		telemetry.RecordError(span, err)
		r.runs.Inc(ctx, telemetry.SourceAttr(d.Name), telemetry.ResultAttr("fetch_error"))
		log.Error("fetch failed, run aborted", zap.String("url", d.URL), zap.Error(err))
		return nil, err
	}

	doc, err := source.ParseDocument(bytes.NewReader(body))
	if err != nil {
		err = &source.FetchError{URL: d.URL, Attempts: 1, Err: fmt.Errorf("parse document: %w", err)}
		telemetry.RecordError(span, err)
		r.runs.Inc(ctx, telemetry.SourceAttr(d.Name), telemetry.ResultAttr("fetch_error"))
		return nil, err
	}

	seenAt := r.now()
	seen := make(map[string]struct{})
	sightings := make([]domain.Sighting, 0)
	for c, err := range extractor.Extract(doc) {
		if err != nil {
			report.Skipped++
			log.Debug("listing skipped", zap.Error(err))
			continue
		}
		if _, dup := seen[c.OriginalURL]; dup {
			report.Duplicates++
			continue
		}
		seen[c.OriginalURL] = struct{}{}
		sightings = append(sightings, domain.Sighting{
			Title:       c.Title,
			OriginalURL: c.OriginalURL,
			Source:      d.Name,
			City:        d.City,
			Datetime:    c.Datetime,
			SeenAt:      seenAt,
		})
	}
	report.Seen = len(sightings)

	tally := r.reconciler.Reconcile(ctx, sightings)
	report.Created = tally.Created
	report.Refreshed = tally.Refreshed
	report.Failed = tally.Failed
	report.Errors = tally.Errors
	if report.Errors == nil {
		report.Errors = []*CandidateError{}
	}
	report.FinishedAt = r.now()

	result := "success"
	if report.Failed > 0 {
		result = "partial"
	}
	r.runs.Inc(ctx, telemetry.SourceAttr(d.Name), telemetry.ResultAttr(result))
	r.duration.Record(ctx, report.Duration().Seconds(), telemetry.SourceAttr(d.Name))

	r.mu.Lock()
	r.last = report
	r.mu.Unlock()

	log.Info("ingestion run finished",
		zap.Int("seen", report.Seen),
		zap.Int("skipped", report.Skipped),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("created", report.Created),
		zap.Int("refreshed", report.Refreshed),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration()),
	)

	return report.clone(), nil
}

// LastReport returns a copy of the most recent completed run, or nil
func (r *Runner) LastReport() *Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return nil
	}
	return r.last.clone()
}
