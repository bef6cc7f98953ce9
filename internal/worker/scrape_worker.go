package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Aaditya7171/event-platform/internal/ingest"
	"github.com/Aaditya7171/event-platform/internal/source"
	"github.com/Aaditya7171/event-platform/pkg/logger"
	"go.uber.org/zap"
)

// Runner executes one ingestion run
type Runner interface {
	Run(ctx context.Context, d *source.Descriptor) (*ingest.Report, error)
}

// ScrapeWorkerConfig holds configuration for the scheduled scraper
type ScrapeWorkerConfig struct {
	// Interval between runs
	Interval time.Duration
	// RunOnStart triggers a run immediately instead of waiting one interval
	RunOnStart bool
}

// DefaultScrapeWorkerConfig returns default configuration
func DefaultScrapeWorkerConfig() *ScrapeWorkerConfig {
	return &ScrapeWorkerConfig{
		Interval:   time.Hour,
		RunOnStart: true,
	}
}

// ScrapeWorkerStats holds worker statistics
type ScrapeWorkerStats struct {
	IsRunning     bool      `json:"isRunning"`
	TotalRuns     int64     `json:"totalRuns"`
	FailedRuns    int64     `json:"failedRuns"`
	SkippedRuns   int64     `json:"skippedRuns"`
	LastRunTime   time.Time `json:"lastRunTime"`
	LastCreated   int       `json:"lastCreated"`
	LastRefreshed int       `json:"lastRefreshed"`
}

// ScrapeWorker runs ingestion on a fixed interval
type ScrapeWorker struct {
	runner     Runner
	descriptor *source.Descriptor
	log        *logger.Logger
	config     *ScrapeWorkerConfig

	mu            sync.Mutex
	running       bool
	stopCh        chan struct{}
	doneCh        chan struct{}
	totalRuns     int64
	failedRuns    int64
	skippedRuns   int64
	lastRunTime   time.Time
	lastCreated   int
	lastRefreshed int
}

// NewScrapeWorker creates a new ScrapeWorker
func NewScrapeWorker(runner Runner, descriptor *source.Descriptor, log *logger.Logger, config *ScrapeWorkerConfig) *ScrapeWorker {
	if config == nil {
		config = DefaultScrapeWorkerConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &ScrapeWorker{
		runner:     runner,
		descriptor: descriptor,
		log:        log.Named("scrape-worker"),
		config:     config,
	}
}

// Start launches the schedule loop; it returns immediately
func (w *ScrapeWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.log.Info("scrape worker started",
		zap.Duration("interval", w.config.Interval),
		zap.String("source", w.descriptor.Name),
	)

	go w.loop(ctx)
}

// Stop signals the loop to exit and waits for an in-flight run to finish
func (w *ScrapeWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
	w.log.Info("scrape worker stopped")
}

func (w *ScrapeWorker) loop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	if w.config.RunOnStart {
		w.runOnce(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ScrapeWorker) runOnce(ctx context.Context) {
	report, err := w.runner.Run(ctx, w.descriptor)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastRunTime = time.Now()
	switch {
	case errors.Is(err, ingest.ErrRunInProgress):
		w.skippedRuns++
		w.log.Info("scheduled run skipped, another run is in progress")
	case err != nil:
		w.totalRuns++
		w.failedRuns++
		w.log.Error("scheduled run failed", zap.Error(err))
	default:
		w.totalRuns++
		w.lastCreated = report.Created
		w.lastRefreshed = report.Refreshed
	}
}

// GetStats returns current worker statistics
func (w *ScrapeWorker) GetStats() *ScrapeWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &ScrapeWorkerStats{
		IsRunning:     w.running,
		TotalRuns:     w.totalRuns,
		FailedRuns:    w.failedRuns,
		SkippedRuns:   w.skippedRuns,
		LastRunTime:   w.lastRunTime,
		LastCreated:   w.lastCreated,
		LastRefreshed: w.lastRefreshed,
	}
}
