package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Aaditya7171/event-platform/internal/domain"
	"github.com/Aaditya7171/event-platform/internal/keylock"
	"github.com/Aaditya7171/event-platform/internal/repository"
	"github.com/Aaditya7171/event-platform/pkg/logger"
	"github.com/Aaditya7171/event-platform/pkg/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type outcome string

const (
	outcomeCreated   outcome = "created"
	outcomeRefreshed outcome = "refreshed"
	outcomeFailed    outcome = "failed"
)

// ReconcilerConfig holds reconciler settings
type ReconcilerConfig struct {
	// Concurrency bounds how many keys are reconciled at once
	Concurrency int
	// LockTimeout bounds the wait for a key held by another writer
	LockTimeout time.Duration
}

// DefaultReconcilerConfig returns default reconciler settings
func DefaultReconcilerConfig() *ReconcilerConfig {
	return &ReconcilerConfig{
		Concurrency: 4,
		LockTimeout: 10 * time.Second,
	}
}

// Tally is the outcome of reconciling a batch of sightings
type Tally struct {
	Created   int
	Refreshed int
	Failed    int
	Errors    []*CandidateError
}

// Reconciler upserts sightings into the event store by originalUrl
type Reconciler struct {
	events     repository.EventRepository
	locker     keylock.Locker
	config     *ReconcilerConfig
	log        *logger.Logger
	candidates *telemetry.Counter
}

// NewReconciler creates a reconciler. A nil locker falls back to an
// in-process one.
func NewReconciler(events repository.EventRepository, locker keylock.Locker, cfg *ReconcilerConfig, log *logger.Logger) *Reconciler {
	if cfg == nil {
		cfg = DefaultReconcilerConfig()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultReconcilerConfig().LockTimeout
	}
	if locker == nil {
		locker = keylock.NewLocal()
	}
	if log == nil {
		log = logger.NewNop()
	}

	candidates, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ingest_candidates_total",
		Description: "Candidates reconciled, by outcome",
		Unit:        "{candidate}",
	})
	if err != nil {
		log.Warn("failed to create candidates counter", zap.Error(err))
	}

	return &Reconciler{
		events:     events,
		locker:     locker,
		config:     cfg,
		log:        log.Named("reconciler"),
		candidates: candidates,
	}
}

// Reconcile processes every sighting independently. One failing sighting is
// recorded in the tally and never stops the others.
func (r *Reconciler) Reconcile(ctx context.Context, sightings []domain.Sighting) *Tally {
	ctx, span := telemetry.StartSpan(ctx, "ingest.Reconcile")
	defer span.End()

	outcomes := make([]outcome, len(sightings))
	errs := make([]error, len(sightings))

	var g errgroup.Group
	g.SetLimit(r.config.Concurrency)
	for i := range sightings {
		g.Go(func() error {
			outcomes[i], errs[i] = r.reconcileOne(ctx, sightings[i])
			return nil
		})
	}
	_ = g.Wait()

	tally := &Tally{}
	for i, s := range sightings {
		switch outcomes[i] {
		case outcomeCreated:
			tally.Created++
		case outcomeRefreshed:
			tally.Refreshed++
		default:
			tally.Failed++
			tally.Errors = append(tally.Errors, &CandidateError{Key: s.OriginalURL, Title: s.Title, Err: errs[i]})
			r.log.WarnContext(ctx, "candidate failed",
				zap.String("original_url", s.OriginalURL),
				zap.Error(errs[i]),
			)
		}
		r.candidates.Inc(ctx, telemetry.OutcomeAttr(string(outcomes[i])))
	}
	return tally
}

func (r *Reconciler) reconcileOne(ctx context.Context, s domain.Sighting) (outcome, error) {
	lockCtx, cancel := context.WithTimeout(ctx, r.config.LockTimeout)
	unlock, err := r.locker.Lock(lockCtx, s.OriginalURL)
	cancel()
	if err != nil {
		return outcomeFailed, err
	}
	defer unlock()

	existing, err := r.events.FindByURL(ctx, s.OriginalURL)
	if err != nil {
		return outcomeFailed, fmt.Errorf("find event: %w", err)
	}

	if existing == nil {
		event, err := domain.NewEvent(s)
		if err != nil {
			return outcomeFailed, err
		}
		err = r.events.Create(ctx, event)
		if err == nil {
			return outcomeCreated, nil
		}
		if !errors.Is(err, domain.ErrDuplicateURL) {
			return outcomeFailed, fmt.Errorf("create event: %w", err)
		}

		// another process created it between our read and write
		existing, err = r.events.FindByURL(ctx, s.OriginalURL)
		if err != nil {
			return outcomeFailed, fmt.Errorf("find event: %w", err)
		}
		if existing == nil {
			return outcomeFailed, fmt.Errorf("create event: %w", domain.ErrDuplicateURL)
		}
	}

	if err := existing.Refresh(s); err != nil {
		return outcomeFailed, err
	}
	if err := r.events.Update(ctx, existing); err != nil {
		return outcomeFailed, fmt.Errorf("update event: %w", err)
	}
	return outcomeRefreshed, nil
}
