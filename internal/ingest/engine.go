package ingest

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/harborclub/harborclub-backend/pkg/db"
	"github.com/harborclub/harborclub-backend/pkg/db/models"
	pkgerrors "github.com/harborclub/harborclub-backend/pkg/errors"
	"github.com/harborclub/harborclub-backend/pkg/logger"
	"github.com/harborclub/harborclub-backend/pkg/metrics"
)

const claimConstraint = "ux_processed_events_event_id"

var errDuplicateEvent = errors.New("event already claimed")

// Applier performs the domain mutation for one event inside the claim
// transaction. Side effects must go through the queue, never run directly.
// A non-retryable error (see pkg/errors) marks the event a permanent
// failure; any other error rolls the transaction back for redelivery.
type Applier interface {
	Apply(ctx context.Context, tx *gorm.DB, event Event, queue *DeferredQueue) error
}

// Engine is the single entry point for gateway events, whether they arrive
// over the webhook endpoint or from the reconcile sweep. One call, one
// claim transaction, at most one drain of deferred side effects.
type Engine struct {
	tx      db.TxRunner
	repo    *Repo
	applier Applier
	logger  *logger.Logger
	metrics *metrics.IngestMetrics
}

// NewEngine wires the engine. logger and metrics may be nil in tests.
func NewEngine(tx db.TxRunner, repo *Repo, applier Applier, logg *logger.Logger, m *metrics.IngestMetrics) *Engine {
	return &Engine{tx: tx, repo: repo, applier: applier, logger: logg, metrics: m}
}

// Process runs one event to a terminal outcome.
//
// Every returned Result with a nil error is a final disposition the caller
// should acknowledge. A non-nil error means nothing was committed and the
// delivery should be retried.
func (e *Engine) Process(ctx context.Context, event Event) (Result, error) {
	if err := event.Validate(); err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed gateway event")
	}
	ctx = e.logCtx(ctx, event)

	queue := NewDeferredQueue(e.logger, e.metrics)
	started := time.Now()

	var outcome Outcome
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := e.repo.Claim(ctx, tx, event); err != nil {
			if db.IsUniqueViolation(err, claimConstraint) {
				return errDuplicateEvent
			}
			return err
		}

		priority, known := Priority(event.Type)
		if !known {
			outcome = OutcomePermanentFailure
			queue.Reset()
			e.warn(ctx, "unknown event type, recording claim without mutation")
			return nil
		}

		applied, err := e.repo.AppliedEventTypes(ctx, tx, event.Resource)
		if err != nil {
			return err
		}
		if priority < maxAppliedPriority(applied) {
			if err := e.repo.AppendHistory(ctx, tx, event, false); err != nil {
				return err
			}
			outcome = OutcomeStale
			queue.Reset()
			return nil
		}

		// The mutation runs in a savepoint so a permanent failure can be
		// unwound while the claim row still commits. The poison pill is
		// then acknowledged and never redelivered.
		applyErr := tx.Transaction(func(inner *gorm.DB) error {
			return e.applier.Apply(ctx, inner, event, queue)
		})
		if applyErr != nil {
			if pkgerrors.IsRetryable(applyErr) {
				return applyErr
			}
			outcome = OutcomePermanentFailure
			queue.Reset()
			e.error(ctx, "event permanently failed", applyErr)
			return nil
		}

		if err := e.repo.AppendHistory(ctx, tx, event, true); err != nil {
			return err
		}
		outcome = OutcomeApplied
		return nil
	})
	if err != nil {
		if errors.Is(err, errDuplicateEvent) {
			e.observe(event, OutcomeDuplicate, started)
			return Result{Outcome: OutcomeDuplicate}, nil
		}
		return Result{}, err
	}

	e.observe(event, outcome, started)

	if outcome == OutcomeApplied {
		if drainErr := queue.Drain(ctx); drainErr != nil {
			e.error(ctx, "deferred actions failed after commit", drainErr)
		}
	}

	return Result{Outcome: outcome}, nil
}

func maxAppliedPriority(applied []models.ResourceEvent) int {
	maxPriority := 0
	for _, row := range applied {
		if priority, ok := Priority(row.EventType); ok && priority > maxPriority {
			maxPriority = priority
		}
	}
	return maxPriority
}

func (e *Engine) observe(event Event, outcome Outcome, started time.Time) {
	e.metrics.ObserveOutcome(string(outcome), event.Type.String())
	e.metrics.ObserveDuration(event.Type.String(), time.Since(started))
}

func (e *Engine) logCtx(ctx context.Context, event Event) context.Context {
	if e.logger == nil {
		return ctx
	}
	ctx = e.logger.WithEvent(ctx, event.ID, event.Type.String())
	return e.logger.WithResource(ctx, event.Resource.Type.String(), event.Resource.ID)
}

func (e *Engine) warn(ctx context.Context, msg string) {
	if e.logger != nil {
		e.logger.Warn(ctx, msg)
	}
}

func (e *Engine) error(ctx context.Context, msg string, err error) {
	if e.logger != nil {
		e.logger.Error(ctx, msg, err)
	}
}
