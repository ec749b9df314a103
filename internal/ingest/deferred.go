package ingest

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/harborclub/harborclub-backend/pkg/logger"
	"github.com/harborclub/harborclub-backend/pkg/metrics"
)

// Action is one side effect staged during the claim transaction and executed
// only after it commits. Run must tolerate being the sole survivor of a
// partially failed drain: actions are independent of each other.
type Action struct {
	Name string
	Run  func(ctx context.Context) error
}

// DeferredQueue collects side effects while the claim transaction is open.
// Nothing in the queue runs until Drain is called, which the engine does
// strictly after commit. A rolled-back or skipped transaction resets the
// queue so no side effect ever fires for a mutation that did not land.
type DeferredQueue struct {
	actions []Action
	logger  *logger.Logger
	metrics *metrics.IngestMetrics
}

// NewDeferredQueue builds an empty queue. logger and metrics may be nil.
func NewDeferredQueue(logg *logger.Logger, m *metrics.IngestMetrics) *DeferredQueue {
	return &DeferredQueue{logger: logg, metrics: m}
}

// Enqueue stages an action for execution after commit.
func (q *DeferredQueue) Enqueue(action Action) {
	if action.Run == nil {
		return
	}
	q.actions = append(q.actions, action)
}

// Len reports the number of staged actions.
func (q *DeferredQueue) Len() int {
	return len(q.actions)
}

// Reset discards all staged actions.
func (q *DeferredQueue) Reset() {
	q.actions = nil
}

// Drain executes every staged action in enqueue order. A failing or
// panicking action is logged and counted but never stops the remaining
// actions. The aggregated error is informational: callers log it and move
// on, they never propagate it to the webhook response.
func (q *DeferredQueue) Drain(ctx context.Context) error {
	actions := q.actions
	q.actions = nil

	var drainErr error
	for _, action := range actions {
		q.metrics.IncDeferredDrained()
		if err := q.runOne(ctx, action); err != nil {
			q.metrics.IncDeferredFailure(action.Name)
			if q.logger != nil {
				q.logger.Error(q.logger.WithField(ctx, "deferred_action", action.Name), "deferred action failed", err)
			}
			drainErr = multierr.Append(drainErr, fmt.Errorf("%s: %w", action.Name, err))
		}
	}
	return drainErr
}

func (q *DeferredQueue) runOne(ctx context.Context, action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return action.Run(ctx)
}
