package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/harborclub/harborclub-backend/internal/ingest"
	"github.com/harborclub/harborclub-backend/pkg/enums"
	"github.com/harborclub/harborclub-backend/pkg/gateway"
	"github.com/harborclub/harborclub-backend/pkg/logger"
)

// PaymentLister reads the gateway's view of recent payments.
type PaymentLister interface {
	ListPayments(ctx context.Context, since time.Time) ([]gateway.PaymentRecord, error)
}

// EventProcessor is the ingest engine surface the sweeper feeds into.
type EventProcessor interface {
	Process(ctx context.Context, event ingest.Event) (ingest.Result, error)
}

// Stats summarizes one sweep.
type Stats struct {
	Listed     int
	Applied    int
	Duplicates int
	Stale      int
	Failed     int
	Skipped    int
}

// Sweeper closes the gap left by dropped webhooks: it periodically lists
// the gateway's payments and replays them through the same engine the
// webhook endpoint uses. Synthetic event ids are deterministic per payment
// and status, so anything the webhook already delivered dedupes as a
// duplicate claim and the sweep stays safe to run at any frequency.
type Sweeper struct {
	lister   PaymentLister
	engine   EventProcessor
	interval time.Duration
	lookback time.Duration
	logger   *logger.Logger
}

// NewSweeper wires the reconcile loop.
func NewSweeper(lister PaymentLister, engine EventProcessor, interval, lookback time.Duration, logg *logger.Logger) *Sweeper {
	return &Sweeper{
		lister:   lister,
		engine:   engine,
		interval: interval,
		lookback: lookback,
		logger:   logg,
	}
}

// Run sweeps on the configured interval until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil && s.logger != nil {
			s.logger.Error(ctx, "reconcile sweep finished with errors", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SweepOnce replays the lookback window once. Per-payment failures are
// collected, not fatal: one bad payment never blocks the rest of the sweep.
func (s *Sweeper) SweepOnce(ctx context.Context) (Stats, error) {
	var stats Stats

	payments, err := s.lister.ListPayments(ctx, time.Now().Add(-s.lookback))
	if err != nil {
		return stats, fmt.Errorf("listing gateway payments: %w", err)
	}
	stats.Listed = len(payments)

	var sweepErr error
	for _, payment := range payments {
		event, ok := eventForPayment(payment)
		if !ok {
			stats.Skipped++
			continue
		}

		result, err := s.engine.Process(ctx, event)
		if err != nil {
			stats.Failed++
			sweepErr = multierr.Append(sweepErr, fmt.Errorf("payment %s: %w", payment.ID, err))
			continue
		}
		switch result.Outcome {
		case ingest.OutcomeApplied:
			stats.Applied++
		case ingest.OutcomeDuplicate:
			stats.Duplicates++
		case ingest.OutcomeStale:
			stats.Stale++
		default:
			stats.Failed++
		}
	}

	if s.logger != nil {
		ctx = s.logger.WithFields(ctx, map[string]any{
			"listed":     stats.Listed,
			"applied":    stats.Applied,
			"duplicates": stats.Duplicates,
			"stale":      stats.Stale,
			"failed":     stats.Failed,
			"skipped":    stats.Skipped,
		})
		s.logger.Info(ctx, "reconcile sweep complete")
	}
	return stats, sweepErr
}

// statusEventTypes maps the gateway's payment status vocabulary onto
// webhook event types.
var statusEventTypes = map[string]enums.GatewayEventType{
	"PENDING":   enums.GatewayEventPaymentCreated,
	"APPROVED":  enums.GatewayEventPaymentAuthorized,
	"COMPLETED": enums.GatewayEventPaymentSucceeded,
	"FAILED":    enums.GatewayEventPaymentFailed,
	"CANCELED":  enums.GatewayEventPaymentCanceled,
}

func eventForPayment(payment gateway.PaymentRecord) (ingest.Event, bool) {
	if payment.ID == "" {
		return ingest.Event{}, false
	}
	eventType, ok := statusEventTypes[strings.ToUpper(payment.Status)]
	if !ok {
		return ingest.Event{}, false
	}

	payload, err := json.Marshal(map[string]any{
		"amount_cents": payment.AmountCents,
		"currency":     payment.Currency,
	})
	if err != nil {
		return ingest.Event{}, false
	}

	return ingest.Event{
		ID:   fmt.Sprintf("reconcile:%s:%s", payment.ID, strings.ToLower(payment.Status)),
		Type: eventType,
		Resource: ingest.ResourceRef{
			Type: enums.ResourceTypePayment,
			ID:   payment.ID,
		},
		OccurredAt: payment.CreatedAt,
		Payload:    payload,
	}, true
}
