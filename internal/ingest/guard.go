package ingest

import (
	"context"
	"time"

	"github.com/harborclub/harborclub-backend/pkg/logger"
	"github.com/harborclub/harborclub-backend/pkg/redis"
)

const guardScope = "gateway-event"

// Guard is the Redis fast path in front of the engine. It suppresses the
// common duplicate redelivery without a database round trip, but it is
// advisory only: the processed_events unique index remains the authority,
// so the guard fails open whenever Redis misbehaves.
type Guard struct {
	store  redis.IdempotencyStore
	ttl    time.Duration
	logger *logger.Logger
}

// NewGuard builds the fast-path duplicate filter.
func NewGuard(store redis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) *Guard {
	return &Guard{store: store, ttl: ttl, logger: logg}
}

// CheckAndMark marks the event id as seen. It returns true when the id was
// already marked, meaning the delivery is almost certainly a duplicate.
// Store errors are logged and reported as "not seen".
func (g *Guard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if g == nil || g.store == nil {
		return false, nil
	}
	key := g.store.IdempotencyKey(guardScope, eventID)
	stored, err := g.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl)
	if err != nil {
		if g.logger != nil {
			g.logger.Warn(g.logger.WithField(ctx, "event_id", eventID), "idempotency guard unavailable, falling through to database")
		}
		return false, nil
	}
	return !stored, nil
}

// Release removes the mark so a transient processing failure does not block
// the gateway's retry of the same event id.
func (g *Guard) Release(ctx context.Context, eventID string) {
	if g == nil || g.store == nil {
		return
	}
	key := g.store.IdempotencyKey(guardScope, eventID)
	if err := g.store.Del(ctx, key); err != nil && g.logger != nil {
		g.logger.Warn(g.logger.WithField(ctx, "event_id", eventID), "failed to release idempotency mark")
	}
}
