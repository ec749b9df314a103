package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIdempotencyStore struct {
	keys      map[string]bool
	setNXErr  error
	delErr    error
	deleted   []string
	lastTTL   time.Duration
	lastValue any
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{keys: map[string]bool{}}
}

func (s *stubIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	if s.keys[key] {
		return "1", nil
	}
	return "", errors.New("redis: nil")
}

func (s *stubIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.setNXErr != nil {
		return false, s.setNXErr
	}
	s.lastTTL = ttl
	s.lastValue = value
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return strings.Join([]string{"hc", "idempotency", scope, id}, ":")
}

func (s *stubIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	if s.delErr != nil {
		return s.delErr
	}
	for _, key := range keys {
		delete(s.keys, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

func TestGuardMarksFirstDeliveryAndCatchesSecond(t *testing.T) {
	store := newStubIdempotencyStore()
	guard := NewGuard(store, time.Hour, nil)

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Equal(t, time.Hour, store.lastTTL)

	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestGuardFailsOpenOnStoreError(t *testing.T) {
	store := newStubIdempotencyStore()
	store.setNXErr = errors.New("connection refused")
	guard := NewGuard(store, time.Hour, nil)

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestGuardReleaseUnblocksRetry(t *testing.T) {
	store := newStubIdempotencyStore()
	guard := NewGuard(store, time.Hour, nil)

	_, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)

	guard.Release(context.Background(), "evt_1")
	require.Len(t, store.deleted, 1)

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestGuardNilStoreIsNoop(t *testing.T) {
	guard := NewGuard(nil, time.Hour, nil)
	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
	guard.Release(context.Background(), "evt_1")
}
