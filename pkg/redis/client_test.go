package redis

import (
	"testing"
	"time"

	"github.com/harborclub/harborclub-backend/pkg/config"
)

func TestOptionsFromConfigURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		URL:          "redis://:pw@localhost:6380/2",
		PoolSize:     15,
		MinIdleConns: 3,
		DialTimeout:  2 * time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
	if opts.DB != 2 {
		t.Fatalf("unexpected db %d", opts.DB)
	}
	if opts.PoolSize != 15 {
		t.Fatalf("pool size not applied, got %d", opts.PoolSize)
	}
}

func TestOptionsFromConfigRequiresEndpoint(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when neither url nor address set")
	}
}

func TestIdempotencyKeyNamespacing(t *testing.T) {
	c := &Client{}
	key := c.IdempotencyKey("gateway_webhook", "evt_123")
	if key != "hc:idempotency:gateway_webhook:evt_123" {
		t.Fatalf("unexpected key %q", key)
	}
}
