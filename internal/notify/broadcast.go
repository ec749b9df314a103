package notify

import (
	"context"
	"encoding/json"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	pkgerrors "github.com/harborclub/harborclub-backend/pkg/errors"
)

const defaultPublishTimeout = 15 * time.Second

// Broadcaster fans a member event out to interested consumers.
type Broadcaster interface {
	Broadcast(ctx context.Context, eventType string, payload any) error
}

// PubSubBroadcaster publishes member events on the shared topic.
type PubSubBroadcaster struct {
	publisher *gcppubsub.Publisher
	timeout   time.Duration
}

// NewPubSubBroadcaster wraps a Pub/Sub publisher.
func NewPubSubBroadcaster(publisher *gcppubsub.Publisher) *PubSubBroadcaster {
	return &PubSubBroadcaster{publisher: publisher, timeout: defaultPublishTimeout}
}

// Broadcast publishes one event and waits for the server ack.
func (b *PubSubBroadcaster) Broadcast(ctx context.Context, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding member event")
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	result := b.publisher.Publish(ctx, &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type": eventType,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publishing member event")
	}
	return nil
}
