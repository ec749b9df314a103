package ingest

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/harborclub/harborclub-backend/pkg/enums"
)

// Outcome classifies how the engine disposed of an event. Every outcome is
// terminal: the caller acknowledges the delivery regardless of which one it
// gets. Only a non-nil error from Process means "retry me".
type Outcome string

const (
	// OutcomeApplied means the mutation ran and the event was recorded.
	OutcomeApplied Outcome = "applied"
	// OutcomeDuplicate means the event id was already claimed by an
	// earlier delivery. Nothing was written.
	OutcomeDuplicate Outcome = "skipped_duplicate"
	// OutcomeStale means the event arrived after a higher-priority event
	// for the same resource. It was recorded for audit but its mutation
	// was skipped.
	OutcomeStale Outcome = "skipped_stale"
	// OutcomePermanentFailure means the event can never succeed (unknown
	// type, malformed payload, business rejection). The claim is kept so
	// the poison pill is never retried; no history row is written.
	OutcomePermanentFailure Outcome = "permanent_failure"
)

// ResourceRef identifies the billing resource an event mutates.
type ResourceRef struct {
	Type enums.ResourceType
	ID   string
}

// Event is a normalized gateway webhook event, decoupled from the wire DTO.
type Event struct {
	ID         string
	Type       enums.GatewayEventType
	Resource   ResourceRef
	OccurredAt time.Time
	Payload    json.RawMessage
}

// Result reports the terminal disposition of one processed event.
type Result struct {
	Outcome Outcome
}

var (
	errEventIDRequired    = errors.New("event id is required")
	errResourceIDRequired = errors.New("resource id is required")
)

// Validate checks the structural fields the engine cannot work without.
// An invalid resource type or event type is not checked here: those are
// business-level permanent failures, not transport errors.
func (e Event) Validate() error {
	if e.ID == "" {
		return errEventIDRequired
	}
	if e.Resource.ID == "" {
		return errResourceIDRequired
	}
	return nil
}
