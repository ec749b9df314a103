package ingest

import "github.com/harborclub/harborclub-backend/pkg/enums"

// eventPriority ranks event types within a resource's lifecycle. Webhook
// deliveries arrive in arbitrary order; an event is only applied if no
// strictly higher-priority event has already been applied to the same
// resource. Terminal states share a rank on purpose: a resource can
// legitimately see payment.failed after payment.succeeded (partial capture
// followed by a dispute), so neither suppresses the other.
var eventPriority = map[enums.GatewayEventType]int{
	enums.GatewayEventPaymentCreated:    10,
	enums.GatewayEventPaymentAuthorized: 20,
	enums.GatewayEventPaymentSucceeded:  30,
	enums.GatewayEventPaymentFailed:     30,
	enums.GatewayEventPaymentCanceled:   30,

	enums.GatewayEventInvoiceCreated:        10,
	enums.GatewayEventInvoiceSent:           20,
	enums.GatewayEventInvoicePaymentPending: 30,
	enums.GatewayEventInvoicePaid:           40,
	enums.GatewayEventInvoicePaymentFailed:  40,
	enums.GatewayEventInvoiceCanceled:       40,

	enums.GatewayEventChargeCreated: 10,
	enums.GatewayEventChargeUpdated: 20,
}

// Priority returns the lifecycle rank for an event type. Unknown types
// report ok=false and are treated as permanent failures by the engine.
func Priority(eventType enums.GatewayEventType) (int, bool) {
	priority, ok := eventPriority[eventType]
	return priority, ok
}
