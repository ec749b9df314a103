package enums

import "fmt"

// GatewayEventType identifies a payment-gateway webhook event.
type GatewayEventType string

const (
	GatewayEventPaymentCreated    GatewayEventType = "payment.created"
	GatewayEventPaymentAuthorized GatewayEventType = "payment.authorized"
	GatewayEventPaymentSucceeded  GatewayEventType = "payment.succeeded"
	GatewayEventPaymentFailed     GatewayEventType = "payment.failed"
	GatewayEventPaymentCanceled   GatewayEventType = "payment.canceled"

	GatewayEventInvoiceCreated        GatewayEventType = "invoice.created"
	GatewayEventInvoiceSent           GatewayEventType = "invoice.sent"
	GatewayEventInvoicePaymentPending GatewayEventType = "invoice.payment_pending"
	GatewayEventInvoicePaid           GatewayEventType = "invoice.paid"
	GatewayEventInvoicePaymentFailed  GatewayEventType = "invoice.payment_failed"
	GatewayEventInvoiceCanceled       GatewayEventType = "invoice.canceled"

	GatewayEventChargeCreated GatewayEventType = "charge.created"
	GatewayEventChargeUpdated GatewayEventType = "charge.updated"
)

var validGatewayEventTypes = []GatewayEventType{
	GatewayEventPaymentCreated,
	GatewayEventPaymentAuthorized,
	GatewayEventPaymentSucceeded,
	GatewayEventPaymentFailed,
	GatewayEventPaymentCanceled,
	GatewayEventInvoiceCreated,
	GatewayEventInvoiceSent,
	GatewayEventInvoicePaymentPending,
	GatewayEventInvoicePaid,
	GatewayEventInvoicePaymentFailed,
	GatewayEventInvoiceCanceled,
	GatewayEventChargeCreated,
	GatewayEventChargeUpdated,
}

// String implements fmt.Stringer.
func (g GatewayEventType) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GatewayEventType.
func (g GatewayEventType) IsValid() bool {
	for _, candidate := range validGatewayEventTypes {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGatewayEventType converts raw input into a GatewayEventType.
func ParseGatewayEventType(value string) (GatewayEventType, error) {
	for _, candidate := range validGatewayEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gateway event type %q", value)
}
