package enums

import "fmt"

// InvoiceStatus tracks the lifecycle of a member invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft          InvoiceStatus = "draft"
	InvoiceStatusSent           InvoiceStatus = "sent"
	InvoiceStatusPaymentPending InvoiceStatus = "payment_pending"
	InvoiceStatusPaid           InvoiceStatus = "paid"
	InvoiceStatusPaymentFailed  InvoiceStatus = "payment_failed"
	InvoiceStatusCanceled       InvoiceStatus = "canceled"
)

var validInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPaymentPending,
	InvoiceStatusPaid,
	InvoiceStatusPaymentFailed,
	InvoiceStatusCanceled,
}

// String implements fmt.Stringer.
func (i InvoiceStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InvoiceStatus.
func (i InvoiceStatus) IsValid() bool {
	for _, candidate := range validInvoiceStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInvoiceStatus converts raw input into an InvoiceStatus.
func ParseInvoiceStatus(value string) (InvoiceStatus, error) {
	for _, candidate := range validInvoiceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice status %q", value)
}
