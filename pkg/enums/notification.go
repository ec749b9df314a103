package enums

// NotificationType categorizes member-facing notifications.
type NotificationType string

const (
	NotificationPaymentReceived  NotificationType = "payment_received"
	NotificationPaymentFailed    NotificationType = "payment_failed"
	NotificationInvoicePaid      NotificationType = "invoice_paid"
	NotificationInvoiceOverdue   NotificationType = "invoice_overdue"
	NotificationBookingConfirmed NotificationType = "booking_confirmed"
	NotificationBookingReleased  NotificationType = "booking_released"
)

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}
