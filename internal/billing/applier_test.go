package billing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harborclub/harborclub-backend/internal/bookings"
	"github.com/harborclub/harborclub-backend/internal/ingest"
	"github.com/harborclub/harborclub-backend/pkg/db/models"
	"github.com/harborclub/harborclub-backend/pkg/enums"
	pkgerrors "github.com/harborclub/harborclub-backend/pkg/errors"
)

func setupBillingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	invoices := `
CREATE TABLE IF NOT EXISTS invoices (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(6)))),
  member_id TEXT NOT NULL,
  gateway_invoice_id TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'draft',
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'usd',
  failure_reason TEXT,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	paymentIntents := `
CREATE TABLE IF NOT EXISTS payment_intents (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(6)))),
  gateway_payment_id TEXT NOT NULL UNIQUE,
  invoice_id TEXT,
  member_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'usd',
  failure_reason TEXT,
  succeeded_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	charges := `
CREATE TABLE IF NOT EXISTS charges (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(6)))),
  gateway_charge_id TEXT NOT NULL UNIQUE,
  invoice_id TEXT,
  member_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'usd',
  billed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	bookingsDDL := `
CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  member_id TEXT NOT NULL,
  invoice_id TEXT,
  facility_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'held',
  starts_at DATETIME NOT NULL,
  ends_at DATETIME NOT NULL,
  confirmed_at DATETIME,
  released_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`

	for _, ddl := range []string{invoices, paymentIntents, charges, bookingsDDL} {
		require.NoError(t, conn.Exec(ddl).Error)
	}
	return conn
}

type recordedNotice struct {
	memberID uuid.UUID
	kind     enums.NotificationType
}

type stubEffects struct {
	notices    []recordedNotice
	broadcasts []string
	crmSyncs   []string
}

func (s *stubEffects) NotifyMember(ctx context.Context, memberID uuid.UUID, notificationType enums.NotificationType, title, body string, data any) error {
	s.notices = append(s.notices, recordedNotice{memberID: memberID, kind: notificationType})
	return nil
}

func (s *stubEffects) BroadcastMemberEvent(ctx context.Context, eventType string, payload any) error {
	s.broadcasts = append(s.broadcasts, eventType)
	return nil
}

func (s *stubEffects) SyncCRM(ctx context.Context, resourceType, resourceID string, payload any) error {
	s.crmSyncs = append(s.crmSyncs, resourceID)
	return nil
}

func newTestApplier(effects *stubEffects) *Applier {
	return NewApplier(NewRepo(), bookings.NewRepo(), effects, nil)
}

func billingEvent(eventType enums.GatewayEventType, resourceType enums.ResourceType, resourceID string, payload any) ingest.Event {
	raw, _ := json.Marshal(payload)
	return ingest.Event{
		ID:   uuid.NewString(),
		Type: eventType,
		Resource: ingest.ResourceRef{
			Type: resourceType,
			ID:   resourceID,
		},
		Payload: raw,
	}
}

func seedHeldBooking(t *testing.T, conn *gorm.DB, memberID, invoiceID uuid.UUID) models.Booking {
	t.Helper()
	booking := models.Booking{
		ID:         uuid.New(),
		MemberID:   memberID,
		InvoiceID:  &invoiceID,
		FacilityID: uuid.New(),
		Status:     enums.BookingStatusHeld,
		StartsAt:   time.Now().Add(24 * time.Hour),
		EndsAt:     time.Now().Add(26 * time.Hour),
	}
	require.NoError(t, conn.Create(&booking).Error)
	return booking
}

func TestApplyInvoiceCreated(t *testing.T) {
	conn := setupBillingTestDB(t)
	effects := &stubEffects{}
	applier := newTestApplier(effects)
	memberID := uuid.New()
	queue := ingest.NewDeferredQueue(nil, nil)

	event := billingEvent(enums.GatewayEventInvoiceCreated, enums.ResourceTypeInvoice, "inv_100",
		map[string]any{"member_id": memberID.String(), "amount_cents": 12500, "currency": "USD"})

	require.NoError(t, applier.Apply(context.Background(), conn, event, queue))

	var invoice models.Invoice
	require.NoError(t, conn.First(&invoice, "gateway_invoice_id = ?", "inv_100").Error)
	assert.Equal(t, enums.InvoiceStatusDraft, invoice.Status)
	assert.Equal(t, memberID, invoice.MemberID)
	assert.Equal(t, "125", invoice.Amount.String())
	assert.Equal(t, "usd", invoice.Currency)
}

func TestApplyInvoicePaidConfirmsBookingsAndDefersNotices(t *testing.T) {
	conn := setupBillingTestDB(t)
	effects := &stubEffects{}
	applier := newTestApplier(effects)
	memberID := uuid.New()
	queue := ingest.NewDeferredQueue(nil, nil)

	created := billingEvent(enums.GatewayEventInvoiceCreated, enums.ResourceTypeInvoice, "inv_200",
		map[string]any{"member_id": memberID.String(), "amount_cents": 5000})
	require.NoError(t, applier.Apply(context.Background(), conn, created, ingest.NewDeferredQueue(nil, nil)))

	var invoice models.Invoice
	require.NoError(t, conn.First(&invoice, "gateway_invoice_id = ?", "inv_200").Error)
	seedHeldBooking(t, conn, memberID, invoice.ID)

	paid := billingEvent(enums.GatewayEventInvoicePaid, enums.ResourceTypeInvoice, "inv_200",
		map[string]any{"member_id": memberID.String(), "amount_cents": 5000})
	require.NoError(t, applier.Apply(context.Background(), conn, paid, queue))

	require.NoError(t, conn.First(&invoice, "gateway_invoice_id = ?", "inv_200").Error)
	assert.Equal(t, enums.InvoiceStatusPaid, invoice.Status)
	assert.NotNil(t, invoice.PaidAt)

	var booking models.Booking
	require.NoError(t, conn.First(&booking, "invoice_id = ?", invoice.ID).Error)
	assert.Equal(t, enums.BookingStatusConfirmed, booking.Status)

	// Notices fire only when the queue drains after commit.
	assert.Empty(t, effects.notices)
	require.NoError(t, queue.Drain(context.Background()))

	kinds := map[enums.NotificationType]bool{}
	for _, notice := range effects.notices {
		kinds[notice.kind] = true
	}
	assert.True(t, kinds[enums.NotificationBookingConfirmed])
	assert.True(t, kinds[enums.NotificationInvoicePaid])
	assert.Equal(t, []string{"invoice.paid"}, effects.broadcasts)
	assert.Equal(t, []string{"inv_200"}, effects.crmSyncs)
}

func TestApplyPaymentSucceededLinksInvoice(t *testing.T) {
	conn := setupBillingTestDB(t)
	effects := &stubEffects{}
	applier := newTestApplier(effects)
	memberID := uuid.New()

	created := billingEvent(enums.GatewayEventInvoiceCreated, enums.ResourceTypeInvoice, "inv_300",
		map[string]any{"member_id": memberID.String(), "amount_cents": 8000})
	require.NoError(t, applier.Apply(context.Background(), conn, created, ingest.NewDeferredQueue(nil, nil)))

	var invoice models.Invoice
	require.NoError(t, conn.First(&invoice, "gateway_invoice_id = ?", "inv_300").Error)
	seedHeldBooking(t, conn, memberID, invoice.ID)

	queue := ingest.NewDeferredQueue(nil, nil)
	succeeded := billingEvent(enums.GatewayEventPaymentSucceeded, enums.ResourceTypePayment, "pay_300",
		map[string]any{"member_id": memberID.String(), "invoice_id": "inv_300", "amount_cents": 8000})
	require.NoError(t, applier.Apply(context.Background(), conn, succeeded, queue))

	var intent models.PaymentIntent
	require.NoError(t, conn.First(&intent, "gateway_payment_id = ?", "pay_300").Error)
	assert.Equal(t, enums.PaymentStatusSucceeded, intent.Status)
	require.NotNil(t, intent.InvoiceID)
	assert.Equal(t, invoice.ID, *intent.InvoiceID)
	assert.NotNil(t, intent.SucceededAt)

	var booking models.Booking
	require.NoError(t, conn.First(&booking, "invoice_id = ?", invoice.ID).Error)
	assert.Equal(t, enums.BookingStatusConfirmed, booking.Status)
}

func TestApplyPaymentFailedReleasesBookings(t *testing.T) {
	conn := setupBillingTestDB(t)
	effects := &stubEffects{}
	applier := newTestApplier(effects)
	memberID := uuid.New()

	created := billingEvent(enums.GatewayEventInvoiceCreated, enums.ResourceTypeInvoice, "inv_400",
		map[string]any{"member_id": memberID.String(), "amount_cents": 8000})
	require.NoError(t, applier.Apply(context.Background(), conn, created, ingest.NewDeferredQueue(nil, nil)))

	var invoice models.Invoice
	require.NoError(t, conn.First(&invoice, "gateway_invoice_id = ?", "inv_400").Error)
	seedHeldBooking(t, conn, memberID, invoice.ID)

	queue := ingest.NewDeferredQueue(nil, nil)
	failed := billingEvent(enums.GatewayEventPaymentFailed, enums.ResourceTypePayment, "pay_400",
		map[string]any{"member_id": memberID.String(), "invoice_id": "inv_400", "failure_reason": "card_declined"})
	require.NoError(t, applier.Apply(context.Background(), conn, failed, queue))

	var intent models.PaymentIntent
	require.NoError(t, conn.First(&intent, "gateway_payment_id = ?", "pay_400").Error)
	assert.Equal(t, enums.PaymentStatusFailed, intent.Status)
	require.NotNil(t, intent.FailureReason)
	assert.Equal(t, "card_declined", *intent.FailureReason)

	var booking models.Booking
	require.NoError(t, conn.First(&booking, "invoice_id = ?", invoice.ID).Error)
	assert.Equal(t, enums.BookingStatusReleased, booking.Status)

	require.NoError(t, queue.Drain(context.Background()))
	kinds := map[enums.NotificationType]bool{}
	for _, notice := range effects.notices {
		kinds[notice.kind] = true
	}
	assert.True(t, kinds[enums.NotificationPaymentFailed])
	assert.True(t, kinds[enums.NotificationBookingReleased])
}

func TestApplyChargeLifecycle(t *testing.T) {
	conn := setupBillingTestDB(t)
	applier := newTestApplier(&stubEffects{})

	created := billingEvent(enums.GatewayEventChargeCreated, enums.ResourceTypeCharge, "chg_500",
		map[string]any{"amount_cents": 1500})
	require.NoError(t, applier.Apply(context.Background(), conn, created, ingest.NewDeferredQueue(nil, nil)))

	updated := billingEvent(enums.GatewayEventChargeUpdated, enums.ResourceTypeCharge, "chg_500",
		map[string]any{"amount_cents": 1500, "status": "settled"})
	require.NoError(t, applier.Apply(context.Background(), conn, updated, ingest.NewDeferredQueue(nil, nil)))

	var charge models.Charge
	require.NoError(t, conn.First(&charge, "gateway_charge_id = ?", "chg_500").Error)
	assert.Equal(t, enums.ChargeStatusSettled, charge.Status)
	assert.NotNil(t, charge.BilledAt)
}

func TestApplyRejectsMalformedPayloadAsPermanent(t *testing.T) {
	conn := setupBillingTestDB(t)
	applier := newTestApplier(&stubEffects{})

	event := ingest.Event{
		ID:   uuid.NewString(),
		Type: enums.GatewayEventInvoiceCreated,
		Resource: ingest.ResourceRef{
			Type: enums.ResourceTypeInvoice,
			ID:   "inv_600",
		},
		Payload: json.RawMessage(`{"member_id": "not-a-uuid"}`),
	}

	err := applier.Apply(context.Background(), conn, event, ingest.NewDeferredQueue(nil, nil))
	require.Error(t, err)
	assert.False(t, pkgerrors.IsRetryable(err))
}

func TestApplyRejectsInvalidChargeStatus(t *testing.T) {
	conn := setupBillingTestDB(t)
	applier := newTestApplier(&stubEffects{})

	event := billingEvent(enums.GatewayEventChargeUpdated, enums.ResourceTypeCharge, "chg_700",
		map[string]any{"amount_cents": 1000, "status": "vaporized"})

	err := applier.Apply(context.Background(), conn, event, ingest.NewDeferredQueue(nil, nil))
	require.Error(t, err)
	assert.False(t, pkgerrors.IsRetryable(err))
}
