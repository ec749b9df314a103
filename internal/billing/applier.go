package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborclub/harborclub-backend/internal/ingest"
	"github.com/harborclub/harborclub-backend/pkg/db/models"
	"github.com/harborclub/harborclub-backend/pkg/enums"
	pkgerrors "github.com/harborclub/harborclub-backend/pkg/errors"
	"github.com/harborclub/harborclub-backend/pkg/logger"
)

// SideEffects is the post-commit surface the applier stages work onto.
// Implementations run outside the claim transaction.
type SideEffects interface {
	NotifyMember(ctx context.Context, memberID uuid.UUID, notificationType enums.NotificationType, title, body string, data any) error
	BroadcastMemberEvent(ctx context.Context, eventType string, payload any) error
	SyncCRM(ctx context.Context, resourceType, resourceID string, payload any) error
}

// BookingManager flips facility bookings inside the claim transaction.
type BookingManager interface {
	ConfirmForInvoice(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID) ([]models.Booking, error)
	ReleaseForInvoice(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID) ([]models.Booking, error)
}

// Applier translates gateway events into billing mutations. It implements
// the ingest engine's mutation hook: database writes go through tx, member
// notifications and external sync go through the deferred queue.
type Applier struct {
	repo     *Repo
	bookings BookingManager
	effects  SideEffects
	logger   *logger.Logger
}

// NewApplier wires the billing mutation layer.
func NewApplier(repo *Repo, bookings BookingManager, effects SideEffects, logg *logger.Logger) *Applier {
	return &Applier{repo: repo, bookings: bookings, effects: effects, logger: logg}
}

// Apply dispatches on the event's resource type. Validation errors are
// permanent: the engine keeps the claim and never retries the event.
func (a *Applier) Apply(ctx context.Context, tx *gorm.DB, event ingest.Event, queue *ingest.DeferredQueue) error {
	switch event.Resource.Type {
	case enums.ResourceTypePayment:
		return a.applyPayment(ctx, tx, event, queue)
	case enums.ResourceTypeInvoice:
		return a.applyInvoice(ctx, tx, event, queue)
	case enums.ResourceTypeCharge:
		return a.applyCharge(ctx, tx, event)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported resource type %q", event.Resource.Type))
	}
}

func (a *Applier) applyPayment(ctx context.Context, tx *gorm.DB, event ingest.Event, queue *ingest.DeferredQueue) error {
	var payload paymentPayload
	if err := decodePayload(event.Payload, &payload); err != nil {
		return err
	}

	intent, err := a.repo.PaymentIntentByGatewayID(ctx, tx, event.Resource.ID)
	if err != nil {
		return err
	}
	created := intent == nil
	if created {
		intent = &models.PaymentIntent{
			GatewayPaymentID: event.Resource.ID,
			Status:           enums.PaymentStatusPending,
			Amount:           amountFromCents(payload.AmountCents),
			Currency:         normalizeCurrency(payload.Currency),
		}
	}

	if payload.MemberID != "" {
		memberID, err := uuid.Parse(payload.MemberID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid member id")
		}
		intent.MemberID = &memberID
	}
	if payload.GatewayInvoiceID != "" && intent.InvoiceID == nil {
		invoice, err := a.repo.InvoiceByGatewayID(ctx, tx, payload.GatewayInvoiceID)
		if err != nil {
			return err
		}
		if invoice != nil {
			intent.InvoiceID = &invoice.ID
		}
	}

	switch event.Type {
	case enums.GatewayEventPaymentCreated:
		intent.Status = enums.PaymentStatusPending
	case enums.GatewayEventPaymentAuthorized:
		intent.Status = enums.PaymentStatusAuthorized
	case enums.GatewayEventPaymentSucceeded:
		now := time.Now().UTC()
		intent.Status = enums.PaymentStatusSucceeded
		intent.SucceededAt = &now
		intent.FailureReason = nil
		if intent.InvoiceID != nil {
			if err := a.confirmBookings(ctx, tx, queue, *intent.InvoiceID); err != nil {
				return err
			}
		}
		a.enqueueMemberNotice(queue, intent.MemberID, enums.NotificationPaymentReceived,
			"Payment received", "Your payment has been received.",
			map[string]string{"payment_id": intent.GatewayPaymentID})
	case enums.GatewayEventPaymentFailed:
		intent.Status = enums.PaymentStatusFailed
		if payload.FailureReason != "" {
			reason := payload.FailureReason
			intent.FailureReason = &reason
		}
		if intent.InvoiceID != nil {
			if err := a.releaseBookings(ctx, tx, queue, *intent.InvoiceID); err != nil {
				return err
			}
		}
		a.enqueueMemberNotice(queue, intent.MemberID, enums.NotificationPaymentFailed,
			"Payment failed", "Your payment could not be processed.",
			map[string]string{"payment_id": intent.GatewayPaymentID})
	case enums.GatewayEventPaymentCanceled:
		intent.Status = enums.PaymentStatusCanceled
		if intent.InvoiceID != nil {
			if err := a.releaseBookings(ctx, tx, queue, *intent.InvoiceID); err != nil {
				return err
			}
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("event type %q not valid for payments", event.Type))
	}

	if created {
		if err := a.repo.CreatePaymentIntent(ctx, tx, intent); err != nil {
			return err
		}
	} else if err := a.repo.SavePaymentIntent(ctx, tx, intent); err != nil {
		return err
	}

	a.enqueueBroadcast(queue, event.Type.String(), map[string]string{
		"payment_id": intent.GatewayPaymentID,
		"status":     intent.Status.String(),
	})
	return nil
}

func (a *Applier) applyInvoice(ctx context.Context, tx *gorm.DB, event ingest.Event, queue *ingest.DeferredQueue) error {
	var payload invoicePayload
	if err := decodePayload(event.Payload, &payload); err != nil {
		return err
	}
	memberID, err := uuid.Parse(payload.MemberID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid member id")
	}

	invoice, err := a.repo.InvoiceByGatewayID(ctx, tx, event.Resource.ID)
	if err != nil {
		return err
	}
	created := invoice == nil
	if created {
		invoice = &models.Invoice{
			MemberID:         memberID,
			GatewayInvoiceID: event.Resource.ID,
			Status:           enums.InvoiceStatusDraft,
			Amount:           amountFromCents(payload.AmountCents),
			Currency:         normalizeCurrency(payload.Currency),
		}
	}

	switch event.Type {
	case enums.GatewayEventInvoiceCreated:
		invoice.Status = enums.InvoiceStatusDraft
	case enums.GatewayEventInvoiceSent:
		invoice.Status = enums.InvoiceStatusSent
	case enums.GatewayEventInvoicePaymentPending:
		invoice.Status = enums.InvoiceStatusPaymentPending
	case enums.GatewayEventInvoicePaid:
		now := time.Now().UTC()
		invoice.Status = enums.InvoiceStatusPaid
		invoice.PaidAt = &now
		invoice.FailureReason = nil
	case enums.GatewayEventInvoicePaymentFailed:
		invoice.Status = enums.InvoiceStatusPaymentFailed
		if payload.FailureReason != "" {
			reason := payload.FailureReason
			invoice.FailureReason = &reason
		}
	case enums.GatewayEventInvoiceCanceled:
		invoice.Status = enums.InvoiceStatusCanceled
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("event type %q not valid for invoices", event.Type))
	}

	if created {
		if err := a.repo.CreateInvoice(ctx, tx, invoice); err != nil {
			return err
		}
	} else if err := a.repo.SaveInvoice(ctx, tx, invoice); err != nil {
		return err
	}

	switch event.Type {
	case enums.GatewayEventInvoicePaid:
		if err := a.confirmBookings(ctx, tx, queue, invoice.ID); err != nil {
			return err
		}
		a.enqueueMemberNotice(queue, &invoice.MemberID, enums.NotificationInvoicePaid,
			"Invoice paid", "Your invoice has been paid in full.",
			map[string]string{"invoice_id": invoice.GatewayInvoiceID})
	case enums.GatewayEventInvoicePaymentFailed, enums.GatewayEventInvoiceCanceled:
		if err := a.releaseBookings(ctx, tx, queue, invoice.ID); err != nil {
			return err
		}
	}

	a.enqueueBroadcast(queue, event.Type.String(), map[string]string{
		"invoice_id": invoice.GatewayInvoiceID,
		"status":     invoice.Status.String(),
	})
	a.enqueueCRMSync(queue, enums.ResourceTypeInvoice, invoice.GatewayInvoiceID, map[string]string{
		"status": invoice.Status.String(),
	})
	return nil
}

func (a *Applier) applyCharge(ctx context.Context, tx *gorm.DB, event ingest.Event) error {
	var payload chargePayload
	if err := decodePayload(event.Payload, &payload); err != nil {
		return err
	}

	charge, err := a.repo.ChargeByGatewayID(ctx, tx, event.Resource.ID)
	if err != nil {
		return err
	}
	created := charge == nil
	if created {
		charge = &models.Charge{
			GatewayChargeID: event.Resource.ID,
			Status:          enums.ChargeStatusPending,
			Amount:          amountFromCents(payload.AmountCents),
			Currency:        normalizeCurrency(payload.Currency),
		}
	}

	if payload.MemberID != "" {
		memberID, err := uuid.Parse(payload.MemberID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid member id")
		}
		charge.MemberID = &memberID
	}
	if payload.GatewayInvoiceID != "" && charge.InvoiceID == nil {
		invoice, err := a.repo.InvoiceByGatewayID(ctx, tx, payload.GatewayInvoiceID)
		if err != nil {
			return err
		}
		if invoice != nil {
			charge.InvoiceID = &invoice.ID
		}
	}

	switch event.Type {
	case enums.GatewayEventChargeCreated:
		charge.Status = enums.ChargeStatusPending
	case enums.GatewayEventChargeUpdated:
		status, err := enums.ParseChargeStatus(payload.Status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid charge status")
		}
		charge.Status = status
		if status == enums.ChargeStatusSettled && charge.BilledAt == nil {
			now := time.Now().UTC()
			charge.BilledAt = &now
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("event type %q not valid for charges", event.Type))
	}

	if created {
		return a.repo.CreateCharge(ctx, tx, charge)
	}
	return a.repo.SaveCharge(ctx, tx, charge)
}

func (a *Applier) confirmBookings(ctx context.Context, tx *gorm.DB, queue *ingest.DeferredQueue, invoiceID uuid.UUID) error {
	confirmed, err := a.bookings.ConfirmForInvoice(ctx, tx, invoiceID)
	if err != nil {
		return err
	}
	for _, booking := range confirmed {
		booking := booking
		a.enqueueMemberNotice(queue, &booking.MemberID, enums.NotificationBookingConfirmed,
			"Booking confirmed", "Your facility booking is confirmed.",
			map[string]string{"booking_id": booking.ID.String()})
	}
	return nil
}

func (a *Applier) releaseBookings(ctx context.Context, tx *gorm.DB, queue *ingest.DeferredQueue, invoiceID uuid.UUID) error {
	released, err := a.bookings.ReleaseForInvoice(ctx, tx, invoiceID)
	if err != nil {
		return err
	}
	for _, booking := range released {
		booking := booking
		a.enqueueMemberNotice(queue, &booking.MemberID, enums.NotificationBookingReleased,
			"Booking released", "Your facility booking was released because payment did not complete.",
			map[string]string{"booking_id": booking.ID.String()})
	}
	return nil
}

func (a *Applier) enqueueMemberNotice(queue *ingest.DeferredQueue, memberID *uuid.UUID, notificationType enums.NotificationType, title, body string, data map[string]string) {
	if a.effects == nil || memberID == nil {
		return
	}
	id := *memberID
	queue.Enqueue(ingest.Action{
		Name: "member_notification",
		Run: func(ctx context.Context) error {
			return a.effects.NotifyMember(ctx, id, notificationType, title, body, data)
		},
	})
}

func (a *Applier) enqueueBroadcast(queue *ingest.DeferredQueue, eventType string, payload map[string]string) {
	if a.effects == nil {
		return
	}
	queue.Enqueue(ingest.Action{
		Name: "member_event_broadcast",
		Run: func(ctx context.Context) error {
			return a.effects.BroadcastMemberEvent(ctx, eventType, payload)
		},
	})
}

func (a *Applier) enqueueCRMSync(queue *ingest.DeferredQueue, resourceType enums.ResourceType, resourceID string, payload map[string]string) {
	if a.effects == nil {
		return
	}
	queue.Enqueue(ingest.Action{
		Name: "crm_sync",
		Run: func(ctx context.Context) error {
			return a.effects.SyncCRM(ctx, resourceType.String(), resourceID, payload)
		},
	})
}
