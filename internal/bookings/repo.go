package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborclub/harborclub-backend/pkg/db/models"
	"github.com/harborclub/harborclub-backend/pkg/enums"
)

// Repo manages facility bookings. Confirmation and release run inside the
// ingest claim transaction so a booking can never flip state for a payment
// that did not commit.
type Repo struct{}

// NewRepo returns the bookings persistence layer.
func NewRepo() *Repo {
	return &Repo{}
}

// ConfirmForInvoice promotes every held booking on the invoice to
// confirmed. Already-confirmed bookings are untouched, so replays and
// priority ties stay harmless.
func (r *Repo) ConfirmForInvoice(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID) ([]models.Booking, error) {
	held, err := r.byInvoiceAndStatus(ctx, tx, invoiceID, enums.BookingStatusHeld)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range held {
		held[i].Status = enums.BookingStatusConfirmed
		held[i].ConfirmedAt = &now
		if err := tx.WithContext(ctx).Save(&held[i]).Error; err != nil {
			return nil, err
		}
	}
	return held, nil
}

// ReleaseForInvoice frees every held booking on the invoice after a
// terminal payment failure or cancellation.
func (r *Repo) ReleaseForInvoice(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID) ([]models.Booking, error) {
	held, err := r.byInvoiceAndStatus(ctx, tx, invoiceID, enums.BookingStatusHeld)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range held {
		held[i].Status = enums.BookingStatusReleased
		held[i].ReleasedAt = &now
		if err := tx.WithContext(ctx).Save(&held[i]).Error; err != nil {
			return nil, err
		}
	}
	return held, nil
}

func (r *Repo) byInvoiceAndStatus(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID, status enums.BookingStatus) ([]models.Booking, error) {
	var rows []models.Booking
	err := tx.WithContext(ctx).
		Where("invoice_id = ? AND status = ?", invoiceID, status).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
