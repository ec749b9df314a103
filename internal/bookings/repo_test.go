package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harborclub/harborclub-backend/pkg/db/models"
	"github.com/harborclub/harborclub-backend/pkg/enums"
)

func setupBookingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
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
	require.NoError(t, conn.Exec(ddl).Error)
	return conn
}

func seedBooking(t *testing.T, conn *gorm.DB, invoiceID uuid.UUID, status enums.BookingStatus) models.Booking {
	t.Helper()
	booking := models.Booking{
		ID:         uuid.New(),
		MemberID:   uuid.New(),
		InvoiceID:  &invoiceID,
		FacilityID: uuid.New(),
		Status:     status,
		StartsAt:   time.Now().Add(24 * time.Hour),
		EndsAt:     time.Now().Add(26 * time.Hour),
	}
	require.NoError(t, conn.Create(&booking).Error)
	return booking
}

func TestConfirmForInvoicePromotesHeldBookings(t *testing.T) {
	conn := setupBookingsTestDB(t)
	repo := NewRepo()
	invoiceID := uuid.New()

	seedBooking(t, conn, invoiceID, enums.BookingStatusHeld)
	seedBooking(t, conn, invoiceID, enums.BookingStatusHeld)
	other := seedBooking(t, conn, uuid.New(), enums.BookingStatusHeld)

	confirmed, err := repo.ConfirmForInvoice(context.Background(), conn, invoiceID)
	require.NoError(t, err)
	require.Len(t, confirmed, 2)
	for _, booking := range confirmed {
		assert.Equal(t, enums.BookingStatusConfirmed, booking.Status)
		assert.NotNil(t, booking.ConfirmedAt)
	}

	var untouched models.Booking
	require.NoError(t, conn.First(&untouched, "id = ?", other.ID).Error)
	assert.Equal(t, enums.BookingStatusHeld, untouched.Status)
}

func TestConfirmForInvoiceIsIdempotent(t *testing.T) {
	conn := setupBookingsTestDB(t)
	repo := NewRepo()
	invoiceID := uuid.New()
	seedBooking(t, conn, invoiceID, enums.BookingStatusHeld)

	first, err := repo.ConfirmForInvoice(context.Background(), conn, invoiceID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := repo.ConfirmForInvoice(context.Background(), conn, invoiceID)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestReleaseForInvoiceFreesHeldBookings(t *testing.T) {
	conn := setupBookingsTestDB(t)
	repo := NewRepo()
	invoiceID := uuid.New()

	seedBooking(t, conn, invoiceID, enums.BookingStatusHeld)
	confirmedBooking := seedBooking(t, conn, invoiceID, enums.BookingStatusConfirmed)

	released, err := repo.ReleaseForInvoice(context.Background(), conn, invoiceID)
	require.NoError(t, err)
	require.Len(t, released, 1)
	assert.Equal(t, enums.BookingStatusReleased, released[0].Status)
	assert.NotNil(t, released[0].ReleasedAt)

	// A booking already confirmed by an earlier payment is never clawed
	// back by a later terminal failure event.
	var kept models.Booking
	require.NoError(t, conn.First(&kept, "id = ?", confirmedBooking.ID).Error)
	assert.Equal(t, enums.BookingStatusConfirmed, kept.Status)
}
