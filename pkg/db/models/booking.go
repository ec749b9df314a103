package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborclub/harborclub-backend/pkg/enums"
)

// Booking is a member's hold on a club facility. Bookings are held until
// their invoice settles, confirmed on payment, and released on terminal
// payment failure.
type Booking struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MemberID    uuid.UUID           `gorm:"column:member_id;type:uuid;not null;index"`
	InvoiceID   *uuid.UUID          `gorm:"column:invoice_id;type:uuid;index"`
	FacilityID  uuid.UUID           `gorm:"column:facility_id;type:uuid;not null"`
	Status      enums.BookingStatus `gorm:"column:status;not null;default:'held'"`
	StartsAt    time.Time           `gorm:"column:starts_at;not null"`
	EndsAt      time.Time           `gorm:"column:ends_at;not null"`
	ConfirmedAt *time.Time          `gorm:"column:confirmed_at"`
	ReleasedAt  *time.Time          `gorm:"column:released_at"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
