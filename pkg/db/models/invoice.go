package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborclub/harborclub-backend/pkg/enums"
)

// Invoice bills a member for bookings and club fees.
type Invoice struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MemberID         uuid.UUID           `gorm:"column:member_id;type:uuid;not null;index"`
	GatewayInvoiceID string              `gorm:"column:gateway_invoice_id;not null;unique"`
	Status           enums.InvoiceStatus `gorm:"column:status;not null;default:'draft'"`
	Amount           decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency         string              `gorm:"column:currency;not null;default:'usd'"`
	FailureReason    *string             `gorm:"column:failure_reason"`
	PaidAt           *time.Time          `gorm:"column:paid_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
