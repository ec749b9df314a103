package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborclub/harborclub-backend/pkg/enums"
)

// PaymentIntent tracks payment progress reported by the gateway.
type PaymentIntent struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GatewayPaymentID string              `gorm:"column:gateway_payment_id;not null;unique"`
	InvoiceID        *uuid.UUID          `gorm:"column:invoice_id;type:uuid;index"`
	MemberID         *uuid.UUID          `gorm:"column:member_id;type:uuid;index"`
	Status           enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	Amount           decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency         string              `gorm:"column:currency;not null;default:'usd'"`
	FailureReason    *string             `gorm:"column:failure_reason"`
	SucceededAt      *time.Time          `gorm:"column:succeeded_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
