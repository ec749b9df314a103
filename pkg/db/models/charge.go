package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborclub/harborclub-backend/pkg/enums"
)

// Charge records a settled gateway charge against a member.
type Charge struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GatewayChargeID string             `gorm:"column:gateway_charge_id;not null;unique"`
	InvoiceID       *uuid.UUID         `gorm:"column:invoice_id;type:uuid;index"`
	MemberID        *uuid.UUID         `gorm:"column:member_id;type:uuid;index"`
	Status          enums.ChargeStatus `gorm:"column:status;not null;default:'pending'"`
	Amount          decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency        string             `gorm:"column:currency;not null;default:'usd'"`
	BilledAt        *time.Time         `gorm:"column:billed_at"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
