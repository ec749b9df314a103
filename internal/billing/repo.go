package billing

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/harborclub/harborclub-backend/pkg/db/models"
)

// Repo is the billing persistence layer. Every method takes the caller's
// transaction handle: billing mutations always run inside the ingest claim
// transaction.
type Repo struct{}

// NewRepo returns the billing persistence layer.
func NewRepo() *Repo {
	return &Repo{}
}

// InvoiceByGatewayID returns the invoice for a gateway invoice id, or nil
// when none exists yet.
func (r *Repo) InvoiceByGatewayID(ctx context.Context, tx *gorm.DB, gatewayInvoiceID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := tx.WithContext(ctx).Where("gateway_invoice_id = ?", gatewayInvoiceID).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// CreateInvoice inserts a new invoice row.
func (r *Repo) CreateInvoice(ctx context.Context, tx *gorm.DB, invoice *models.Invoice) error {
	return tx.WithContext(ctx).Create(invoice).Error
}

// SaveInvoice persists changes to an existing invoice.
func (r *Repo) SaveInvoice(ctx context.Context, tx *gorm.DB, invoice *models.Invoice) error {
	return tx.WithContext(ctx).Save(invoice).Error
}

// PaymentIntentByGatewayID returns the intent for a gateway payment id, or
// nil when none exists yet.
func (r *Repo) PaymentIntentByGatewayID(ctx context.Context, tx *gorm.DB, gatewayPaymentID string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := tx.WithContext(ctx).Where("gateway_payment_id = ?", gatewayPaymentID).First(&intent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

// CreatePaymentIntent inserts a new payment intent row.
func (r *Repo) CreatePaymentIntent(ctx context.Context, tx *gorm.DB, intent *models.PaymentIntent) error {
	return tx.WithContext(ctx).Create(intent).Error
}

// SavePaymentIntent persists changes to an existing payment intent.
func (r *Repo) SavePaymentIntent(ctx context.Context, tx *gorm.DB, intent *models.PaymentIntent) error {
	return tx.WithContext(ctx).Save(intent).Error
}

// ChargeByGatewayID returns the charge for a gateway charge id, or nil when
// none exists yet.
func (r *Repo) ChargeByGatewayID(ctx context.Context, tx *gorm.DB, gatewayChargeID string) (*models.Charge, error) {
	var charge models.Charge
	err := tx.WithContext(ctx).Where("gateway_charge_id = ?", gatewayChargeID).First(&charge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

// CreateCharge inserts a new charge row.
func (r *Repo) CreateCharge(ctx context.Context, tx *gorm.DB, charge *models.Charge) error {
	return tx.WithContext(ctx).Create(charge).Error
}

// SaveCharge persists changes to an existing charge.
func (r *Repo) SaveCharge(ctx context.Context, tx *gorm.DB, charge *models.Charge) error {
	return tx.WithContext(ctx).Save(charge).Error
}
