package billing

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/harborclub/harborclub-backend/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// paymentPayload is the body of payment.* events. The gateway's payment id
// travels in the event's resource reference, not the payload.
type paymentPayload struct {
	MemberID         string `json:"member_id" validate:"omitempty,uuid"`
	GatewayInvoiceID string `json:"invoice_id"`
	AmountCents      int64  `json:"amount_cents" validate:"gte=0"`
	Currency         string `json:"currency" validate:"omitempty,len=3"`
	FailureReason    string `json:"failure_reason"`
}

// invoicePayload is the body of invoice.* events.
type invoicePayload struct {
	MemberID      string `json:"member_id" validate:"required,uuid"`
	AmountCents   int64  `json:"amount_cents" validate:"gte=0"`
	Currency      string `json:"currency" validate:"omitempty,len=3"`
	FailureReason string `json:"failure_reason"`
}

// chargePayload is the body of charge.* events. Status is only read by
// charge.updated.
type chargePayload struct {
	MemberID         string `json:"member_id" validate:"omitempty,uuid"`
	GatewayInvoiceID string `json:"invoice_id"`
	AmountCents      int64  `json:"amount_cents" validate:"gte=0"`
	Currency         string `json:"currency" validate:"omitempty,len=3"`
	Status           string `json:"status"`
}

// decodePayload unmarshals and validates an event body. Failures are
// classified as validation errors so the engine records them as permanent:
// a malformed payload will not improve on redelivery.
func decodePayload(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "event payload is empty")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed event payload")
	}
	if err := validate.Struct(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event payload").WithDetails(err.Error())
	}
	return nil
}

func amountFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func normalizeCurrency(currency string) string {
	if currency == "" {
		return "usd"
	}
	return strings.ToLower(currency)
}
