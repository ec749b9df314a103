package enums

import "fmt"

// ChargeStatus tracks a settled gateway charge.
type ChargeStatus string

const (
	ChargeStatusPending  ChargeStatus = "pending"
	ChargeStatusSettled  ChargeStatus = "settled"
	ChargeStatusFailed   ChargeStatus = "failed"
	ChargeStatusRefunded ChargeStatus = "refunded"
)

var validChargeStatuses = []ChargeStatus{
	ChargeStatusPending,
	ChargeStatusSettled,
	ChargeStatusFailed,
	ChargeStatusRefunded,
}

// String implements fmt.Stringer.
func (c ChargeStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ChargeStatus.
func (c ChargeStatus) IsValid() bool {
	for _, candidate := range validChargeStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseChargeStatus converts raw input into a ChargeStatus.
func ParseChargeStatus(value string) (ChargeStatus, error) {
	for _, candidate := range validChargeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid charge status %q", value)
}
