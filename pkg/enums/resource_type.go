package enums

import "fmt"

// ResourceType names the billing resource a gateway event mutates.
type ResourceType string

const (
	ResourceTypePayment ResourceType = "payment"
	ResourceTypeInvoice ResourceType = "invoice"
	ResourceTypeCharge  ResourceType = "charge"
)

var validResourceTypes = []ResourceType{
	ResourceTypePayment,
	ResourceTypeInvoice,
	ResourceTypeCharge,
}

// String implements fmt.Stringer.
func (r ResourceType) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ResourceType.
func (r ResourceType) IsValid() bool {
	for _, candidate := range validResourceTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseResourceType converts raw input into a ResourceType.
func ParseResourceType(value string) (ResourceType, error) {
	for _, candidate := range validResourceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid resource type %q", value)
}
