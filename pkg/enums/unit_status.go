package enums

import "fmt"

// UnitStatus tracks the lifecycle of a single egg unit in the ledger.
type UnitStatus string

const (
	UnitStatusAvailable UnitStatus = "available"
	UnitStatusListed    UnitStatus = "listed"
	UnitStatusSold      UnitStatus = "sold"
)

var validUnitStatuses = []UnitStatus{
	UnitStatusAvailable,
	UnitStatusListed,
	UnitStatusSold,
}

// String implements fmt.Stringer.
func (u UnitStatus) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UnitStatus.
func (u UnitStatus) IsValid() bool {
	for _, candidate := range validUnitStatuses {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUnitStatus converts raw input into a UnitStatus.
func ParseUnitStatus(value string) (UnitStatus, error) {
	for _, candidate := range validUnitStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit status %q", value)
}
