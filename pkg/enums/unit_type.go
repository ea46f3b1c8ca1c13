package enums

import (
	"fmt"
	"strings"
)

// UnitType is the measurement unit of a tracked inventory category.
type UnitType string

const (
	UnitTypeML     UnitType = "ml"
	UnitTypePieces UnitType = "pcs"
	UnitTypeGrams  UnitType = "grams"
	UnitTypeBottle UnitType = "bottle"
	UnitTypePack   UnitType = "pack"
)

var validUnitTypes = []UnitType{
	UnitTypeML,
	UnitTypePieces,
	UnitTypeGrams,
	UnitTypeBottle,
	UnitTypePack,
}

// UnitTypes lists every supported unit in display order.
func UnitTypes() []UnitType {
	out := make([]UnitType, len(validUnitTypes))
	copy(out, validUnitTypes)
	return out
}

// IsValid reports whether the value matches a supported unit.
func (u UnitType) IsValid() bool {
	for _, candidate := range validUnitTypes {
		if candidate == u {
			return true
		}
	}
	return false
}

func (u UnitType) String() string {
	return string(u)
}

// ParseUnitType converts raw input into UnitType. Matching ignores case and
// surrounding whitespace; anything outside the closed set is rejected.
func ParseUnitType(value string) (UnitType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validUnitTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit type %q", value)
}
