package validators

import (
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/pos-inventory/pkg/errors"
)

// ParseDecimalField turns a form string into a decimal. Blank input yields
// nil so callers can tell "not entered" from zero.
func ParseDecimalField(field, raw string) (*decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, field+" must be a number").WithDetails(map[string]any{"field": field})
	}
	return &value, nil
}
