package inventory

import "github.com/shopspring/decimal"

// DefaultLowStockThreshold applies when neither the item nor its category
// configures a threshold.
var DefaultLowStockThreshold = decimal.NewFromInt(5)

// ResolveThreshold picks the effective low-stock threshold: the item's own
// override, else the category default, else DefaultLowStockThreshold.
func ResolveThreshold(itemOverride, categoryDefault *decimal.Decimal) decimal.Decimal {
	return resolveThreshold(itemOverride, categoryDefault, DefaultLowStockThreshold)
}

func resolveThreshold(itemOverride, categoryDefault *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if itemOverride != nil {
		return *itemOverride
	}
	if categoryDefault != nil {
		return *categoryDefault
	}
	return fallback
}

// IsLowStock reports whether stock sits at or below threshold.
func IsLowStock(stock, threshold decimal.Decimal) bool {
	return stock.LessThanOrEqual(threshold)
}

func nullable(value decimal.NullDecimal) *decimal.Decimal {
	if !value.Valid {
		return nil
	}
	v := value.Decimal
	return &v
}
