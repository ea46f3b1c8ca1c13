package portions

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-inventory/pkg/enums"
)

// Template is one default portion seeded when a category starts tracking.
type Template struct {
	Name       string
	Size       decimal.Decimal
	Multiplier decimal.Decimal
}

func tpl(name string, size int64, multiplier string) Template {
	return Template{
		Name:       name,
		Size:       decimal.NewFromInt(size),
		Multiplier: decimal.RequireFromString(multiplier),
	}
}

// Liquor ladder: the per-ml cost falls as the pour grows.
var mlLadder = []Template{
	tpl("30ml (Peg)", 30, "0.5"),
	tpl("60ml (Large Peg)", 60, "1"),
	tpl("90ml", 90, "1.5"),
	tpl("180ml (QTR)", 180, "2.75"),
	tpl("375ml (Half)", 375, "5.5"),
	tpl("750ml (Full)", 750, "10"),
	tpl("1000ml (Litre)", 1000, "13"),
}

var countLadder = []Template{
	tpl("Single", 1, "1"),
	tpl("Pack of 20", 20, "18"),
}

// DefaultTemplate returns the portion ladder for unit. The slice is a copy;
// position is the sort order.
func DefaultTemplate(unit enums.UnitType) ([]Template, error) {
	switch unit {
	case enums.UnitTypeML:
		return clone(mlLadder), nil
	case enums.UnitTypePieces:
		return clone(countLadder), nil
	case enums.UnitTypeGrams:
		return clone(countLadder), nil
	case enums.UnitTypeBottle:
		return clone(countLadder), nil
	case enums.UnitTypePack:
		return clone(countLadder), nil
	default:
		return nil, fmt.Errorf("no portion template for unit %q", unit)
	}
}

func clone(in []Template) []Template {
	out := make([]Template, len(in))
	copy(out, in)
	return out
}
