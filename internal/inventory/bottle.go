package inventory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-inventory/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-inventory/pkg/errors"
)

// StockEntryForm is the "add stock" form as submitted by staff. When
// BottleCount is set and non-zero the bottle fields win over Quantity. A zero
// count is an untouched field.
type StockEntryForm struct {
	MenuItemID   uuid.UUID
	Quantity     *decimal.Decimal
	BottleCount  *int64
	BottleSizeML *decimal.Decimal
	Notes        string
}

func (f StockEntryForm) usesBottles() bool {
	return f.BottleCount != nil && *f.BottleCount != 0
}

// ResolvedEntry is the stock delta a form resolves to.
type ResolvedEntry struct {
	Quantity decimal.Decimal
	Source   enums.StockEntrySource
	Notes    string
}

// ResolveBottleEntry turns a form into a stock delta. Bottle mode multiplies
// the count by the chosen size, falling back to defaultSize when no size was
// picked, and prefixes the notes with e.g. "3 x 750ml bottles". The result is
// not checked for sign; callers decide what they accept.
func ResolveBottleEntry(form StockEntryForm, defaultSize *decimal.Decimal) (ResolvedEntry, error) {
	notes := strings.TrimSpace(form.Notes)

	if !form.usesBottles() {
		if form.Quantity == nil {
			return ResolvedEntry{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity or bottle count is required")
		}
		return ResolvedEntry{
			Quantity: *form.Quantity,
			Source:   enums.StockEntrySourceManual,
			Notes:    notes,
		}, nil
	}

	count := *form.BottleCount
	if count < 0 {
		return ResolvedEntry{}, pkgerrors.New(pkgerrors.CodeValidation, "bottle count must be positive")
	}
	size := form.BottleSizeML
	if size == nil {
		size = defaultSize
	}
	if size == nil {
		return ResolvedEntry{}, pkgerrors.New(pkgerrors.CodeValidation, "bottle size is required when no default bottle size is set")
	}
	if !size.IsPositive() {
		return ResolvedEntry{}, pkgerrors.New(pkgerrors.CodeValidation, "bottle size must be positive")
	}

	label := fmt.Sprintf("%d x %sml bottles", count, size.String())
	if notes != "" {
		label = label + " - " + notes
	}
	return ResolvedEntry{
		Quantity: decimal.NewFromInt(count).Mul(*size),
		Source:   enums.StockEntrySourceBottle,
		Notes:    label,
	}, nil
}
