package portions

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNoPortions is returned by BaseMultiplier for an empty category.
var ErrNoPortions = errors.New("category has no portions")

// Source names where a quoted price came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceFixed    Source = "fixed"
	SourceComputed Source = "computed"
	SourceBase     Source = "base"
)

// Option is the pricing view of a portion.
type Option struct {
	Multiplier decimal.Decimal
	FixedPrice *int64
}

// Quote is a resolved price.
type Quote struct {
	Price  int64
	Source Source
	Tiered bool
}

// BaseMultiplier returns the smallest multiplier among multipliers. That
// portion is priced at the item's base price.
func BaseMultiplier(multipliers []decimal.Decimal) (decimal.Decimal, error) {
	if len(multipliers) == 0 {
		return decimal.Zero, ErrNoPortions
	}
	base := multipliers[0]
	for _, m := range multipliers[1:] {
		if m.LessThan(base) {
			base = m
		}
	}
	if !base.IsPositive() {
		return decimal.Zero, fmt.Errorf("base multiplier must be positive, got %s", base.String())
	}
	return base, nil
}

// ComputePrice returns basePrice / baseMultiplier * multiplier rounded half
// away from zero. The division is done exactly via quotient and remainder.
func ComputePrice(basePrice int64, baseMultiplier, multiplier decimal.Decimal) (int64, error) {
	if !baseMultiplier.IsPositive() {
		return 0, fmt.Errorf("base multiplier must be positive, got %s", baseMultiplier.String())
	}
	num := decimal.NewFromInt(basePrice).Mul(multiplier)
	q, r := num.QuoRem(baseMultiplier, 0)
	if r.Abs().Mul(decimal.NewFromInt(2)).GreaterThanOrEqual(baseMultiplier) {
		if num.IsNegative() {
			q = q.Sub(decimal.NewFromInt(1))
		} else {
			q = q.Add(decimal.NewFromInt(1))
		}
	}
	return q.IntPart(), nil
}

// Resolve prices target against the full portion list of its category. An
// item override wins, then the portion's fixed price, then the derived price.
// An empty category yields the plain base price, untiered.
func Resolve(basePrice int64, all []Option, target Option, override *int64) (Quote, error) {
	if override != nil {
		return Quote{Price: *override, Source: SourceOverride, Tiered: len(all) > 0}, nil
	}
	if len(all) == 0 {
		return Quote{Price: basePrice, Source: SourceBase}, nil
	}
	if target.FixedPrice != nil {
		return Quote{Price: *target.FixedPrice, Source: SourceFixed, Tiered: true}, nil
	}
	multipliers := make([]decimal.Decimal, len(all))
	for i, opt := range all {
		multipliers[i] = opt.Multiplier
	}
	base, err := BaseMultiplier(multipliers)
	if err != nil {
		return Quote{}, err
	}
	price, err := ComputePrice(basePrice, base, target.Multiplier)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Price: price, Source: SourceComputed, Tiered: true}, nil
}
