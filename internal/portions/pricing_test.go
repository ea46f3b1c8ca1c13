package portions

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pos-inventory/pkg/enums"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mlOptions(t *testing.T) []Option {
	t.Helper()
	ladder, err := DefaultTemplate(enums.UnitTypeML)
	require.NoError(t, err)
	opts := make([]Option, len(ladder))
	for i, tpl := range ladder {
		opts[i] = Option{Multiplier: tpl.Multiplier}
	}
	return opts
}

func TestBaseMultiplier(t *testing.T) {
	base, err := BaseMultiplier([]decimal.Decimal{d("10"), d("0.5"), d("1")})
	require.NoError(t, err)
	require.True(t, base.Equal(d("0.5")))

	_, err = BaseMultiplier(nil)
	require.ErrorIs(t, err, ErrNoPortions)

	_, err = BaseMultiplier([]decimal.Decimal{d("1"), d("0")})
	require.Error(t, err)

	_, err = BaseMultiplier([]decimal.Decimal{d("-1"), d("2")})
	require.Error(t, err)
}

func TestComputePriceWhisky(t *testing.T) {
	opts := mlOptions(t)
	quotes := map[string]int64{}
	for i, name := range []string{"30", "60", "90", "180", "375", "750", "1000"} {
		q, err := Resolve(75, opts, opts[i], nil)
		require.NoError(t, err)
		require.Equal(t, SourceComputed, q.Source)
		require.True(t, q.Tiered)
		quotes[name] = q.Price
	}
	require.Equal(t, int64(75), quotes["30"])
	require.Equal(t, int64(150), quotes["60"])
	require.Equal(t, int64(225), quotes["90"])
	require.Equal(t, int64(413), quotes["180"]) // 412.5 rounds up
	require.Equal(t, int64(825), quotes["375"])
	require.Equal(t, int64(1500), quotes["750"])
	require.Equal(t, int64(1950), quotes["1000"])
}

func TestComputePriceRounding(t *testing.T) {
	cases := []struct {
		name string
		base int64
		bm   string
		m    string
		want int64
	}{
		{"exact", 100, "1", "2", 200},
		{"half rounds away from zero", 5, "2", "1", 3},
		{"below half rounds down", 10, "3", "1", 3},
		{"above half rounds up", 20, "3", "1", 7},
		{"negative half away from zero", -5, "2", "1", -3},
		{"fractional base multiplier", 75, "0.5", "2.75", 413},
		{"zero base price", 0, "0.5", "10", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputePrice(tc.base, d(tc.bm), d(tc.m))
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	_, err := ComputePrice(10, decimal.Zero, d("1"))
	require.Error(t, err)
}

func TestBasePortionPricesAtBase(t *testing.T) {
	for _, base := range []int64{1, 7, 75, 120, 999} {
		opts := mlOptions(t)
		q, err := Resolve(base, opts, opts[0], nil)
		require.NoError(t, err)
		require.Equal(t, base, q.Price)
	}
}

func TestPricesMonotonicWithMultiplier(t *testing.T) {
	opts := mlOptions(t)
	var prev int64 = -1
	for _, opt := range opts {
		q, err := Resolve(93, opts, opt, nil)
		require.NoError(t, err)
		require.GreaterOrEqual(t, q.Price, prev)
		prev = q.Price
	}
}

func TestResolvePrecedence(t *testing.T) {
	fixed := int64(1400)
	override := int64(1350)
	opts := mlOptions(t)
	full := opts[5]
	full.FixedPrice = &fixed

	q, err := Resolve(75, opts, full, &override)
	require.NoError(t, err)
	require.Equal(t, Quote{Price: 1350, Source: SourceOverride, Tiered: true}, q)

	q, err = Resolve(75, opts, full, nil)
	require.NoError(t, err)
	require.Equal(t, Quote{Price: 1400, Source: SourceFixed, Tiered: true}, q)

	// later multiplier edits do not touch an override
	opts[5].Multiplier = d("12")
	q, err = Resolve(75, opts, opts[5], &override)
	require.NoError(t, err)
	require.Equal(t, int64(1350), q.Price)
}

func TestResolveEmptyCategory(t *testing.T) {
	q, err := Resolve(120, nil, Option{}, nil)
	require.NoError(t, err)
	require.Equal(t, Quote{Price: 120, Source: SourceBase, Tiered: false}, q)
}

func TestResolveInvalidBase(t *testing.T) {
	opts := []Option{{Multiplier: d("0")}, {Multiplier: d("2")}}
	_, err := Resolve(100, opts, opts[1], nil)
	require.Error(t, err)
}
