package portions

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pos-inventory/pkg/enums"
)

func TestDefaultTemplateML(t *testing.T) {
	ladder, err := DefaultTemplate(enums.UnitTypeML)
	require.NoError(t, err)
	require.Len(t, ladder, 7)

	want := []struct {
		name string
		size int64
		mult string
	}{
		{"30ml (Peg)", 30, "0.5"},
		{"60ml (Large Peg)", 60, "1"},
		{"90ml", 90, "1.5"},
		{"180ml (QTR)", 180, "2.75"},
		{"375ml (Half)", 375, "5.5"},
		{"750ml (Full)", 750, "10"},
		{"1000ml (Litre)", 1000, "13"},
	}
	for i, w := range want {
		require.Equal(t, w.name, ladder[i].Name)
		require.True(t, ladder[i].Size.Equal(decimal.NewFromInt(w.size)), "size of %s", w.name)
		require.True(t, ladder[i].Multiplier.Equal(decimal.RequireFromString(w.mult)), "multiplier of %s", w.name)
	}

	// cost per ml never rises with size
	for i := 1; i < len(ladder); i++ {
		prev := ladder[i-1].Multiplier.Div(ladder[i-1].Size)
		cur := ladder[i].Multiplier.Div(ladder[i].Size)
		require.True(t, cur.LessThanOrEqual(prev), "%s is dearer per ml than %s", ladder[i].Name, ladder[i-1].Name)
	}
}

func TestDefaultTemplateCountUnits(t *testing.T) {
	for _, unit := range []enums.UnitType{enums.UnitTypePieces, enums.UnitTypeGrams, enums.UnitTypeBottle, enums.UnitTypePack} {
		ladder, err := DefaultTemplate(unit)
		require.NoError(t, err, unit)
		require.Len(t, ladder, 2, unit)
		require.Equal(t, "Single", ladder[0].Name)
		require.True(t, ladder[0].Multiplier.Equal(decimal.NewFromInt(1)))
		require.Equal(t, "Pack of 20", ladder[1].Name)
		require.True(t, ladder[1].Multiplier.Equal(decimal.NewFromInt(18)))
	}
}

func TestDefaultTemplateCoversEveryUnit(t *testing.T) {
	for _, unit := range enums.UnitTypes() {
		_, err := DefaultTemplate(unit)
		require.NoError(t, err, unit)
	}
}

func TestDefaultTemplateUnknownUnit(t *testing.T) {
	_, err := DefaultTemplate(enums.UnitType("litres"))
	require.Error(t, err)
}

func TestDefaultTemplateReturnsCopy(t *testing.T) {
	first, err := DefaultTemplate(enums.UnitTypeML)
	require.NoError(t, err)
	first[0].Name = "mutated"

	second, err := DefaultTemplate(enums.UnitTypeML)
	require.NoError(t, err)
	require.Equal(t, "30ml (Peg)", second[0].Name)
}
