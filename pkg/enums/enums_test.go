package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnitType(t *testing.T) {
	for _, raw := range []string{"ml", "pcs", "grams", "bottle", "pack", " ML "} {
		unit, err := ParseUnitType(raw)
		require.NoError(t, err, raw)
		assert.True(t, unit.IsValid())
	}

	_, err := ParseUnitType("litre")
	assert.Error(t, err)
	assert.False(t, UnitType("kg").IsValid())
}

func TestUnitTypesReturnsCopy(t *testing.T) {
	units := UnitTypes()
	require.Len(t, units, 5)
	units[0] = "mutated"
	assert.Equal(t, UnitTypeML, UnitTypes()[0])
}

func TestStockEntrySourceParse(t *testing.T) {
	src, err := ParseStockEntrySource("correction")
	require.NoError(t, err)
	assert.Equal(t, StockEntrySourceCorrection, src)

	_, err = ParseStockEntrySource("sale")
	assert.Error(t, err)
}

func TestOutboxEnums(t *testing.T) {
	evt, err := ParseOutboxEventType("low_stock_detected")
	require.NoError(t, err)
	assert.Equal(t, EventLowStockDetected, evt)
	assert.False(t, OutboxEventType("order_created").IsValid())

	agg, err := ParseOutboxAggregateType("inventory_item")
	require.NoError(t, err)
	assert.True(t, agg.IsValid())
}

func TestOutboxDLQErrorReason(t *testing.T) {
	for _, reason := range []OutboxDLQErrorReason{
		OutboxDLQReasonUnroutable,
		OutboxDLQReasonNonRetryable,
		OutboxDLQReasonMaxAttempts,
	} {
		assert.True(t, reason.IsValid(), reason)
	}
	assert.False(t, OutboxDLQErrorReason("expired").IsValid())
}
