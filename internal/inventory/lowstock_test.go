package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pos-inventory/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-inventory/pkg/errors"
	"github.com/angelmondragon/pos-inventory/pkg/outbox"
	"github.com/angelmondragon/pos-inventory/pkg/outbox/payloads"
)

func TestListLowStockItemsThresholdBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category("Cigarettes")
	atThreshold := f.menuItem(c.ID, "Marlboro", 20)
	above := f.menuItem(c.ID, "Gold Flake", 18)
	withOverride := f.menuItem(c.ID, "Classic", 22)
	f.track(c.ID, "pcs", 5)

	_, err := f.svc.AddStock(ctx, AddStockInput{MenuItemID: atThreshold.ID, Quantity: dec("5")})
	require.NoError(t, err)
	_, err = f.svc.AddStock(ctx, AddStockInput{MenuItemID: above.ID, Quantity: dec("6")})
	require.NoError(t, err)
	_, err = f.svc.AddStock(ctx, AddStockInput{MenuItemID: withOverride.ID, Quantity: dec("30")})
	require.NoError(t, err)
	require.NoError(t, f.conn.Table("inventory_items").
		Where("menu_item_id = ?", withOverride.ID).
		Update("low_stock_threshold", "40").Error)

	low, err := f.svc.ListLowStockItems(ctx)
	require.NoError(t, err)
	require.Len(t, low, 2)

	assert.Equal(t, atThreshold.ID, low[0].MenuItemID, "insertion order")
	assert.Equal(t, "Marlboro", low[0].MenuItemName)
	assert.True(t, low[0].Threshold.Equal(dec("5")), "stock equal to threshold counts as low")
	assert.Equal(t, enums.UnitTypePieces, low[0].Unit)

	assert.Equal(t, withOverride.ID, low[1].MenuItemID)
	assert.True(t, low[1].Threshold.Equal(dec("40")), "item override beats category")
	assert.True(t, low[1].CurrentStock.Equal(dec("30")))
}

func TestListLowStockItemsIncludesNegativeStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category("Cigarettes")
	mi := f.menuItem(c.ID, "Marlboro", 20)
	f.track(c.ID, "pcs", 0)

	low, err := f.svc.ListLowStockItems(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1, "zero stock at zero threshold is low")

	_, err = f.svc.AdjustStock(ctx, AdjustStockInput{MenuItemID: mi.ID, Delta: dec("-3")})
	require.NoError(t, err)
	low, err = f.svc.ListLowStockItems(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.True(t, low[0].CurrentStock.Equal(dec("-3")))
}

func TestAddStockAlertsWhenCrossingIntoLowStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category("Whisky")
	mi := f.menuItem(c.ID, "Blenders Pride", 75)
	f.track(c.ID, "ml", 750)

	// Zero stock already sits below the threshold; filling up is no crossing.
	_, err := f.svc.AddStock(ctx, AddStockInput{MenuItemID: mi.ID, Quantity: dec("2250")})
	require.NoError(t, err)
	require.Empty(t, f.events(enums.EventLowStockDetected))
	itemID := f.item(mi.ID).ID
	assert.Contains(t, f.alerts.cleared, itemID, "leaving low stock re-arms alerts")

	updated, err := f.svc.AddStock(ctx, AddStockInput{MenuItemID: mi.ID, Quantity: dec("-1500")})
	require.NoError(t, err)
	require.True(t, updated.LowStock)
	alerts := f.events(enums.EventLowStockDetected)
	require.Len(t, alerts, 1)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(alerts[0].Payload, &envelope))
	var payload payloads.LowStockDetectedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, payloads.LowStockTriggerMutation, payload.Trigger)
	assert.True(t, payload.CurrentStock.Equal(dec("750")))
	assert.True(t, payload.Threshold.Equal(dec("750")))
	assert.Equal(t, "Blenders Pride", payload.MenuItemName)

	// Staying low does not alert again.
	_, err = f.svc.AddStock(ctx, AddStockInput{MenuItemID: mi.ID, Quantity: dec("-30")})
	require.NoError(t, err)
	require.Len(t, f.events(enums.EventLowStockDetected), 1)

	// Replenish, then cross again: the cooldown was cleared so it alerts.
	_, err = f.svc.AddStock(ctx, AddStockInput{MenuItemID: mi.ID, Quantity: dec("1000")})
	require.NoError(t, err)
	_, err = f.svc.AddStock(ctx, AddStockInput{MenuItemID: mi.ID, Quantity: dec("-1000")})
	require.NoError(t, err)
	require.Len(t, f.events(enums.EventLowStockDetected), 2)
}

func TestScanLowStockRespectsCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category("Cigarettes")
	f.menuItem(c.ID, "Marlboro", 20)
	f.menuItem(c.ID, "Gold Flake", 18)
	f.track(c.ID, "pcs", 10)

	result, err := f.svc.ScanLowStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.LowItems)
	assert.Equal(t, 2, result.Alerted)
	assert.Zero(t, result.Suppressed)

	result, err = f.svc.ScanLowStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.LowItems)
	assert.Zero(t, result.Alerted)
	assert.Equal(t, 2, result.Suppressed)

	alerts := f.events(enums.EventLowStockDetected)
	require.Len(t, alerts, 2)
	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(alerts[0].Payload, &envelope))
	var payload payloads.LowStockDetectedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, payloads.LowStockTriggerScan, payload.Trigger)
}

func TestScanLowStockAlertsWhenCooldownStoreFails(t *testing.T) {
	f := newFixture(t)
	c := f.category("Cigarettes")
	f.menuItem(c.ID, "Marlboro", 20)
	f.track(c.ID, "pcs", 10)
	f.alerts.err = errors.New("redis down")

	result, err := f.svc.ScanLowStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Alerted)
}

func TestScanLowStockReleasesCooldownOnFailedCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category("Cigarettes")
	f.menuItem(c.ID, "Marlboro", 20)
	f.menuItem(c.ID, "Gold Flake", 18)
	f.track(c.ID, "pcs", 10)

	f.emitter.failNext(2)
	_, err := f.svc.ScanLowStock(ctx)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency), "got %v", err)
	assert.Empty(t, f.events(enums.EventLowStockDetected))
	assert.Empty(t, f.alerts.marked)
	assert.Len(t, f.alerts.cleared, 2)

	result, err := f.svc.ScanLowStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Alerted)
	assert.Zero(t, result.Suppressed)
	assert.Len(t, f.events(enums.EventLowStockDetected), 2)
}

func TestAddStockReleasesCooldownOnFailedCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	whisky := f.category("Whisky")
	mi := f.menuItem(whisky.ID, "Blenders Pride", 75)
	f.track(whisky.ID, "ml", 750)

	_, err := f.svc.AddStock(ctx, AddStockInput{MenuItemID: mi.ID, Quantity: dec("1000")})
	require.NoError(t, err)

	// The second emit of the mutation is the low-stock alert.
	f.emitter.failNext(2)
	_, err = f.svc.AddStock(ctx, AddStockInput{MenuItemID: mi.ID, Quantity: dec("-500")})
	require.Error(t, err)
	assert.True(t, f.item(mi.ID).CurrentStock.Equal(dec("1000")))
	assert.Empty(t, f.alerts.marked)

	_, err = f.svc.AddStock(ctx, AddStockInput{MenuItemID: mi.ID, Quantity: dec("-500")})
	require.NoError(t, err)
	assert.Len(t, f.events(enums.EventLowStockDetected), 1)
}
