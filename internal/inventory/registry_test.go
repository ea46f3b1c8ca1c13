package inventory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pos-inventory/pkg/db/models"
	"github.com/angelmondragon/pos-inventory/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-inventory/pkg/errors"
	"github.com/angelmondragon/pos-inventory/pkg/outbox"
	"github.com/angelmondragon/pos-inventory/pkg/outbox/payloads"
	"github.com/angelmondragon/pos-inventory/pkg/types"
)

func TestRegisterCategorySeedsPortionsAndItems(t *testing.T) {
	f := newFixture(t)
	whisky := f.category("Whisky")
	first := f.menuItem(whisky.ID, "Blenders Pride", 75)
	second := f.menuItem(whisky.ID, "Black Dog", 120)

	dto := f.track(whisky.ID, "ml", 750)

	require.Equal(t, enums.TrackingStateTracked, dto.State)
	require.Equal(t, enums.UnitTypeML, dto.UnitType)
	require.True(t, dto.LowStockThreshold.Equal(dec("750")))
	require.Len(t, dto.Portions, 7)
	assert.Equal(t, "30ml (Peg)", dto.Portions[0].Name)
	assert.Equal(t, 0, dto.Portions[0].SortOrder)
	assert.Equal(t, "1000ml (Litre)", dto.Portions[6].Name)
	assert.True(t, dto.Portions[6].PriceMultiplier.Equal(dec("13")))

	for _, mi := range []*models.MenuItem{first, second} {
		item := f.item(mi.ID)
		assert.True(t, item.CurrentStock.IsZero())
		assert.Equal(t, enums.UnitTypeML, item.Unit)
	}

	events := f.events(enums.EventCategoryTrackingEnabled)
	require.Len(t, events, 1)
	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	var payload payloads.CategoryTrackingEnabledEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, 7, payload.PortionsSeeded)
	assert.Equal(t, 2, payload.ItemsSeeded)
}

func TestRegisterCategoryErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cigarettes := f.category("Cigarettes")

	_, err := f.svc.RegisterCategory(ctx, RegisterCategoryInput{CategoryID: uuid.New(), UnitType: "pcs"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = f.svc.RegisterCategory(ctx, RegisterCategoryInput{CategoryID: cigarettes.ID, UnitType: "litre"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeConfiguration), "got %v", err)

	_, err = f.svc.RegisterCategory(ctx, RegisterCategoryInput{
		CategoryID:        cigarettes.ID,
		UnitType:          "pcs",
		LowStockThreshold: decPtr("-1"),
	})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
	require.Zero(t, f.count(&models.InventoryCategory{}, ""))

	dto, err := f.svc.RegisterCategory(ctx, RegisterCategoryInput{CategoryID: cigarettes.ID, UnitType: " PCS "})
	require.NoError(t, err)
	require.True(t, dto.LowStockThreshold.Equal(dec("5")), "configured default applies")
	require.Len(t, dto.Portions, 2)

	_, err = f.svc.RegisterCategory(ctx, RegisterCategoryInput{CategoryID: cigarettes.ID, UnitType: "pcs"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestUnregisterCategoryLeavesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	whisky := f.category("Whisky")
	other := f.category("Beer")
	mi := f.menuItem(whisky.ID, "Blenders Pride", 75)
	beer := f.menuItem(other.ID, "Kingfisher", 150)

	tracking := f.track(whisky.ID, "ml", 750)
	f.track(other.ID, "bottle", 12)

	_, err := f.svc.ReceiveStock(ctx, StockEntryForm{MenuItemID: mi.ID, Quantity: decPtr("1000")})
	require.NoError(t, err)
	_, err = f.svc.ReceiveStock(ctx, StockEntryForm{MenuItemID: beer.ID, Quantity: decPtr("24")})
	require.NoError(t, err)
	_, err = f.svc.SetItemPortionPrice(ctx, mi.ID, tracking.Portions[1].ID, 160)
	require.NoError(t, err)

	_, err = f.svc.UnregisterCategory(ctx, whisky.ID, false)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
	require.Equal(t, int64(2), f.count(&models.InventoryCategory{}, ""))

	result, err := f.svc.UnregisterCategory(ctx, whisky.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.PortionsRemoved)
	assert.Equal(t, int64(1), result.PricesRemoved)
	assert.Equal(t, int64(1), result.ItemsRemoved)
	assert.Equal(t, int64(1), result.EntriesRemoved)

	assert.Zero(t, f.count(&models.InventoryCategory{}, "category_id = ?", whisky.ID))
	assert.Zero(t, f.count(&models.PortionOption{}, "inventory_category_id = ?", *tracking.InventoryCategoryID))
	assert.Zero(t, f.count(&models.ItemPortionPrice{}, "menu_item_id = ?", mi.ID))
	assert.Zero(t, f.count(&models.InventoryItem{}, "menu_item_id = ?", mi.ID))

	// The other tracked category is untouched.
	assert.Equal(t, int64(1), f.count(&models.InventoryItem{}, "menu_item_id = ?", beer.ID))
	assert.Equal(t, int64(1), f.count(&models.StockEntry{}, ""))
	assert.Equal(t, int64(2), f.count(&models.PortionOption{}, ""))

	// The menu item itself survives opt-out.
	assert.Equal(t, int64(1), f.count(&models.MenuItem{}, "id = ?", mi.ID))
	require.Len(t, f.events(enums.EventCategoryTrackingDisabled), 1)

	state, err := f.svc.GetTracking(ctx, whisky.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TrackingStateUntracked, state.State)
	assert.Empty(t, state.Portions)

	_, err = f.svc.UnregisterCategory(ctx, whisky.ID, true)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotTracked), "got %v", err)

	_, err = f.svc.UnregisterCategory(ctx, uuid.New(), true)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "got %v", err)

	// Opting back in starts from zero stock.
	f.track(whisky.ID, "ml", 750)
	assert.True(t, f.item(mi.ID).CurrentStock.IsZero())
}

func TestGetTracking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category("Snacks")

	state, err := f.svc.GetTracking(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, enums.TrackingStateUntracked, state.State)
	require.Nil(t, state.InventoryCategoryID)

	f.track(c.ID, "grams", 100)
	state, err = f.svc.GetTracking(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, enums.TrackingStateTracked, state.State)
	require.Equal(t, enums.UnitTypeGrams, state.UnitType)
	require.Len(t, state.Portions, 2)

	_, err = f.svc.GetTracking(ctx, uuid.New())
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestUpdatePortionOption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category("Whisky")
	dto := f.track(c.ID, "ml", 750)
	peg := dto.Portions[0]

	_, err := f.svc.UpdatePortionOption(ctx, peg.ID, UpdatePortionInput{PriceMultiplier: decPtr("0")})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
	_, err = f.svc.UpdatePortionOption(ctx, peg.ID, UpdatePortionInput{PriceMultiplier: decPtr("-0.5")})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
	blank := "  "
	_, err = f.svc.UpdatePortionOption(ctx, peg.ID, UpdatePortionInput{Name: &blank})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
	_, err = f.svc.UpdatePortionOption(ctx, uuid.New(), UpdatePortionInput{})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "got %v", err)

	name := "Small Peg"
	updated, err := f.svc.UpdatePortionOption(ctx, peg.ID, UpdatePortionInput{
		Name:            &name,
		PriceMultiplier: decPtr("0.6"),
		FixedPrice:      types.Nullable[int64]{Set: true, Value: int64Ptr(80)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Small Peg", updated.Name)
	assert.True(t, updated.PriceMultiplier.Equal(dec("0.6")))
	require.NotNil(t, updated.FixedPrice)
	assert.Equal(t, int64(80), *updated.FixedPrice)

	updated, err = f.svc.UpdatePortionOption(ctx, peg.ID, UpdatePortionInput{
		FixedPrice: types.Nullable[int64]{Set: true},
	})
	require.NoError(t, err)
	assert.Nil(t, updated.FixedPrice)
	assert.Equal(t, "Small Peg", updated.Name, "absent fields are left alone")
}

func TestSeedItemForTrackedCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tracked := f.category("Cigarettes")
	untracked := f.category("Food")
	f.track(tracked.ID, "pcs", 20)

	mi := f.menuItem(tracked.ID, "Marlboro", 20)
	item, err := f.svc.SeedItem(ctx, f.conn, mi)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, enums.UnitTypePieces, item.Unit)
	assert.True(t, item.CurrentStock.IsZero())

	_, err = f.svc.SeedItem(ctx, f.conn, mi)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict), "got %v", err)

	food := f.menuItem(untracked.ID, "Fries", 90)
	item, err = f.svc.SeedItem(ctx, f.conn, food)
	require.NoError(t, err)
	assert.Nil(t, item)
}
