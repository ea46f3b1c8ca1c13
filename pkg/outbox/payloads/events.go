package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-inventory/pkg/enums"
)

// LowStockTrigger tells consumers what surfaced a low-stock item.
type LowStockTrigger string

const (
	LowStockTriggerMutation LowStockTrigger = "mutation"
	LowStockTriggerScan     LowStockTrigger = "scan"
)

// StockAdjustedEvent mirrors one committed stock entry.
type StockAdjustedEvent struct {
	InventoryItemID uuid.UUID              `json:"inventory_item_id"`
	MenuItemID      uuid.UUID              `json:"menu_item_id"`
	StockEntryID    uuid.UUID              `json:"stock_entry_id"`
	Quantity        decimal.Decimal        `json:"quantity"`
	Unit            enums.UnitType         `json:"unit"`
	Source          enums.StockEntrySource `json:"source"`
	StockBefore     decimal.Decimal        `json:"stock_before"`
	StockAfter      decimal.Decimal        `json:"stock_after"`
	Notes           string                 `json:"notes,omitempty"`
}

// LowStockDetectedEvent is emitted when an item sits at or below its threshold.
type LowStockDetectedEvent struct {
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	MenuItemID      uuid.UUID       `json:"menu_item_id"`
	MenuItemName    string          `json:"menu_item_name"`
	CurrentStock    decimal.Decimal `json:"current_stock"`
	Threshold       decimal.Decimal `json:"threshold"`
	Unit            enums.UnitType  `json:"unit"`
	Trigger         LowStockTrigger `json:"trigger"`
}

// CategoryTrackingEnabledEvent reports a category switched to tracked.
type CategoryTrackingEnabledEvent struct {
	InventoryCategoryID uuid.UUID       `json:"inventory_category_id"`
	CategoryID          uuid.UUID       `json:"category_id"`
	UnitType            enums.UnitType  `json:"unit_type"`
	LowStockThreshold   decimal.Decimal `json:"low_stock_threshold"`
	PortionsSeeded      int             `json:"portions_seeded"`
	ItemsSeeded         int             `json:"items_seeded"`
}

// CategoryTrackingDisabledEvent reports a category switched back to untracked
// and what was removed with it.
type CategoryTrackingDisabledEvent struct {
	InventoryCategoryID uuid.UUID `json:"inventory_category_id"`
	CategoryID          uuid.UUID `json:"category_id"`
	PortionsRemoved     int64     `json:"portions_removed"`
	PricesRemoved       int64     `json:"prices_removed"`
	ItemsRemoved        int64     `json:"items_removed"`
	EntriesRemoved      int64     `json:"entries_removed"`
}

// PortionPriceOverriddenEvent reports a manual price being set or cleared.
// Price is nil when the override was removed.
type PortionPriceOverriddenEvent struct {
	MenuItemID      uuid.UUID `json:"menu_item_id"`
	PortionOptionID uuid.UUID `json:"portion_option_id"`
	Price           *int64    `json:"price"`
}
