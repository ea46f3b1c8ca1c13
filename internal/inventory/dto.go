package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-inventory/internal/portions"
	"github.com/angelmondragon/pos-inventory/pkg/db/models"
	"github.com/angelmondragon/pos-inventory/pkg/enums"
)

// PortionDTO exposes a portion option of a tracked category.
type PortionDTO struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Size            decimal.Decimal `json:"size"`
	PriceMultiplier decimal.Decimal `json:"price_multiplier"`
	FixedPrice      *int64          `json:"fixed_price,omitempty"`
	SortOrder       int             `json:"sort_order"`
}

// TrackingDTO describes whether a category is stock-tracked and how.
type TrackingDTO struct {
	CategoryID          uuid.UUID           `json:"category_id"`
	State               enums.TrackingState `json:"state"`
	InventoryCategoryID *uuid.UUID          `json:"inventory_category_id,omitempty"`
	UnitType            enums.UnitType      `json:"unit_type,omitempty"`
	LowStockThreshold   *decimal.Decimal    `json:"low_stock_threshold,omitempty"`
	Portions            []PortionDTO        `json:"portions"`
}

// UnregisterResult reports what an opt-out removed.
type UnregisterResult struct {
	CategoryID      uuid.UUID `json:"category_id"`
	PortionsRemoved int64     `json:"portions_removed"`
	PricesRemoved   int64     `json:"prices_removed"`
	ItemsRemoved    int64     `json:"items_removed"`
	EntriesRemoved  int64     `json:"entries_removed"`
}

// InventoryItemDTO exposes the stock row of a menu item.
type InventoryItemDTO struct {
	ID                uuid.UUID        `json:"id"`
	MenuItemID        uuid.UUID        `json:"menu_item_id"`
	CurrentStock      decimal.Decimal  `json:"current_stock"`
	Unit              enums.UnitType   `json:"unit"`
	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold,omitempty"`
	DefaultBottleSize *decimal.Decimal `json:"default_bottle_size,omitempty"`
}

// StockEntryDTO exposes one ledger row.
type StockEntryDTO struct {
	ID          uuid.UUID              `json:"id"`
	Quantity    decimal.Decimal        `json:"quantity"`
	Unit        enums.UnitType         `json:"unit"`
	Source      enums.StockEntrySource `json:"source"`
	StockBefore decimal.Decimal        `json:"stock_before"`
	StockAfter  decimal.Decimal        `json:"stock_after"`
	Notes       *string                `json:"notes,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// UpdatedStock is the result of a committed stock mutation.
type UpdatedStock struct {
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	MenuItemID      uuid.UUID       `json:"menu_item_id"`
	CurrentStock    decimal.Decimal `json:"current_stock"`
	Unit            enums.UnitType  `json:"unit"`
	LowStock        bool            `json:"low_stock"`
	Entry           StockEntryDTO   `json:"entry"`
}

// PortionPriceDTO is the effective price of one portion of a menu item.
type PortionPriceDTO struct {
	MenuItemID      uuid.UUID       `json:"menu_item_id"`
	PortionOptionID *uuid.UUID      `json:"portion_option_id,omitempty"`
	Name            string          `json:"name,omitempty"`
	Size            decimal.Decimal `json:"size"`
	Price           int64           `json:"price"`
	Source          portions.Source `json:"source"`
	Tiered          bool            `json:"tiered"`
	IsOverride      bool            `json:"is_override"`
}

// PortionPriceList is the portion selector's data for one menu item.
type PortionPriceList struct {
	MenuItemID uuid.UUID         `json:"menu_item_id"`
	BasePrice  int64             `json:"base_price"`
	Tiered     bool              `json:"tiered"`
	Portions   []PortionPriceDTO `json:"portions"`
}

// LowStockItem is one line of the low-stock report.
type LowStockItem struct {
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	MenuItemID      uuid.UUID       `json:"menu_item_id"`
	MenuItemName    string          `json:"menu_item_name"`
	CurrentStock    decimal.Decimal `json:"current_stock"`
	Unit            enums.UnitType  `json:"unit"`
	Threshold       decimal.Decimal `json:"threshold"`
}

// LowStockScanResult summarises a periodic low-stock scan.
type LowStockScanResult struct {
	LowItems   int `json:"low_items"`
	Alerted    int `json:"alerted"`
	Suppressed int `json:"suppressed"`
}

func portionFromModel(p models.PortionOption) PortionDTO {
	return PortionDTO{
		ID:              p.ID,
		Name:            p.Name,
		Size:            p.Size,
		PriceMultiplier: p.PriceMultiplier,
		FixedPrice:      p.FixedPrice,
		SortOrder:       p.SortOrder,
	}
}

func portionsFromModels(rows []models.PortionOption) []PortionDTO {
	out := make([]PortionDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, portionFromModel(p))
	}
	return out
}

func itemFromModel(item *models.InventoryItem) InventoryItemDTO {
	return InventoryItemDTO{
		ID:                item.ID,
		MenuItemID:        item.MenuItemID,
		CurrentStock:      item.CurrentStock,
		Unit:              item.Unit,
		LowStockThreshold: item.LowStockThreshold,
		DefaultBottleSize: item.DefaultBottleSize,
	}
}

// StockEntryFromModel maps a ledger row for API responses.
func StockEntryFromModel(entry models.StockEntry) StockEntryDTO {
	return StockEntryDTO{
		ID:          entry.ID,
		Quantity:    entry.Quantity,
		Unit:        entry.Unit,
		Source:      entry.Source,
		StockBefore: entry.StockBefore,
		StockAfter:  entry.StockAfter,
		Notes:       entry.Notes,
		CreatedAt:   entry.CreatedAt,
	}
}

func trackedDTO(tracking *models.InventoryCategory, rows []models.PortionOption) TrackingDTO {
	id := tracking.ID
	threshold := tracking.LowStockThreshold
	return TrackingDTO{
		CategoryID:          tracking.CategoryID,
		State:               enums.TrackingStateTracked,
		InventoryCategoryID: &id,
		UnitType:            tracking.UnitType,
		LowStockThreshold:   &threshold,
		Portions:            portionsFromModels(rows),
	}
}
