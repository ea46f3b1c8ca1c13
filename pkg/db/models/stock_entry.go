package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-inventory/pkg/enums"
)

// StockEntry is an append-only ledger row for a single stock mutation.
// Quantity is the signed delta; StockBefore/StockAfter snapshot the running
// balance around it.
type StockEntry struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	InventoryItemID uuid.UUID              `gorm:"column:inventory_item_id;type:uuid;not null;index:ix_stock_entries_item_created,priority:1"`
	Quantity        decimal.Decimal        `gorm:"column:quantity;type:numeric(14,3);not null"`
	Unit            enums.UnitType         `gorm:"column:unit;type:text;not null"`
	Source          enums.StockEntrySource `gorm:"column:source;type:text;not null"`
	StockBefore     decimal.Decimal        `gorm:"column:stock_before;type:numeric(14,3);not null"`
	StockAfter      decimal.Decimal        `gorm:"column:stock_after;type:numeric(14,3);not null"`
	Notes           *string                `gorm:"column:notes"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime;index:ix_stock_entries_item_created,priority:2"`
}
