package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-inventory/pkg/enums"
)

// InventoryItem holds the running stock of one menu item. CurrentStock may go
// negative through corrections.
type InventoryItem struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	MenuItemID        uuid.UUID        `gorm:"column:menu_item_id;type:uuid;not null;uniqueIndex:ux_inventory_items_menu_item"`
	CurrentStock      decimal.Decimal  `gorm:"column:current_stock;type:numeric(14,3);not null"`
	Unit              enums.UnitType   `gorm:"column:unit;type:text;not null"`
	LowStockThreshold *decimal.Decimal `gorm:"column:low_stock_threshold;type:numeric(14,3)"`
	DefaultBottleSize *decimal.Decimal `gorm:"column:default_bottle_size;type:numeric(10,2)"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
