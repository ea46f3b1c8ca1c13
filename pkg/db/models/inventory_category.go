package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-inventory/pkg/enums"
)

// InventoryCategory marks a Category as stock-tracked. At most one exists per
// Category.
type InventoryCategory struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID        uuid.UUID       `gorm:"column:category_id;type:uuid;not null;uniqueIndex:ux_inventory_categories_category"`
	UnitType          enums.UnitType  `gorm:"column:unit_type;type:text;not null"`
	LowStockThreshold decimal.Decimal `gorm:"column:low_stock_threshold;type:numeric(14,3);not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
