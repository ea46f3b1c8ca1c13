package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PortionOption is one sellable size within a tracked category.
type PortionOption struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	InventoryCategoryID uuid.UUID       `gorm:"column:inventory_category_id;type:uuid;not null;index"`
	Name                string          `gorm:"column:name;not null"`
	Size                decimal.Decimal `gorm:"column:size;type:numeric(14,3);not null"`
	PriceMultiplier     decimal.Decimal `gorm:"column:price_multiplier;type:numeric(10,4);not null"`
	FixedPrice          *int64          `gorm:"column:fixed_price"`
	SortOrder           int             `gorm:"column:sort_order;not null;default:0"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
