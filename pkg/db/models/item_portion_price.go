package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemPortionPrice is a manual price for one (menu item, portion) pair. It
// replaces the derived price unconditionally.
type ItemPortionPrice struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	MenuItemID      uuid.UUID `gorm:"column:menu_item_id;type:uuid;not null;uniqueIndex:ux_item_portion_prices_pair,priority:1"`
	PortionOptionID uuid.UUID `gorm:"column:portion_option_id;type:uuid;not null;uniqueIndex:ux_item_portion_prices_pair,priority:2"`
	Price           int64     `gorm:"column:price;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
