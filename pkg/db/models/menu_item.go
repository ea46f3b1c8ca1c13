package models

import (
	"time"

	"github.com/google/uuid"
)

// MenuItem is a sellable item. BasePrice is in whole currency units and is
// the price of the smallest portion when the category is tracked.
type MenuItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	BasePrice  int64     `gorm:"column:base_price;not null"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
