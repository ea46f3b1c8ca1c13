package menu

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pos-inventory/internal/inventory"
	"github.com/angelmondragon/pos-inventory/pkg/db/models"
)

// CategoryDTO exposes a menu category.
type CategoryDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
	Tracked   bool      `json:"tracked"`
	CreatedAt time.Time `json:"created_at"`
}

// MenuItemDTO exposes a menu item, with its stock row when tracked.
type MenuItemDTO struct {
	ID         uuid.UUID                   `json:"id"`
	CategoryID uuid.UUID                   `json:"category_id"`
	Name       string                      `json:"name"`
	BasePrice  int64                       `json:"base_price"`
	IsActive   bool                        `json:"is_active"`
	Inventory  *inventory.InventoryItemDTO `json:"inventory,omitempty"`
	CreatedAt  time.Time                   `json:"created_at"`
}

func categoryFromModel(c models.Category, tracked bool) CategoryDTO {
	return CategoryDTO{
		ID:        c.ID,
		Name:      c.Name,
		SortOrder: c.SortOrder,
		Tracked:   tracked,
		CreatedAt: c.CreatedAt,
	}
}

func menuItemFromModel(m models.MenuItem) MenuItemDTO {
	return MenuItemDTO{
		ID:         m.ID,
		CategoryID: m.CategoryID,
		Name:       m.Name,
		BasePrice:  m.BasePrice,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt,
	}
}
