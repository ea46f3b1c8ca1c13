package menu

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-inventory/internal/repo"
	"github.com/angelmondragon/pos-inventory/pkg/db/models"
)

// Repository persists categories and menu items.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to catalog operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.DB(ctx).Create(category).Error
}

func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return repo.ByID[models.Category](r.DB(ctx), id)
}

// ListCategories returns categories in POS display order.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.DB(ctx).
		Order("sort_order ASC").
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// TrackedCategoryIDs returns the ids of categories with stock tracking enabled.
func (r *Repository) TrackedCategoryIDs(ctx context.Context) (map[uuid.UUID]struct{}, error) {
	var ids []uuid.UUID
	if err := r.DB(ctx).Model(&models.InventoryCategory{}).Pluck("category_id", &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (r *Repository) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	return r.DB(ctx).Create(item).Error
}

// ListMenuItems returns menu items, optionally limited to one category.
func (r *Repository) ListMenuItems(ctx context.Context, categoryID *uuid.UUID) ([]models.MenuItem, error) {
	query := r.DB(ctx)
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	var items []models.MenuItem
	if err := query.
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
