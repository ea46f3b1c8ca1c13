package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-inventory/pkg/db/models"
	"github.com/angelmondragon/pos-inventory/pkg/pagination"
)

// Repository manages persistence for stock entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.StockEntry) error
	ListByItem(ctx context.Context, inventoryItemID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.StockEntry, error)
	DeleteByItems(ctx context.Context, inventoryItemIDs []uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock entry repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.StockEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByItem returns entries newest first, starting strictly after cursor.
func (r *repository) ListByItem(ctx context.Context, inventoryItemID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.StockEntry, error) {
	var entries []models.StockEntry
	if err := r.db.WithContext(ctx).
		Where("inventory_item_id = ?", inventoryItemID).
		Scopes(pagination.NewestFirst(cursor)).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) DeleteByItems(ctx context.Context, inventoryItemIDs []uuid.UUID) (int64, error) {
	if len(inventoryItemIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("inventory_item_id IN ?", inventoryItemIDs).Delete(&models.StockEntry{})
	return res.RowsAffected, res.Error
}
