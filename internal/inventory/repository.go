package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/pos-inventory/internal/repo"
	"github.com/angelmondragon/pos-inventory/pkg/db/models"
	"github.com/angelmondragon/pos-inventory/pkg/enums"
)

// Repository handles persistence for tracked categories, portions, items and
// price overrides.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to inventory operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository scoped to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return repo.ByID[models.Category](r.DB(ctx), id)
}

func (r *Repository) FindMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	return repo.ByID[models.MenuItem](r.DB(ctx), id)
}

// ListMenuItemsByCategory returns the category's menu items in insertion order.
func (r *Repository) ListMenuItemsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := r.DB(ctx).
		Where("category_id = ?", categoryID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindTracking loads the InventoryCategory registered for categoryID.
func (r *Repository) FindTracking(ctx context.Context, categoryID uuid.UUID) (*models.InventoryCategory, error) {
	return repo.First[models.InventoryCategory](r.DB(ctx), "category_id = ?", categoryID)
}

func (r *Repository) CreateTracking(ctx context.Context, tracking *models.InventoryCategory) error {
	return r.DB(ctx).Create(tracking).Error
}

func (r *Repository) DeleteTracking(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.InventoryCategory{}).Error
}

func (r *Repository) CreatePortions(ctx context.Context, portions []models.PortionOption) error {
	if len(portions) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&portions).Error
}

// ListPortions returns a tracked category's portions in display order.
func (r *Repository) ListPortions(ctx context.Context, inventoryCategoryID uuid.UUID) ([]models.PortionOption, error) {
	var portions []models.PortionOption
	if err := r.DB(ctx).
		Where("inventory_category_id = ?", inventoryCategoryID).
		Order("sort_order ASC").
		Order("id ASC").
		Find(&portions).Error; err != nil {
		return nil, err
	}
	return portions, nil
}

func (r *Repository) FindPortion(ctx context.Context, id uuid.UUID) (*models.PortionOption, error) {
	return repo.ByID[models.PortionOption](r.DB(ctx), id)
}

func (r *Repository) SavePortion(ctx context.Context, portion *models.PortionOption) error {
	return r.DB(ctx).Save(portion).Error
}

func (r *Repository) DeletePortions(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return repo.DeleteIn[models.PortionOption](r.DB(ctx), "id", ids)
}

func (r *Repository) CreateItems(ctx context.Context, items []models.InventoryItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&items).Error
}

// FindItemByMenuItem loads the stock row of a menu item. With forUpdate the
// row stays locked until the surrounding transaction ends.
func (r *Repository) FindItemByMenuItem(ctx context.Context, menuItemID uuid.UUID, forUpdate bool) (*models.InventoryItem, error) {
	query := r.DB(ctx)
	if forUpdate && query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var item models.InventoryItem
	if err := query.Where("menu_item_id = ?", menuItemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItemIDsByMenuItems maps menu items to their stock rows.
func (r *Repository) ListItemIDsByMenuItems(ctx context.Context, menuItemIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(menuItemIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	if err := r.DB(ctx).
		Model(&models.InventoryItem{}).
		Where("menu_item_id IN ?", menuItemIDs).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) UpdateItemStock(ctx context.Context, itemID uuid.UUID, stock decimal.Decimal) error {
	return r.DB(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"current_stock": stock,
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (r *Repository) UpdateDefaultBottleSize(ctx context.Context, itemID uuid.UUID, size decimal.Decimal) error {
	return r.DB(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"default_bottle_size": size,
			"updated_at":          time.Now().UTC(),
		}).Error
}

func (r *Repository) DeleteItems(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return repo.DeleteIn[models.InventoryItem](r.DB(ctx), "id", ids)
}

func (r *Repository) ListItemPrices(ctx context.Context, menuItemID uuid.UUID) ([]models.ItemPortionPrice, error) {
	var prices []models.ItemPortionPrice
	if err := r.DB(ctx).Where("menu_item_id = ?", menuItemID).Find(&prices).Error; err != nil {
		return nil, err
	}
	return prices, nil
}

// UpsertItemPrice writes the override, replacing any existing one for the pair.
func (r *Repository) UpsertItemPrice(ctx context.Context, price *models.ItemPortionPrice) error {
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "menu_item_id"}, {Name: "portion_option_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at"}),
	}).Create(price).Error
}

func (r *Repository) DeleteItemPrice(ctx context.Context, menuItemID, portionID uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Where("menu_item_id = ? AND portion_option_id = ?", menuItemID, portionID).
		Delete(&models.ItemPortionPrice{})
	return res.RowsAffected, res.Error
}

func (r *Repository) DeletePricesByPortions(ctx context.Context, portionIDs []uuid.UUID) (int64, error) {
	return repo.DeleteIn[models.ItemPortionPrice](r.DB(ctx), "portion_option_id", portionIDs)
}

// stockRow is one item joined with the data the low-stock monitor needs.
type stockRow struct {
	InventoryItemID   uuid.UUID
	MenuItemID        uuid.UUID
	MenuItemName      string
	CurrentStock      decimal.Decimal
	Unit              enums.UnitType
	ItemThreshold     decimal.NullDecimal
	CategoryThreshold decimal.NullDecimal
}

// ListStockRows returns every inventory item in insertion order. Items seeded
// together share created_at, so the menu item's own creation time breaks ties.
func (r *Repository) ListStockRows(ctx context.Context) ([]stockRow, error) {
	var rows []stockRow
	if err := r.stockRowQuery(ctx).
		Order("ii.created_at ASC").
		Order("mi.created_at ASC").
		Order("ii.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindStockRow returns the low-stock view of a single item.
func (r *Repository) FindStockRow(ctx context.Context, inventoryItemID uuid.UUID) (*stockRow, error) {
	var rows []stockRow
	if err := r.stockRowQuery(ctx).
		Where("ii.id = ?", inventoryItemID).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *Repository) stockRowQuery(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Table("inventory_items AS ii").
		Select(`ii.id AS inventory_item_id,
			ii.menu_item_id AS menu_item_id,
			mi.name AS menu_item_name,
			ii.current_stock AS current_stock,
			ii.unit AS unit,
			ii.low_stock_threshold AS item_threshold,
			ic.low_stock_threshold AS category_threshold`).
		Joins("JOIN menu_items mi ON mi.id = ii.menu_item_id").
		Joins("LEFT JOIN inventory_categories ic ON ic.category_id = mi.category_id")
}
