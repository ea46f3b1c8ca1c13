package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-inventory/internal/inventory"
	"github.com/angelmondragon/pos-inventory/pkg/db"
	"github.com/angelmondragon/pos-inventory/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pos-inventory/pkg/errors"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
)

type inventorySeeder interface {
	SeedItem(ctx context.Context, tx *gorm.DB, menuItem *models.MenuItem) (*inventory.InventoryItemDTO, error)
}

// Service manages the POS catalog: categories and their menu items.
type Service interface {
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	CreateMenuItem(ctx context.Context, input CreateMenuItemInput) (*MenuItemDTO, error)
	ListMenuItems(ctx context.Context, categoryID *uuid.UUID) ([]MenuItemDTO, error)
}

// CreateCategoryInput captures a new category.
type CreateCategoryInput struct {
	Name      string
	SortOrder int
}

// CreateMenuItemInput captures a new menu item. IsActive defaults to true.
type CreateMenuItemInput struct {
	CategoryID uuid.UUID
	Name       string
	BasePrice  int64
	IsActive   *bool
}

type service struct {
	repo   *Repository
	tx     db.TxRunner
	seeder inventorySeeder
	logg   *logger.Logger
}

// NewService builds the catalog service. Menu items created in a tracked
// category get their inventory row through seeder in the same transaction.
func NewService(repo *Repository, tx db.TxRunner, seeder inventorySeeder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if seeder == nil {
		return nil, fmt.Errorf("inventory seeder required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, seeder: seeder, logg: logg}, nil
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	category := &models.Category{Name: name, SortOrder: input.SortOrder}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	dto := categoryFromModel(*category, false)
	return &dto, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	tracked, err := s.repo.TrackedCategoryIDs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tracked categories")
	}
	out := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		_, ok := tracked[c.ID]
		out = append(out, categoryFromModel(c, ok))
	}
	return out, nil
}

func (s *service) CreateMenuItem(ctx context.Context, input CreateMenuItemInput) (*MenuItemDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item name is required")
	}
	if input.BasePrice < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must be >= 0")
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	var dto MenuItemDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindCategory(ctx, input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		item := &models.MenuItem{
			CategoryID: input.CategoryID,
			Name:       name,
			BasePrice:  input.BasePrice,
			IsActive:   active,
		}
		if err := repo.CreateMenuItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create menu item")
		}
		stock, err := s.seeder.SeedItem(ctx, tx, item)
		if err != nil {
			return err
		}
		dto = menuItemFromModel(*item)
		dto.Inventory = stock
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithMenuItemID(ctx, dto.ID.String()), "menu item created")
	return &dto, nil
}

func (s *service) ListMenuItems(ctx context.Context, categoryID *uuid.UUID) ([]MenuItemDTO, error) {
	items, err := s.repo.ListMenuItems(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu items")
	}
	out := make([]MenuItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, menuItemFromModel(item))
	}
	return out, nil
}
