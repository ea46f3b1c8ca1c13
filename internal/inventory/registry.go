package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-inventory/internal/portions"
	"github.com/angelmondragon/pos-inventory/pkg/db"
	"github.com/angelmondragon/pos-inventory/pkg/db/models"
	"github.com/angelmondragon/pos-inventory/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-inventory/pkg/errors"
	"github.com/angelmondragon/pos-inventory/pkg/outbox"
	"github.com/angelmondragon/pos-inventory/pkg/outbox/payloads"
	"github.com/angelmondragon/pos-inventory/pkg/types"
)

// RegisterCategoryInput opts a category into stock tracking. A nil
// LowStockThreshold uses the configured default.
type RegisterCategoryInput struct {
	CategoryID        uuid.UUID
	UnitType          string
	LowStockThreshold *decimal.Decimal
}

// UpdatePortionInput edits a portion option. Nil fields are left unchanged;
// FixedPrice distinguishes "absent" from an explicit null that clears it.
type UpdatePortionInput struct {
	Name            *string
	Size            *decimal.Decimal
	PriceMultiplier *decimal.Decimal
	FixedPrice      types.Nullable[int64]
}

func (s *service) RegisterCategory(ctx context.Context, input RegisterCategoryInput) (*TrackingDTO, error) {
	category, err := s.repo.FindCategory(ctx, input.CategoryID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}

	unit, err := enums.ParseUnitType(input.UnitType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "unsupported unit type").
			WithDetails(map[string]any{"unit_type": input.UnitType, "allowed": enums.UnitTypes()})
	}
	templates, err := portions.DefaultTemplate(unit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "no portion template for unit")
	}

	threshold := s.threshold
	if input.LowStockThreshold != nil {
		threshold = *input.LowStockThreshold
	}
	if threshold.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold must be >= 0")
	}

	if _, err := s.repo.FindTracking(ctx, category.ID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "category is already tracked")
	} else if !isNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tracking")
	}

	var (
		tracking *models.InventoryCategory
		options  []models.PortionOption
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		tracking = &models.InventoryCategory{
			CategoryID:        category.ID,
			UnitType:          unit,
			LowStockThreshold: threshold,
		}
		if err := repo.CreateTracking(ctx, tracking); err != nil {
			if db.IsUniqueViolation(err, "ux_inventory_categories_category") {
				return pkgerrors.New(pkgerrors.CodeConflict, "category is already tracked")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tracking")
		}

		options = make([]models.PortionOption, 0, len(templates))
		for i, tpl := range templates {
			options = append(options, models.PortionOption{
				InventoryCategoryID: tracking.ID,
				Name:                tpl.Name,
				Size:                tpl.Size,
				PriceMultiplier:     tpl.Multiplier,
				SortOrder:           i,
			})
		}
		if err := repo.CreatePortions(ctx, options); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed portions")
		}

		menuItems, err := repo.ListMenuItemsByCategory(ctx, category.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu items")
		}
		items := make([]models.InventoryItem, 0, len(menuItems))
		for _, mi := range menuItems {
			items = append(items, models.InventoryItem{
				MenuItemID:   mi.ID,
				CurrentStock: decimal.Zero,
				Unit:         unit,
			})
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed inventory items")
		}

		return s.emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCategoryTrackingEnabled,
			AggregateType: enums.AggregateInventoryCategory,
			AggregateID:   tracking.ID,
			Data: payloads.CategoryTrackingEnabledEvent{
				InventoryCategoryID: tracking.ID,
				CategoryID:          category.ID,
				UnitType:            unit,
				LowStockThreshold:   threshold,
				PortionsSeeded:      len(options),
				ItemsSeeded:         len(items),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(s.logg.WithCategoryID(ctx, category.ID.String()), map[string]any{
		"unit_type": unit,
		"portions":  len(options),
	}), "category tracking enabled")

	dto := trackedDTO(tracking, options)
	return &dto, nil
}

func (s *service) UnregisterCategory(ctx context.Context, categoryID uuid.UUID, confirmed bool) (*UnregisterResult, error) {
	if !confirmed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unregistering deletes all stock data for the category and must be confirmed")
	}
	if _, err := s.repo.FindCategory(ctx, categoryID); err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}

	result := &UnregisterResult{CategoryID: categoryID}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		tracking, err := repo.FindTracking(ctx, categoryID)
		if err != nil {
			if isNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotTracked, "category is not tracked")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tracking")
		}

		options, err := repo.ListPortions(ctx, tracking.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list portions")
		}
		portionIDs := make([]uuid.UUID, 0, len(options))
		for _, p := range options {
			portionIDs = append(portionIDs, p.ID)
		}

		menuItems, err := repo.ListMenuItemsByCategory(ctx, categoryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu items")
		}
		menuItemIDs := make([]uuid.UUID, 0, len(menuItems))
		for _, mi := range menuItems {
			menuItemIDs = append(menuItemIDs, mi.ID)
		}
		itemIDs, err := repo.ListItemIDsByMenuItems(ctx, menuItemIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory items")
		}

		// Children go first so no foreign key ever points at a removed row.
		if result.PricesRemoved, err = repo.DeletePricesByPortions(ctx, portionIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete portion prices")
		}
		if result.PortionsRemoved, err = repo.DeletePortions(ctx, portionIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete portions")
		}
		if result.EntriesRemoved, err = s.ledger.WithTx(tx).PurgeItems(ctx, itemIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete stock entries")
		}
		if result.ItemsRemoved, err = repo.DeleteItems(ctx, itemIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete inventory items")
		}
		if err := repo.DeleteTracking(ctx, tracking.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete tracking")
		}

		return s.emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCategoryTrackingDisabled,
			AggregateType: enums.AggregateInventoryCategory,
			AggregateID:   tracking.ID,
			Data: payloads.CategoryTrackingDisabledEvent{
				InventoryCategoryID: tracking.ID,
				CategoryID:          categoryID,
				PortionsRemoved:     result.PortionsRemoved,
				PricesRemoved:       result.PricesRemoved,
				ItemsRemoved:        result.ItemsRemoved,
				EntriesRemoved:      result.EntriesRemoved,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Warn(s.logg.WithFields(s.logg.WithCategoryID(ctx, categoryID.String()), map[string]any{
		"items_removed":   result.ItemsRemoved,
		"entries_removed": result.EntriesRemoved,
	}), "category tracking disabled")
	return result, nil
}

func (s *service) GetTracking(ctx context.Context, categoryID uuid.UUID) (*TrackingDTO, error) {
	if _, err := s.repo.FindCategory(ctx, categoryID); err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	tracking, err := s.repo.FindTracking(ctx, categoryID)
	if err != nil {
		if isNotFound(err) {
			return &TrackingDTO{
				CategoryID: categoryID,
				State:      enums.TrackingStateUntracked,
				Portions:   []PortionDTO{},
			}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tracking")
	}
	options, err := s.repo.ListPortions(ctx, tracking.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list portions")
	}
	dto := trackedDTO(tracking, options)
	return &dto, nil
}

func (s *service) UpdatePortionOption(ctx context.Context, portionID uuid.UUID, input UpdatePortionInput) (*PortionDTO, error) {
	portion, err := s.repo.FindPortion(ctx, portionID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "portion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load portion")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "portion name is required")
		}
		portion.Name = name
	}
	if input.Size != nil {
		if !input.Size.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "portion size must be positive")
		}
		portion.Size = *input.Size
	}
	if input.PriceMultiplier != nil {
		if !input.PriceMultiplier.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price multiplier must be positive")
		}
		portion.PriceMultiplier = *input.PriceMultiplier
	}
	if input.FixedPrice.Set {
		if input.FixedPrice.Value != nil && *input.FixedPrice.Value < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fixed price must be >= 0")
		}
		portion.FixedPrice = input.FixedPrice.Value
	}

	if err := s.repo.SavePortion(ctx, portion); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save portion")
	}
	dto := portionFromModel(*portion)
	return &dto, nil
}

// SeedItem creates the zero-stock row for a menu item added to an already
// tracked category. It is a no-op for untracked categories.
func (s *service) SeedItem(ctx context.Context, tx *gorm.DB, menuItem *models.MenuItem) (*InventoryItemDTO, error) {
	if menuItem == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item is required")
	}
	repo := s.repo.WithTx(tx)
	tracking, err := repo.FindTracking(ctx, menuItem.CategoryID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tracking")
	}
	item := models.InventoryItem{
		MenuItemID:   menuItem.ID,
		CurrentStock: decimal.Zero,
		Unit:         tracking.UnitType,
	}
	if err := repo.CreateItems(ctx, []models.InventoryItem{item}); err != nil {
		if db.IsUniqueViolation(err, "ux_inventory_items_menu_item") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "menu item already has an inventory item")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed inventory item")
	}
	created, err := repo.FindItemByMenuItem(ctx, menuItem.ID, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory item")
	}
	dto := itemFromModel(created)
	return &dto, nil
}
