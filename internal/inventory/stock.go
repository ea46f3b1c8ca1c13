package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-inventory/internal/ledger"
	"github.com/angelmondragon/pos-inventory/pkg/db/models"
	"github.com/angelmondragon/pos-inventory/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-inventory/pkg/errors"
	"github.com/angelmondragon/pos-inventory/pkg/outbox"
	"github.com/angelmondragon/pos-inventory/pkg/outbox/payloads"
	"github.com/angelmondragon/pos-inventory/pkg/pagination"
)

// AddStockInput is a signed stock delta for one menu item. Unit defaults to
// the item's unit and must match it when given. Source defaults to manual.
type AddStockInput struct {
	MenuItemID uuid.UUID
	Quantity   decimal.Decimal
	Unit       enums.UnitType
	Notes      string
	Source     enums.StockEntrySource
}

// AdjustStockInput is a corrective delta. It may be negative and may take
// the stock below zero.
type AdjustStockInput struct {
	MenuItemID uuid.UUID
	Delta      decimal.Decimal
	Notes      string
}

// lowStockTransition describes how a mutation moved an item relative to its
// threshold.
type lowStockTransition struct {
	enteredLow  bool
	leftLow     bool
	currentLow  bool
	alertQueued bool
}

func (s *service) AddStock(ctx context.Context, input AddStockInput) (*UpdatedStock, error) {
	if input.MenuItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item id is required")
	}
	source := input.Source
	if source == "" {
		source = enums.StockEntrySourceManual
	}
	if !source.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock entry source")
	}

	ctx = s.logg.WithMenuItemID(ctx, input.MenuItemID.String())
	unlock := s.locks.lock(input.MenuItemID)
	defer unlock()

	var (
		entry      *models.StockEntry
		item       *models.InventoryItem
		transition lowStockTransition
		marks      alertMarks
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		item, err = s.loadTrackedItem(ctx, repo, input.MenuItemID, true)
		if err != nil {
			return err
		}
		if input.Unit != "" && input.Unit != item.Unit {
			return pkgerrors.New(pkgerrors.CodeValidation, "unit does not match the item's unit").
				WithDetails(map[string]any{"unit": input.Unit, "expected": item.Unit})
		}

		entry, err = s.ledger.WithTx(tx).RecordEntry(ctx, ledger.RecordEntryInput{
			InventoryItemID: item.ID,
			Quantity:        input.Quantity,
			Unit:            item.Unit,
			Source:          source,
			StockBefore:     item.CurrentStock,
			Notes:           input.Notes,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock entry")
		}
		if err := repo.UpdateItemStock(ctx, item.ID, entry.StockAfter); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update current stock")
		}
		item.CurrentStock = entry.StockAfter

		notes := ""
		if entry.Notes != nil {
			notes = *entry.Notes
		}
		if err := s.emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockAdjusted,
			AggregateType: enums.AggregateInventoryItem,
			AggregateID:   item.ID,
			Data: payloads.StockAdjustedEvent{
				InventoryItemID: item.ID,
				MenuItemID:      item.MenuItemID,
				StockEntryID:    entry.ID,
				Quantity:        entry.Quantity,
				Unit:            entry.Unit,
				Source:          entry.Source,
				StockBefore:     entry.StockBefore,
				StockAfter:      entry.StockAfter,
				Notes:           notes,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue stock event")
		}

		transition, err = s.checkTransition(ctx, tx, item.ID, entry.StockBefore, entry.StockAfter, &marks)
		return err
	})
	if err != nil {
		s.releaseMarks(ctx, marks)
		return nil, err
	}

	s.metrics.IncMutation(string(entry.Source))
	if transition.alertQueued {
		s.metrics.IncAlert(string(payloads.LowStockTriggerMutation))
	}
	if transition.leftLow {
		s.clearAlert(ctx, item.ID)
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"quantity":      entry.Quantity.String(),
		"source":        entry.Source,
		"current_stock": entry.StockAfter.String(),
	}), "stock updated")

	return &UpdatedStock{
		InventoryItemID: item.ID,
		MenuItemID:      item.MenuItemID,
		CurrentStock:    item.CurrentStock,
		Unit:            item.Unit,
		LowStock:        transition.currentLow,
		Entry:           StockEntryFromModel(*entry),
	}, nil
}

// checkTransition compares the balance before and after a mutation with the
// item's threshold and queues a low-stock alert when the item just became low.
func (s *service) checkTransition(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, before, after decimal.Decimal, marks *alertMarks) (lowStockTransition, error) {
	row, err := s.repo.WithTx(tx).FindStockRow(ctx, itemID)
	if err != nil {
		return lowStockTransition{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load threshold")
	}
	threshold := resolveThreshold(nullable(row.ItemThreshold), nullable(row.CategoryThreshold), s.threshold)
	wasLow := IsLowStock(before, threshold)
	isLow := IsLowStock(after, threshold)
	t := lowStockTransition{
		enteredLow: isLow && !wasLow,
		leftLow:    wasLow && !isLow,
		currentLow: isLow,
	}
	if !t.enteredLow {
		return t, nil
	}
	row.CurrentStock = after
	queued, err := s.queueLowStockAlert(ctx, tx, row, threshold, payloads.LowStockTriggerMutation, marks)
	if err != nil {
		return t, err
	}
	t.alertQueued = queued
	return t, nil
}

func (s *service) ReceiveStock(ctx context.Context, form StockEntryForm) (*UpdatedStock, error) {
	if form.MenuItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item id is required")
	}
	item, err := s.loadTrackedItem(ctx, s.repo, form.MenuItemID, false)
	if err != nil {
		return nil, err
	}
	if item.Unit != enums.UnitTypeML && (form.usesBottles() || form.BottleSizeML != nil) {
		s.metrics.IncRejection("invalid_form")
		return nil, errBottlesNeedML(item.Unit)
	}
	resolved, err := ResolveBottleEntry(form, item.DefaultBottleSize)
	if err != nil {
		s.metrics.IncRejection("invalid_form")
		return nil, err
	}
	if !resolved.Quantity.IsPositive() {
		s.metrics.IncRejection("non_positive")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	return s.AddStock(ctx, AddStockInput{
		MenuItemID: form.MenuItemID,
		Quantity:   resolved.Quantity,
		Unit:       item.Unit,
		Notes:      resolved.Notes,
		Source:     resolved.Source,
	})
}

func (s *service) AdjustStock(ctx context.Context, input AdjustStockInput) (*UpdatedStock, error) {
	if input.Delta.IsZero() {
		s.metrics.IncRejection("zero_delta")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "correction delta must not be zero")
	}
	return s.AddStock(ctx, AddStockInput{
		MenuItemID: input.MenuItemID,
		Quantity:   input.Delta,
		Notes:      input.Notes,
		Source:     enums.StockEntrySourceCorrection,
	})
}

func (s *service) SetDefaultBottleSize(ctx context.Context, menuItemID uuid.UUID, sizeML decimal.Decimal) (*InventoryItemDTO, error) {
	if !sizeML.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bottle size must be greater than zero")
	}
	unlock := s.locks.lock(menuItemID)
	defer unlock()

	var item *models.InventoryItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		item, err = s.loadTrackedItem(ctx, repo, menuItemID, true)
		if err != nil {
			return err
		}
		if item.Unit != enums.UnitTypeML {
			return errBottlesNeedML(item.Unit)
		}
		if err := repo.UpdateDefaultBottleSize(ctx, item.ID, sizeML); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update bottle size")
		}
		item.DefaultBottleSize = &sizeML
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := itemFromModel(item)
	return &dto, nil
}

// errBottlesNeedML rejects bottle sizes on items not measured in ml.
func errBottlesNeedML(unit enums.UnitType) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "bottle sizes apply only to ml items").
		WithDetails(map[string]any{"unit": unit})
}

func (s *service) ListStockEntries(ctx context.Context, menuItemID uuid.UUID, params pagination.Params) (pagination.Page[StockEntryDTO], error) {
	item, err := s.loadTrackedItem(ctx, s.repo, menuItemID, false)
	if err != nil {
		return pagination.Page[StockEntryDTO]{}, err
	}
	if params.Limit <= 0 && s.historySize > 0 {
		params.Limit = s.historySize
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[StockEntryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.ledger.ListEntries(ctx, item.ID, params)
	if err != nil {
		return pagination.Page[StockEntryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock entries")
	}
	out := make([]StockEntryDTO, 0, len(page.Items))
	for _, entry := range page.Items {
		out = append(out, StockEntryFromModel(entry))
	}
	return pagination.Page[StockEntryDTO]{Items: out, NextCursor: page.NextCursor}, nil
}

// loadTrackedItem resolves a menu item's stock row, telling apart a missing
// menu item (NotFound) from one whose category is not tracked (NotTracked).
func (s *service) loadTrackedItem(ctx context.Context, repo *Repository, menuItemID uuid.UUID, forUpdate bool) (*models.InventoryItem, error) {
	item, err := repo.FindItemByMenuItem(ctx, menuItemID, forUpdate)
	if err == nil {
		return item, nil
	}
	if !isNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	if _, err := repo.FindMenuItem(ctx, menuItemID); err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotTracked, "menu item is not stock-tracked").
		WithDetails(map[string]any{"menu_item_id": menuItemID})
}
