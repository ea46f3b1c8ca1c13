package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-inventory/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-inventory/pkg/errors"
	"github.com/angelmondragon/pos-inventory/pkg/outbox"
	"github.com/angelmondragon/pos-inventory/pkg/outbox/payloads"
)

// ListLowStockItems reports every item at or below its effective threshold,
// in item insertion order. Nothing is cached; each call rescans.
func (s *service) ListLowStockItems(ctx context.Context) ([]LowStockItem, error) {
	rows, err := s.repo.ListStockRows(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory items")
	}
	out := make([]LowStockItem, 0)
	for _, row := range rows {
		threshold := resolveThreshold(nullable(row.ItemThreshold), nullable(row.CategoryThreshold), s.threshold)
		if !IsLowStock(row.CurrentStock, threshold) {
			continue
		}
		out = append(out, LowStockItem{
			InventoryItemID: row.InventoryItemID,
			MenuItemID:      row.MenuItemID,
			MenuItemName:    row.MenuItemName,
			CurrentStock:    row.CurrentStock,
			Unit:            row.Unit,
			Threshold:       threshold,
		})
	}
	return out, nil
}

// ScanLowStock runs the low-stock report and queues one alert per low item,
// skipping items still inside their alert cooldown.
func (s *service) ScanLowStock(ctx context.Context) (*LowStockScanResult, error) {
	items, err := s.ListLowStockItems(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.SetLowStockItems(len(items))

	result := &LowStockScanResult{LowItems: len(items)}
	if len(items) == 0 || s.events == nil {
		return result, nil
	}

	var marks alertMarks
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, item := range items {
			row := &stockRow{
				InventoryItemID: item.InventoryItemID,
				MenuItemID:      item.MenuItemID,
				MenuItemName:    item.MenuItemName,
				CurrentStock:    item.CurrentStock,
				Unit:            item.Unit,
			}
			queued, err := s.queueLowStockAlert(ctx, tx, row, item.Threshold, payloads.LowStockTriggerScan, &marks)
			if err != nil {
				return err
			}
			if queued {
				result.Alerted++
			} else {
				result.Suppressed++
			}
		}
		return nil
	})
	if err != nil {
		s.releaseMarks(ctx, marks)
		return nil, err
	}
	for i := 0; i < result.Alerted; i++ {
		s.metrics.IncAlert(string(payloads.LowStockTriggerScan))
	}
	return result, nil
}

// alertMarks collects the cooldown marks taken inside a transaction. The
// cooldown store is not transactional, so a rollback has to release them.
type alertMarks []uuid.UUID

// queueLowStockAlert writes a low_stock_detected event unless the item was
// alerted within the cooldown. A cooldown store failure never blocks the
// alert. Fresh marks are appended to marks.
func (s *service) queueLowStockAlert(ctx context.Context, tx *gorm.DB, row *stockRow, threshold decimal.Decimal, trigger payloads.LowStockTrigger, marks *alertMarks) (bool, error) {
	if s.events == nil {
		return false, nil
	}
	if s.alerts != nil {
		seen, err := s.alerts.CheckAndMark(ctx, lowStockAlertScope, row.InventoryItemID)
		switch {
		case err != nil:
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "low stock cooldown unavailable")
		case seen:
			return false, nil
		default:
			*marks = append(*marks, row.InventoryItemID)
		}
	}
	if err := s.emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventLowStockDetected,
		AggregateType: enums.AggregateInventoryItem,
		AggregateID:   row.InventoryItemID,
		Data: payloads.LowStockDetectedEvent{
			InventoryItemID: row.InventoryItemID,
			MenuItemID:      row.MenuItemID,
			MenuItemName:    row.MenuItemName,
			CurrentStock:    row.CurrentStock,
			Threshold:       threshold,
			Unit:            row.Unit,
			Trigger:         trigger,
		},
	}); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue low stock event")
	}
	return true, nil
}

// releaseMarks drops cooldown marks whose alerts never committed.
func (s *service) releaseMarks(ctx context.Context, marks alertMarks) {
	for _, id := range marks {
		s.clearAlert(ctx, id)
	}
}

// clearAlert re-arms alerting for an item that was replenished above its
// threshold.
func (s *service) clearAlert(ctx context.Context, itemID uuid.UUID) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.Clear(ctx, lowStockAlertScope, itemID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "clear low stock cooldown failed")
	}
}
