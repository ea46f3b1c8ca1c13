package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-inventory/pkg/db/models"
	"github.com/angelmondragon/pos-inventory/pkg/enums"
	"github.com/angelmondragon/pos-inventory/pkg/pagination"
)

// Service records and reads the append-only stock ledger.
type Service interface {
	WithTx(tx *gorm.DB) Service
	RecordEntry(ctx context.Context, input RecordEntryInput) (*models.StockEntry, error)
	ListEntries(ctx context.Context, inventoryItemID uuid.UUID, params pagination.Params) (pagination.Page[models.StockEntry], error)
	PurgeItems(ctx context.Context, inventoryItemIDs []uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
}

// RecordEntryInput captures the immutable data a stock entry requires.
// StockBefore is the balance read under the item lock.
type RecordEntryInput struct {
	InventoryItemID uuid.UUID
	Quantity        decimal.Decimal
	Unit            enums.UnitType
	Source          enums.StockEntrySource
	StockBefore     decimal.Decimal
	Notes           string
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) RecordEntry(ctx context.Context, input RecordEntryInput) (*models.StockEntry, error) {
	if input.InventoryItemID == uuid.Nil {
		return nil, fmt.Errorf("inventory item id is required")
	}
	if !input.Unit.IsValid() {
		return nil, fmt.Errorf("invalid unit %q", input.Unit)
	}
	if !input.Source.IsValid() {
		return nil, fmt.Errorf("invalid stock entry source %q", input.Source)
	}

	entry := &models.StockEntry{
		InventoryItemID: input.InventoryItemID,
		Quantity:        input.Quantity,
		Unit:            input.Unit,
		Source:          input.Source,
		StockBefore:     input.StockBefore,
		StockAfter:      input.StockBefore.Add(input.Quantity),
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		entry.Notes = &notes
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) ListEntries(ctx context.Context, inventoryItemID uuid.UUID, params pagination.Params) (pagination.Page[models.StockEntry], error) {
	if inventoryItemID == uuid.Nil {
		return pagination.Page[models.StockEntry]{}, fmt.Errorf("inventory item id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.StockEntry]{}, err
	}
	rows, err := s.repo.ListByItem(ctx, inventoryItemID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return pagination.Page[models.StockEntry]{}, err
	}
	return pagination.Trim(rows, params.Limit, func(e models.StockEntry) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	}), nil
}

func (s *service) PurgeItems(ctx context.Context, inventoryItemIDs []uuid.UUID) (int64, error) {
	return s.repo.DeleteByItems(ctx, inventoryItemIDs)
}
