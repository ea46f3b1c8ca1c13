package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-inventory/internal/ledger"
	"github.com/angelmondragon/pos-inventory/pkg/config"
	"github.com/angelmondragon/pos-inventory/pkg/db"
	"github.com/angelmondragon/pos-inventory/pkg/db/models"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
	"github.com/angelmondragon/pos-inventory/pkg/metrics"
	"github.com/angelmondragon/pos-inventory/pkg/outbox"
	"github.com/angelmondragon/pos-inventory/pkg/pagination"
)

const lowStockAlertScope = "low-stock"

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// alertGuard suppresses repeated low-stock alerts for the same item.
type alertGuard interface {
	CheckAndMark(ctx context.Context, scope string, id uuid.UUID) (bool, error)
	Clear(ctx context.Context, scope string, id uuid.UUID) error
}

// Service exposes category tracking, stock and pricing operations.
type Service interface {
	RegisterCategory(ctx context.Context, input RegisterCategoryInput) (*TrackingDTO, error)
	UnregisterCategory(ctx context.Context, categoryID uuid.UUID, confirmed bool) (*UnregisterResult, error)
	GetTracking(ctx context.Context, categoryID uuid.UUID) (*TrackingDTO, error)
	UpdatePortionOption(ctx context.Context, portionID uuid.UUID, input UpdatePortionInput) (*PortionDTO, error)
	SeedItem(ctx context.Context, tx *gorm.DB, menuItem *models.MenuItem) (*InventoryItemDTO, error)

	AddStock(ctx context.Context, input AddStockInput) (*UpdatedStock, error)
	ReceiveStock(ctx context.Context, form StockEntryForm) (*UpdatedStock, error)
	AdjustStock(ctx context.Context, input AdjustStockInput) (*UpdatedStock, error)
	SetDefaultBottleSize(ctx context.Context, menuItemID uuid.UUID, sizeML decimal.Decimal) (*InventoryItemDTO, error)
	ListStockEntries(ctx context.Context, menuItemID uuid.UUID, params pagination.Params) (pagination.Page[StockEntryDTO], error)
	BottleSizes() []decimal.Decimal

	GetPortionPrice(ctx context.Context, menuItemID, portionID uuid.UUID) (*PortionPriceDTO, error)
	ListPortionPrices(ctx context.Context, menuItemID uuid.UUID) (*PortionPriceList, error)
	SetItemPortionPrice(ctx context.Context, menuItemID, portionID uuid.UUID, price int64) (*PortionPriceDTO, error)
	ClearItemPortionPrice(ctx context.Context, menuItemID, portionID uuid.UUID) (*PortionPriceDTO, error)

	ListLowStockItems(ctx context.Context) ([]LowStockItem, error)
	ScanLowStock(ctx context.Context) (*LowStockScanResult, error)
}

// ServiceParams wires the inventory service. Events and Alerts are optional:
// a nil Events disables outbox emission, a nil Alerts disables the low-stock
// alert cooldown.
type ServiceParams struct {
	Repo    *Repository
	Ledger  ledger.Service
	Tx      db.TxRunner
	Events  eventEmitter
	Alerts  alertGuard
	Metrics *metrics.InventoryMetrics
	Config  config.InventoryConfig
	Logger  *logger.Logger
}

type service struct {
	repo        *Repository
	ledger      ledger.Service
	tx          db.TxRunner
	events      eventEmitter
	alerts      alertGuard
	metrics     *metrics.InventoryMetrics
	logg        *logger.Logger
	threshold   decimal.Decimal
	bottleSizes []decimal.Decimal
	historySize int
	locks       *itemLocks
}

// NewService builds the inventory service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	threshold := decimal.NewFromFloat(params.Config.DefaultLowStockThreshold)
	sizes := make([]decimal.Decimal, 0, len(params.Config.CommonBottleSizesML))
	for _, size := range params.Config.CommonBottleSizesML {
		sizes = append(sizes, decimal.NewFromInt(int64(size)))
	}
	return &service{
		repo:        params.Repo,
		ledger:      params.Ledger,
		tx:          params.Tx,
		events:      params.Events,
		alerts:      params.Alerts,
		metrics:     params.Metrics,
		logg:        logg,
		threshold:   threshold,
		bottleSizes: sizes,
		historySize: params.Config.StockHistoryLimit,
		locks:       newItemLocks(),
	}, nil
}

// BottleSizes returns the quick-pick bottle sizes for the stock form.
func (s *service) BottleSizes() []decimal.Decimal {
	out := make([]decimal.Decimal, len(s.bottleSizes))
	copy(out, s.bottleSizes)
	return out
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.events == nil {
		return nil
	}
	return s.events.Emit(ctx, tx, event)
}

// itemLocks serializes mutations of the same menu item within the process.
// Row locks cover concurrent processes on Postgres; sqlite has none.
type itemLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newItemLocks() *itemLocks {
	return &itemLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *itemLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
