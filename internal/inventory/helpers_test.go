package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-inventory/internal/ledger"
	"github.com/angelmondragon/pos-inventory/pkg/config"
	"github.com/angelmondragon/pos-inventory/pkg/db"
	"github.com/angelmondragon/pos-inventory/pkg/db/models"
	"github.com/angelmondragon/pos-inventory/pkg/enums"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
	"github.com/angelmondragon/pos-inventory/pkg/metrics"
	"github.com/angelmondragon/pos-inventory/pkg/outbox"
)

type fakeAlerts struct {
	mu      sync.Mutex
	marked  map[uuid.UUID]bool
	cleared []uuid.UUID
	err     error
}

func newFakeAlerts() *fakeAlerts {
	return &fakeAlerts{marked: map[uuid.UUID]bool{}}
}

func (f *fakeAlerts) CheckAndMark(_ context.Context, _ string, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	seen := f.marked[id]
	f.marked[id] = true
	return seen, nil
}

func (f *fakeAlerts) Clear(_ context.Context, _ string, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.marked, id)
	f.cleared = append(f.cleared, id)
	return nil
}

// failingEmitter forwards to the outbox until failAt emits have been made,
// then fails that emit. Zero never fails.
type failingEmitter struct {
	mu     sync.Mutex
	next   eventEmitter
	failAt int
	calls  int
}

func (e *failingEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	e.mu.Lock()
	e.calls++
	fail := e.failAt > 0 && e.calls == e.failAt
	e.mu.Unlock()
	if fail {
		return errors.New("outbox insert failed")
	}
	return e.next.Emit(ctx, tx, event)
}

// failNext makes the n-th emit from now fail.
func (e *failingEmitter) failNext(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failAt = e.calls + n
}

type fixture struct {
	t       *testing.T
	conn    *gorm.DB
	svc     Service
	alerts  *fakeAlerts
	emitter *failingEmitter
}

func testInventoryConfig() config.InventoryConfig {
	return config.InventoryConfig{
		DefaultLowStockThreshold: 5,
		CommonBottleSizesML:      []int{90, 180, 375, 750, 1000},
		StockHistoryLimit:        50,
		AlertCooldown:            6 * time.Hour,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(models.All()...))

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)

	alerts := newFakeAlerts()
	events := &failingEmitter{next: outbox.NewService(outbox.NewRepository(conn), logger.Nop())}
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(conn),
		Ledger:  ledgerSvc,
		Tx:      db.NewFromConn(conn),
		Events:  events,
		Alerts:  alerts,
		Metrics: metrics.NewInventoryMetrics(nil),
		Config:  testInventoryConfig(),
		Logger:  logger.Nop(),
	})
	require.NoError(t, err)
	return &fixture{t: t, conn: conn, svc: svc, alerts: alerts, emitter: events}
}

func (f *fixture) category(name string) *models.Category {
	f.t.Helper()
	c := &models.Category{Name: name}
	require.NoError(f.t, f.conn.Create(c).Error)
	return c
}

func (f *fixture) menuItem(categoryID uuid.UUID, name string, basePrice int64) *models.MenuItem {
	f.t.Helper()
	m := &models.MenuItem{CategoryID: categoryID, Name: name, BasePrice: basePrice, IsActive: true}
	require.NoError(f.t, f.conn.Create(m).Error)
	return m
}

func (f *fixture) track(categoryID uuid.UUID, unit string, threshold int64) *TrackingDTO {
	f.t.Helper()
	th := decimal.NewFromInt(threshold)
	dto, err := f.svc.RegisterCategory(context.Background(), RegisterCategoryInput{
		CategoryID:        categoryID,
		UnitType:          unit,
		LowStockThreshold: &th,
	})
	require.NoError(f.t, err)
	return dto
}

func (f *fixture) item(menuItemID uuid.UUID) models.InventoryItem {
	f.t.Helper()
	var item models.InventoryItem
	require.NoError(f.t, f.conn.Where("menu_item_id = ?", menuItemID).First(&item).Error)
	return item
}

func (f *fixture) count(model any, query string, args ...any) int64 {
	f.t.Helper()
	var n int64
	q := f.conn.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(f.t, q.Count(&n).Error)
	return n
}

func (f *fixture) events(eventType enums.OutboxEventType) []models.OutboxEvent {
	f.t.Helper()
	var rows []models.OutboxEvent
	require.NoError(f.t, f.conn.Where("event_type = ?", eventType).Order("created_at ASC").Find(&rows).Error)
	return rows
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func int64Ptr(v int64) *int64 {
	return &v
}
