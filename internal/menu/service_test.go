package menu

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-inventory/internal/inventory"
	"github.com/angelmondragon/pos-inventory/internal/ledger"
	"github.com/angelmondragon/pos-inventory/pkg/config"
	"github.com/angelmondragon/pos-inventory/pkg/db"
	"github.com/angelmondragon/pos-inventory/pkg/db/models"
	"github.com/angelmondragon/pos-inventory/pkg/enums"
	pkgerrors "github.com/angelmondragon/pos-inventory/pkg/errors"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
)

type fakeSeeder struct {
	calls int
	err   error
}

func (f *fakeSeeder) SeedItem(context.Context, *gorm.DB, *models.MenuItem) (*inventory.InventoryItemDTO, error) {
	f.calls++
	return nil, f.err
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:menu_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	return conn
}

func TestCreateCategoryAndList(t *testing.T) {
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn), &fakeSeeder{}, logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.CreateCategory(ctx, CreateCategoryInput{Name: "   "})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	beer, err := svc.CreateCategory(ctx, CreateCategoryInput{Name: "Beer", SortOrder: 2})
	require.NoError(t, err)
	whisky, err := svc.CreateCategory(ctx, CreateCategoryInput{Name: " Whisky ", SortOrder: 1})
	require.NoError(t, err)
	require.Equal(t, "Whisky", whisky.Name)

	require.NoError(t, conn.Create(&models.InventoryCategory{
		CategoryID:        beer.ID,
		UnitType:          enums.UnitTypeBottle,
		LowStockThreshold: decimal.NewFromInt(12),
	}).Error)

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, whisky.ID, list[0].ID, "sorted by sort order")
	assert.False(t, list[0].Tracked)
	assert.True(t, list[1].Tracked)
}

func TestCreateMenuItemValidation(t *testing.T) {
	conn := newTestDB(t)
	seeder := &fakeSeeder{}
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn), seeder, logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.CreateMenuItem(ctx, CreateMenuItemInput{CategoryID: uuid.New(), Name: "Fries", BasePrice: 90})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "got %v", err)

	cat, err := svc.CreateCategory(ctx, CreateCategoryInput{Name: "Food"})
	require.NoError(t, err)
	_, err = svc.CreateMenuItem(ctx, CreateMenuItemInput{CategoryID: cat.ID, Name: "", BasePrice: 90})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = svc.CreateMenuItem(ctx, CreateMenuItemInput{CategoryID: cat.ID, Name: "Fries", BasePrice: -1})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	require.Zero(t, seeder.calls)

	inactive := false
	item, err := svc.CreateMenuItem(ctx, CreateMenuItemInput{CategoryID: cat.ID, Name: "Fries", BasePrice: 90, IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, item.IsActive)
	assert.Nil(t, item.Inventory)
	assert.Equal(t, 1, seeder.calls)

	items, err := svc.ListMenuItems(ctx, &cat.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	other := uuid.New()
	items, err = svc.ListMenuItems(ctx, &other)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestCreateMenuItemRollsBackWhenSeedingFails(t *testing.T) {
	conn := newTestDB(t)
	seeder := &fakeSeeder{err: errors.New("seed failed")}
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn), seeder, logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, CreateCategoryInput{Name: "Whisky"})
	require.NoError(t, err)
	_, err = svc.CreateMenuItem(ctx, CreateMenuItemInput{CategoryID: cat.ID, Name: "Blenders Pride", BasePrice: 75})
	require.Error(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.MenuItem{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateMenuItemInTrackedCategorySeedsStock(t *testing.T) {
	conn := newTestDB(t)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	inv, err := inventory.NewService(inventory.ServiceParams{
		Repo:   inventory.NewRepository(conn),
		Ledger: ledgerSvc,
		Tx:     db.NewFromConn(conn),
		Config: config.InventoryConfig{DefaultLowStockThreshold: 5},
	})
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn), inv, logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, CreateCategoryInput{Name: "Whisky"})
	require.NoError(t, err)
	_, err = inv.RegisterCategory(ctx, inventory.RegisterCategoryInput{CategoryID: cat.ID, UnitType: "ml"})
	require.NoError(t, err)

	item, err := svc.CreateMenuItem(ctx, CreateMenuItemInput{CategoryID: cat.ID, Name: "Black Dog", BasePrice: 120})
	require.NoError(t, err)
	require.NotNil(t, item.Inventory)
	assert.Equal(t, enums.UnitTypeML, item.Inventory.Unit)
	assert.True(t, item.Inventory.CurrentStock.IsZero())

	_, err = inv.ReceiveStock(ctx, inventory.StockEntryForm{MenuItemID: item.ID, Quantity: decimalPtr("750")})
	require.NoError(t, err)
}

func decimalPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}
