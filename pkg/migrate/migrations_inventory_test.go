package migrate

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// migratedSQLite applies every migration to a fresh in-memory database with
// foreign keys enforced.
func migratedSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:schema_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := New(sqlDB, "sqlite", "migrations")
	require.NoError(t, err)
	_, err = m.Up(context.Background())
	require.NoError(t, err)
	return conn
}

func TestInventorySchemaConstraints(t *testing.T) {
	conn := migratedSQLite(t)
	exec := func(sql string, args ...any) error { return conn.Exec(sql, args...).Error }

	category, item := uuid.NewString(), uuid.NewString()
	require.NoError(t, exec(`INSERT INTO categories (id, name) VALUES (?, 'Whisky')`, category))
	require.NoError(t, exec(`INSERT INTO menu_items (id, category_id, name, base_price) VALUES (?, ?, 'Blenders Pride', 75)`, item, category))

	stock := uuid.NewString()
	require.NoError(t, exec(`INSERT INTO inventory_items (id, menu_item_id, unit, current_stock) VALUES (?, ?, 'ml', -30)`, stock, item),
		"corrections may leave stock negative")
	require.Error(t, exec(`INSERT INTO inventory_items (id, menu_item_id, unit) VALUES (?, ?, 'ml')`, uuid.NewString(), item),
		"one stock row per menu item")
	require.Error(t, exec(`UPDATE inventory_items SET default_bottle_size = 0 WHERE id = ?`, stock))
	require.NoError(t, exec(`UPDATE inventory_items SET default_bottle_size = 750 WHERE id = ?`, stock))

	entry := `INSERT INTO stock_entries (id, inventory_item_id, quantity, unit, source, stock_before, stock_after) VALUES (?, ?, 10, 'ml', ?, 0, 10)`
	require.NoError(t, exec(entry, uuid.NewString(), stock, "bottle"))
	require.Error(t, exec(entry, uuid.NewString(), stock, "sale"))

	require.NoError(t, exec(`DELETE FROM menu_items WHERE id = ?`, item))
	var left int64
	require.NoError(t, conn.Raw(`SELECT COUNT(*) FROM stock_entries`).Scan(&left).Error)
	require.Zero(t, left, "removing the menu item cascades to its stock history")
}

func TestPortionPriceSchemaConstraints(t *testing.T) {
	conn := migratedSQLite(t)
	exec := func(sql string, args ...any) error { return conn.Exec(sql, args...).Error }

	category, item := uuid.NewString(), uuid.NewString()
	require.NoError(t, exec(`INSERT INTO categories (id, name) VALUES (?, 'Whisky')`, category))
	require.NoError(t, exec(`INSERT INTO menu_items (id, category_id, name, base_price) VALUES (?, ?, 'Black Dog', 120)`, item, category))
	tracking := uuid.NewString()
	require.NoError(t, exec(`INSERT INTO inventory_categories (id, category_id, unit_type) VALUES (?, ?, 'ml')`, tracking, category))
	portion := uuid.NewString()
	require.NoError(t, exec(`INSERT INTO portion_options (id, inventory_category_id, name, size, price_multiplier, sort_order) VALUES (?, ?, '60ml (Large)', 60, 2, 1)`, portion, tracking))

	price := `INSERT INTO item_portion_prices (id, menu_item_id, portion_option_id, price) VALUES (?, ?, ?, ?)`
	require.NoError(t, exec(price, uuid.NewString(), item, portion, 230))
	require.Error(t, exec(price, uuid.NewString(), item, portion, 240), "one override per item and portion")
	require.Error(t, exec(`UPDATE item_portion_prices SET price = -1`))
}
