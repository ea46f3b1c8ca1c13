package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:repo_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&widget{}))
	return conn
}

func seedWidgets(t *testing.T, db *gorm.DB, names ...string) []widget {
	t.Helper()
	rows := make([]widget, 0, len(names))
	for _, name := range names {
		rows = append(rows, widget{ID: uuid.New(), Name: name})
	}
	require.NoError(t, db.Create(&rows).Error)
	return rows
}

func TestBaseBindsContextAndTx(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	require.Same(t, ctx, base.DB(ctx).Statement.Context)

	require.Same(t, db, base.WithTx(nil).db)

	tx := db.Begin()
	defer tx.Rollback()
	require.Same(t, tx, base.WithTx(tx).db)
}

func TestFirstAndByID(t *testing.T) {
	db := newTestDB(t)
	rows := seedWidgets(t, db, "peg", "bottle")

	got, err := ByID[widget](db, rows[1].ID)
	require.NoError(t, err)
	require.Equal(t, "bottle", got.Name)

	got, err = First[widget](db, "name = ?", "peg")
	require.NoError(t, err)
	require.Equal(t, rows[0].ID, got.ID)

	_, err = ByID[widget](db, uuid.New())
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestDeleteIn(t *testing.T) {
	db := newTestDB(t)
	rows := seedWidgets(t, db, "a", "b", "c")

	n, err := DeleteIn[widget](db, "id", []uuid.UUID{})
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = DeleteIn[widget](db, "id", []uuid.UUID{rows[0].ID, rows[2].ID, uuid.New()})
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	var left []widget
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	require.Equal(t, "b", left[0].Name)
}
