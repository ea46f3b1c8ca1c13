package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNormalizeLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, NormalizeLimit(0))
	require.Equal(t, DefaultLimit, NormalizeLimit(-3))
	require.Equal(t, 10, NormalizeLimit(10))
	require.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	require.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 3, 1, 10, 30, 0, 123, time.UTC), ID: uuid.New()}
	out, err := ParseCursor(EncodeCursor(in))
	require.NoError(t, err)
	require.True(t, in.CreatedAt.Equal(out.CreatedAt))
	require.Equal(t, in.ID, out.ID)

	empty, err := ParseCursor("  ")
	require.NoError(t, err)
	require.Nil(t, empty)

	for _, bad := range []string{"not-base64!", "djI", EncodeCursor(in)[:10]} {
		_, err = ParseCursor(bad)
		require.ErrorIs(t, err, ErrInvalidCursor, bad)
	}
	require.NotContains(t, EncodeCursor(in), "=", "tokens are URL safe")
}

func TestNewestFirstScope(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:page_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	type entry struct {
		ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
		CreatedAt time.Time
	}
	require.NoError(t, conn.AutoMigrate(&entry{}))

	at := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for i, id := range ids {
		require.NoError(t, conn.Create(&entry{ID: id, CreatedAt: at.Add(time.Duration(i) * time.Minute)}).Error)
	}

	var rows []entry
	require.NoError(t, conn.Scopes(NewestFirst(nil)).Find(&rows).Error)
	require.Len(t, rows, 3)
	require.Equal(t, ids[2], rows[0].ID)

	cursor := &Cursor{CreatedAt: rows[0].CreatedAt, ID: rows[0].ID}
	rows = nil
	require.NoError(t, conn.Scopes(NewestFirst(cursor)).Find(&rows).Error)
	require.Len(t, rows, 2)
	require.Equal(t, ids[1], rows[0].ID)
}

func TestTrim(t *testing.T) {
	type row struct {
		id uuid.UUID
		at time.Time
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{}
	for i := 0; i < 4; i++ {
		rows = append(rows, row{id: uuid.New(), at: base.Add(-time.Duration(i) * time.Minute)})
	}
	cursorOf := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page := Trim(rows, 3, cursorOf)
	require.Len(t, page.Items, 3)
	require.NotEmpty(t, page.NextCursor)
	next, err := ParseCursor(page.NextCursor)
	require.NoError(t, err)
	require.Equal(t, rows[2].id, next.ID)

	page = Trim(rows[:2], 3, cursorOf)
	require.Len(t, page.Items, 2)
	require.Empty(t, page.NextCursor)
}
