package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type pantryRow struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&pantryRow{}))
	return conn
}

func TestBaseBindsContextAndTx(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	assert.Equal(t, ctx, base.DB(ctx).Statement.Context)
	assert.Same(t, db, base.DB(nil))

	tx := db.Begin()
	t.Cleanup(func() { tx.Rollback() })
	assert.Same(t, tx, base.WithTx(tx).db)
	assert.Same(t, db, base.WithTx(nil).db)
}

func TestRequireAffected(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&pantryRow{ID: 1, Name: "flour"}).Error)

	err := RequireAffected(db.Model(&pantryRow{}).Where("id = ?", 1).Update("name", "rye flour"))
	require.NoError(t, err)

	err = RequireAffected(db.Model(&pantryRow{}).Where("id = ?", 99).Update("name", "salt"))
	assert.True(t, IsNotFound(err))

	var row pantryRow
	err = db.First(&row, 42).Error
	assert.True(t, IsNotFound(fmt.Errorf("load: %w", err)))
	assert.False(t, IsNotFound(errors.New("connection reset")))
}
