package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/mealtime-backend/pkg/config"
	"github.com/angelmondragon/mealtime-backend/pkg/logger"
)

type testModel struct {
	ID        int
	Name      string
	CreatedAt time.Time
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:db_client_test?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                utcNow,
	})
	require.NoError(t, err)
	require.NoError(t, conn.Exec("DROP TABLE IF EXISTS test_models").Error)
	require.NoError(t, conn.AutoMigrate(&testModel{}))
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := NewFromConn(db)

	ctx := context.Background()
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}))

	var count int64
	require.NoError(t, db.Model(&testModel{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	require.NoError(t, db.Model(&testModel{}).Count(&count).Error)
	require.Equal(t, int64(1), count, "rollback should leave a single record")
}

func TestPing(t *testing.T) {
	client := NewFromConn(newTestDB(t))
	require.NoError(t, client.Ping(context.Background()))
}

func TestNowFuncIsUTC(t *testing.T) {
	db := newTestDB(t)
	rec := testModel{Name: "stamped"}
	require.NoError(t, db.Create(&rec).Error)
	require.Equal(t, time.UTC, rec.CreatedAt.Location())
}

func TestNewOpensSQLiteDriver(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{
		DSN:    "file:db_client_new?mode=memory&cache=shared",
		Driver: "SQLite",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()))
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{DSN: "x", Driver: "oracle"}, nil)
	require.ErrorContains(t, err, "unsupported database driver")

	_, err = New(context.Background(), config.DBConfig{}, nil)
	require.ErrorContains(t, err, "DSN is required")
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	client := NewFromConn(db)

	require.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(&testModel{Name: "half-written"}).Error)
			panic("interrupted")
		})
	})

	var count int64
	require.NoError(t, db.Model(&testModel{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestQueryLoggerReportsFailuresAndSlowQueries(t *testing.T) {
	logs := &bytes.Buffer{}
	ql := newQueryLogger(logger.New(logger.Options{Output: logs}), 10*time.Millisecond)
	ctx := context.Background()
	sql := func() (string, int64) { return "SELECT 1", 1 }

	ql.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	require.Empty(t, logs.String(), "missing rows are not failures")

	ql.Trace(ctx, time.Now(), sql, errors.New("syntax error"))
	require.Contains(t, logs.String(), `"message":"query failed"`)
	require.Contains(t, logs.String(), `"sql":"SELECT 1"`)

	logs.Reset()
	ql.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	require.Contains(t, logs.String(), `"message":"slow query"`)

	logs.Reset()
	ql.Trace(ctx, time.Now(), sql, nil)
	require.Empty(t, logs.String())

	require.Equal(t, gormlogger.Discard, newQueryLogger(nil, time.Second))
}
