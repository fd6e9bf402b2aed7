package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	errx "github.com/retail-assistant/server/internal/core/error"
	"github.com/retail-assistant/server/pkg/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlite.OpenMemory(fmt.Sprintf("store_%s_%d", t.Name(), time.Now().UnixNano()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))

	s := New(db)
	products := []Product{
		{ID: 1, Name: "Wireless Mouse", Category: "Electronics", Price: 25},
		{ID: 2, Name: "Running Shoes", Category: "Footwear", Price: 80},
		{ID: 3, Name: "Gift Card", Category: "Gifts", Price: 50,
			IsReturnable: sql.NullBool{Bool: false, Valid: true}},
		{ID: 4, Name: "Wireless Mouse Pad", Category: "Electronics", Price: 10},
	}
	orders := []Order{
		{OrderID: "1001", ProductID: 1, UserID: "2001", Status: "Delivered", Date: "2024-05-01"},
		{OrderID: "1002", ProductID: 2, UserID: "2001", Status: "Processing", Date: "2024-05-03"},
		{OrderID: "1003", ProductID: 3, UserID: "2002", Status: "Shipped", Date: "2024-05-02"},
		{OrderID: "1004", ProductID: 4, UserID: "2002", Status: "Pending", Date: "2024-04-20"},
	}
	require.NoError(t, s.ReplaceCatalog(ctx, products, orders))
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := sqlite.OpenMemory("migrate_idempotent")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	_, err = db.ExecContext(ctx, `CREATE TABLE products (id INTEGER PRIMARY KEY, name TEXT NOT NULL, category TEXT, price REAL)`)
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))

	cols, err := tableColumns(ctx, db, "products")
	require.NoError(t, err)
	assert.True(t, cols["is_returnable"])
	assert.True(t, cols["return_window_days"])

	cols, err = tableColumns(ctx, db, "orders")
	require.NoError(t, err)
	assert.True(t, cols["delivered_date"])
	assert.True(t, cols["cancellation_reason"])
}

func TestOrderByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	row, err := s.OrderByID(ctx, " 1001 ")
	require.NoError(t, err)
	assert.Equal(t, "Wireless Mouse", row.ProductName)
	assert.Equal(t, "Delivered", row.Status)
	assert.False(t, row.IsReturnable.Valid)

	_, err = s.OrderByID(ctx, "9999")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, 404, errx.StatusOf(err))
}

func TestOrdersByProductNameNewestFirst(t *testing.T) {
	s := newTestStore(t)

	rows, err := s.OrdersByProductName(context.Background(), "wireless", 20)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1001", rows[0].OrderID)
	assert.Equal(t, "1004", rows[1].OrderID)

	rows, err = s.OrdersByProductNameForUser(context.Background(), "wireless", "2002", 20)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1004", rows[0].OrderID)
}

func TestOrdersByStatuses(t *testing.T) {
	s := newTestStore(t)

	rows, err := s.OrdersByStatuses(context.Background(), []string{"pending", "PROCESSING"}, 20)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1002", rows[0].OrderID)

	rows, err = s.OrdersByStatuses(context.Background(), nil, 20)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestOrdersByUser(t *testing.T) {
	s := newTestStore(t)

	rows, err := s.OrdersByUser(context.Background(), "2001", "", 20)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = s.OrdersByUser(context.Background(), "2001", "processing", 20)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1002", rows[0].OrderID)
}

func TestCancelOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC)

	allowProcessing := func(status string) error {
		if status != "Processing" {
			return errors.New("not cancellable")
		}
		return nil
	}

	require.NoError(t, s.CancelOrder(ctx, "1002", "Customer request", now, allowProcessing))

	row, err := s.OrderByID(ctx, "1002")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", row.Status)

	err = s.CancelOrder(ctx, "1002", "again", now, allowProcessing)
	assert.EqualError(t, err, "not cancellable")

	err = s.CancelOrder(ctx, "nope", "x", now, allowProcessing)
	assert.True(t, IsNotFound(err))
}

func TestSearchProducts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rows, err := s.SearchProducts(ctx, []string{"wireless"}, PriceFilter{}, 50)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Wireless Mouse Pad", rows[0].Name)

	rows, err = s.SearchProducts(ctx, []string{"electronics"}, PriceFilter{Op: "<", High: 20}, 50)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(4), rows[0].ID)

	rows, err = s.SearchProducts(ctx, nil, PriceFilter{Op: "between", Low: 40, High: 90}, 50)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = s.SearchProducts(ctx, nil, PriceFilter{Op: ">", Low: 60}, 50)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Running Shoes", rows[0].Name)
}

func TestProductsByNamePrefersShortest(t *testing.T) {
	s := newTestStore(t)

	rows, err := s.ProductsByName(context.Background(), "mouse", 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Wireless Mouse", rows[0].Name)

	rows, err = s.ProductsByCategory(context.Background(), "gifts", 20)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsReturnable.Valid)
	assert.False(t, rows[0].IsReturnable.Bool)
}

func TestCancelOrderRollsBackOnUpdateFailure(t *testing.T) {
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqldb.Close()

	db := bun.NewDB(sqldb, sqlitedialect.New())
	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders`)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Processing"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders`)).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = s.CancelOrder(context.Background(), "1002", "Customer request", time.Now(), func(string) error { return nil })
	require.Error(t, err)
	assert.Equal(t, 503, errx.StatusOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrderConflict(t *testing.T) {
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqldb.Close()

	s := New(bun.NewDB(sqldb, sqlitedialect.New()))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders`)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Processing"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = s.CancelOrder(context.Background(), "1002", "Customer request", time.Now(), func(string) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.Is(err, errx.ErrConflict))
}
