// Package retailtest seeds an in-memory catalog for packages built on retail.
package retailtest

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/retail-assistant/server/internal/retail"
	"github.com/retail-assistant/server/internal/store"
	"github.com/retail-assistant/server/pkg/sqlite"
)

// Now is the fixed clock of every fixture service.
var Now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

var seq atomic.Int64

// Products: 1 Classic Hoodie, 2 Running Sneakers, 3 Gift Card (not returnable).
// Orders for user 2001: 1001 hoodie delivered 7 days ago, 1002 sneakers
// processing, 1003 gift card delivered. User 2002: 1004 sneakers shipped.
func NewStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sqlite.OpenMemory(fmt.Sprintf("retailtest_%d_%d", time.Now().UnixNano(), seq.Add(1)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx, db))
	st := store.New(db)

	products := []store.Product{
		{ID: 1, Name: "Classic Hoodie", Category: "Apparel", Price: 1500},
		{ID: 2, Name: "Running Sneakers", Category: "Footwear", Price: 4000},
		{ID: 3, Name: "Gift Card", Category: "Gifts", Price: 1000,
			IsReturnable: sql.NullBool{Bool: false, Valid: true}},
	}
	orders := []store.Order{
		{OrderID: "1001", ProductID: 1, UserID: "2001", Status: "delivered", Date: "2024-06-03"},
		{OrderID: "1002", ProductID: 2, UserID: "2001", Status: "processing", Date: "2024-06-08"},
		{OrderID: "1003", ProductID: 3, UserID: "2001", Status: "delivered", Date: "2024-06-09"},
		{OrderID: "1004", ProductID: 2, UserID: "2002", Status: "shipped", Date: "2024-06-06"},
	}
	require.NoError(t, st.ReplaceCatalog(ctx, products, orders))
	return st
}

// NewService wraps NewStore with the fixed clock.
func NewService(t *testing.T, opts ...retail.Option) *retail.Service {
	t.Helper()
	opts = append([]retail.Option{retail.WithClock(func() time.Time { return Now })}, opts...)
	return retail.NewService(NewStore(t), opts...)
}
