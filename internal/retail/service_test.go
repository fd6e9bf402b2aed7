package retail

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/retail-assistant/server/internal/core/error"
	"github.com/retail-assistant/server/internal/rag"
	"github.com/retail-assistant/server/internal/store"
	"github.com/retail-assistant/server/pkg/sqlite"
)

var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...Option) (*Service, *store.Store) {
	t.Helper()
	db, err := sqlite.OpenMemory(fmt.Sprintf("retail_%d", time.Now().UnixNano()))
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
		{ID: 4, Name: "Rain Jacket", Category: "Apparel", Price: 2500,
			ReturnWindowDays: sql.NullInt64{Int64: 3, Valid: true}},
	}
	orders := []store.Order{
		{OrderID: "1001", ProductID: 1, UserID: "2001", Status: "Delivered", Date: "2024-06-03"},
		{OrderID: "1002", ProductID: 1, UserID: "2001", Status: "Delivered", Date: "2024-06-02"},
		{OrderID: "1003", ProductID: 2, UserID: "2001", Status: "Processing", Date: "2024-06-08"},
		{OrderID: "1004", ProductID: 3, UserID: "2001", Status: "Delivered", Date: "2024-06-09"},
		{OrderID: "1005", ProductID: 4, UserID: "2001", Status: "Delivered", Date: "2024-05-01",
			DeliveredDate: sql.NullString{String: "2024-06-08", Valid: true}},
		{OrderID: "1006", ProductID: 2, UserID: "2002", Status: "Pending", Date: "2024-06-07"},
		{OrderID: "1007", ProductID: 2, UserID: "2002", Status: "Shipped", Date: "2024-06-06"},
		{OrderID: "1008", ProductID: 2, UserID: "2002", Status: "Canceled", Date: "2024-06-05"},
		{OrderID: "1009", ProductID: 2, UserID: "2002", Status: "Returned", Date: "2024-06-04"},
		{OrderID: "1010", ProductID: 2, UserID: "2002", Status: "On Hold", Date: "2024-06-01"},
	}
	for i := 0; i < 6; i++ {
		orders = append(orders, store.Order{
			OrderID:   fmt.Sprintf("20%02d", i),
			ProductID: 1,
			UserID:    "2003",
			Status:    "Delivered",
			Date:      fmt.Sprintf("2024-05-%02d", 10+i),
		})
	}
	require.NoError(t, st.ReplaceCatalog(ctx, products, orders))

	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewService(st, opts...), st
}

func TestOrderByIDNotFoundEchoesOnlyID(t *testing.T) {
	svc, _ := newTestService(t)

	res := svc.OrderByID(context.Background(), "9999")
	assert.Equal(t, OrderResult{Found: false, OrderID: "9999"}, res)
}

func TestOrderByIDReturnabilityBoundary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	atWindow := svc.OrderByID(ctx, "1001")
	require.True(t, atWindow.Found)
	require.NotNil(t, atWindow.DaysSinceDelivery)
	assert.Equal(t, 7, *atWindow.DaysSinceDelivery)
	assert.True(t, *atWindow.Returnable)

	pastWindow := svc.OrderByID(ctx, "1002")
	assert.Equal(t, 8, *pastWindow.DaysSinceDelivery)
	assert.False(t, *pastWindow.Returnable)
	assert.Equal(t, 7, *pastWindow.ReturnWindowDays)
}

func TestReturnabilityOverrides(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	gift := svc.OrderByID(ctx, "1004")
	assert.False(t, *gift.Returnable)

	jacket := svc.OrderByID(ctx, "1005")
	assert.Equal(t, 2, *jacket.DaysSinceDelivery)
	assert.Equal(t, 3, *jacket.ReturnWindowDays)
	assert.True(t, *jacket.Returnable)

	processing := svc.OrderByID(ctx, "1003")
	assert.False(t, *processing.Returnable)
	assert.Nil(t, processing.ReturnWindowDays)
}

func TestOrdersByProductNameLimit(t *testing.T) {
	svc, _ := newTestService(t)

	res := svc.OrdersByProductName(context.Background(), "HOODIE", 5)
	require.True(t, res.Found)
	require.Len(t, res.Orders, 5)
	assert.Equal(t, "1001", res.Orders[0].OrderID)
	assert.Equal(t, "1002", res.Orders[1].OrderID)

	all := svc.OrdersByProductName(context.Background(), "hoodie", 20)
	assert.Len(t, all.Orders, 8)

	none := svc.OrdersByProductName(context.Background(), "toaster", 5)
	assert.False(t, none.Found)
	assert.Empty(t, none.Orders)
}

func TestOrdersByStatusSynonyms(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pending := svc.OrdersByStatus(ctx, "PENDING", 20)
	processing := svc.OrdersByStatus(ctx, "processing", 20)
	assert.Len(t, pending.Orders, 2)
	assert.Equal(t, pending.Orders, processing.Orders)

	cancelled := svc.OrdersByStatus(ctx, "Cancelled", 20)
	canceled := svc.OrdersByStatus(ctx, "canceled", 20)
	require.Len(t, cancelled.Orders, 1)
	assert.Equal(t, cancelled.Orders, canceled.Orders)

	unknown := svc.OrdersByStatus(ctx, "lost", 20)
	assert.False(t, unknown.Found)
}

func TestCanCancelReasons(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ok := svc.CanCancel(ctx, "1003")
	assert.True(t, ok.CanCancel)

	reasons := map[string]bool{}
	for _, id := range []string{"1001", "1006", "1007", "1008", "1009", "1010", "nope"} {
		res := svc.CanCancel(ctx, id)
		assert.False(t, res.CanCancel, id)
		assert.NotEmpty(t, res.Reason, id)
		reasons[res.Reason] = true
	}
	assert.Len(t, reasons, 7)
}

func TestCancelOrderTwice(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	first := svc.CancelOrder(ctx, "1003", "")
	require.True(t, first.Success)
	assert.Equal(t, DefaultCancelReason, first.CancellationReason)
	assert.Equal(t, "Processing", first.PreviousStatus)

	second := svc.CancelOrder(ctx, "1003", "changed my mind")
	assert.False(t, second.Success)
	assert.Contains(t, second.Reason, "already cancelled")

	row, err := st.OrderByID(ctx, "1003")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", row.Status)

	missing := svc.CancelOrder(ctx, "nope", "")
	assert.False(t, missing.Success)
	assert.Equal(t, orderNotFoundReason, missing.Reason)
}

func TestReturnableAndCancellableOrders(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ret := svc.ReturnableOrdersByUser(ctx, "", 0)
	assert.Equal(t, DefaultUserID, ret.UserID)
	ids := []string{}
	for _, o := range ret.Orders {
		ids = append(ids, o.OrderID)
	}
	assert.ElementsMatch(t, []string{"1001", "1005"}, ids)

	canc := svc.CancellableOrders(ctx, "2001", 0)
	require.Len(t, canc.Orders, 1)
	assert.Equal(t, "1003", canc.Orders[0].OrderID)
	assert.Equal(t, 2, *canc.Orders[0].DaysSinceOrder)
}

func TestMyOrdersUsesDefaultUser(t *testing.T) {
	svc, _ := newTestService(t, WithDefaultUser("2002"))

	res := svc.MyOrders(context.Background(), 0)
	assert.Equal(t, "2002", res.UserID)
	assert.Len(t, res.Orders, 5)

	res = svc.MyOrders(ContextWithUser(context.Background(), "2003"), 0)
	assert.Equal(t, "2003", res.UserID)
	assert.Len(t, res.Orders, 6)
}

func TestParsePriceFilter(t *testing.T) {
	cases := []struct {
		in   string
		want store.PriceFilter
	}{
		{"hoodies under 2k", store.PriceFilter{Op: "<", High: 2000}},
		{"shoes above 3,000", store.PriceFilter{Op: ">", Low: 3000}},
		{"between 50k and 30k", store.PriceFilter{Op: "between", Low: 30000, High: 50000}},
		{"from ₹100 to 200", store.PriceFilter{Op: "between", Low: 100, High: 200}},
		{"red hoodie", store.PriceFilter{}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParsePriceFilter(tc.in), tc.in)
	}
}

func TestExtractTerms(t *testing.T) {
	assert.Equal(t, []string{"hoodie", "jacket"}, ExtractTerms("Show me hoodies and jackets under 5000!"))
	assert.Equal(t, []string{"gas"}, ExtractTerms("gas"))
}

func TestSearchProducts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res := svc.SearchProducts(ctx, "apparel under 2k")
	require.True(t, res.Found)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Classic Hoodie", res.Products[0].Name)

	price := svc.PriceOfProduct(ctx, "sneakers")
	require.Len(t, price.Products, 1)
	assert.Equal(t, 4000.0, price.Products[0].Price)

	cat := svc.ProductsInCategory(ctx, "apparel")
	assert.Len(t, cat.Products, 2)
}

type failingStore struct{ Store }

var errStoreDown = errors.New("database is locked")

func (failingStore) OrderByID(context.Context, string) (*store.OrderRow, error) {
	return nil, errStoreDown
}

func (failingStore) AllOrders(context.Context, int) ([]store.OrderRow, error) {
	return nil, errStoreDown
}

func (failingStore) SearchProducts(context.Context, []string, store.PriceFilter, int) ([]store.Product, error) {
	return nil, errStoreDown
}

func (failingStore) CancelOrder(context.Context, string, string, time.Time, func(string) error) error {
	return errStoreDown
}

func TestStoreErrorsBecomeResults(t *testing.T) {
	svc := NewService(failingStore{})
	ctx := context.Background()

	order := svc.OrderByID(ctx, "1001")
	assert.False(t, order.Found)
	assert.Equal(t, errx.StoreErrorMessage, order.Error)

	list := svc.AllOrders(ctx, 0)
	assert.False(t, list.Found)
	assert.NotNil(t, list.Orders)
	assert.Equal(t, errx.StoreErrorMessage, list.Error)

	check := svc.CanCancel(ctx, "1001")
	assert.False(t, check.CanCancel)
	assert.Equal(t, errx.StoreErrorMessage, check.Error)

	cancel := svc.CancelOrder(ctx, "1001", "")
	assert.False(t, cancel.Success)
	assert.Equal(t, errx.StoreErrorMessage, cancel.Error)
	assert.NotContains(t, cancel.Error, errStoreDown.Error())

	products := svc.SearchProducts(ctx, "lamp")
	assert.Equal(t, errx.StoreErrorMessage, products.Error)
}

type fakeSearcher struct {
	hits []rag.Hit
	err  error
}

func (f fakeSearcher) Search(context.Context, string, int) ([]rag.Hit, error) { return f.hits, f.err }

type fakeChatModel struct {
	reply string
	seen  []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.seen = in
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func TestReturnPolicy(t *testing.T) {
	llm := &fakeChatModel{reply: "  You can return items within 7 days.  "}
	idx := fakeSearcher{hits: []rag.Hit{{Chunk: 2, Text: "Items may be returned within 7 days of delivery."}}}
	svc := NewService(failingStore{}, WithPolicy(idx, llm))

	res := svc.ReturnPolicy(context.Background(), "How long do I have to return?")
	assert.True(t, res.Found)
	assert.Equal(t, "You can return items within 7 days.", res.Answer)
	assert.Equal(t, 1, res.Chunks)
	require.Len(t, llm.seen, 1)
	assert.Contains(t, llm.seen[0].Content, "[chunk 2] Items may be returned")

	down := NewService(failingStore{}, WithPolicy(fakeSearcher{err: errors.New("qdrant unavailable")}, llm))
	res = down.ReturnPolicy(context.Background(), "refunds?")
	assert.False(t, res.Found)
	assert.Equal(t, errx.IndexErrorMessage, res.Error)

	unconfigured := NewService(failingStore{})
	assert.False(t, unconfigured.ReturnPolicy(context.Background(), "x").Found)
}
