package observability

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSink(t *testing.T, max int) (*RedisSink, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSink(client, "", max), mr
}

func TestRedisSinkLogAndRecent(t *testing.T) {
	sink, mr := newSink(t, 10)
	ctx := context.Background()

	require.NoError(t, sink.Log(ctx, Interaction{Query: "q1", Response: "first", Tool: "auto"}))
	require.NoError(t, sink.Log(ctx, Interaction{Query: "q2", Response: "second answer", Tool: "OrderTrackingTool"}))

	got, err := sink.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "q2", got[0].Query)
	assert.Equal(t, len("second answer"), got[0].ResponseLength)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].Timestamp.IsZero())
	assert.Equal(t, "q1", got[1].Query)

	items, err := mr.List(DefaultInteractionsKey)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRedisSinkIsCapped(t *testing.T) {
	sink, _ := newSink(t, 3)
	ctx := context.Background()

	for _, q := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, sink.Log(ctx, Interaction{Query: q, Response: q}))
	}
	got, err := sink.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "e", got[0].Query)
	assert.Equal(t, "c", got[2].Query)

	got, err = sink.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRedisSinkSkipsCorruptEntries(t *testing.T) {
	sink, mr := newSink(t, 10)
	ctx := context.Background()

	require.NoError(t, sink.Log(ctx, Interaction{Query: "ok", Response: "fine"}))
	_, err := mr.Lpush(DefaultInteractionsKey, "not json")
	require.NoError(t, err)

	got, err := sink.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Query)
}

func TestRedisSinkReportsFailure(t *testing.T) {
	sink, mr := newSink(t, 10)
	mr.Close()

	err := sink.Log(context.Background(), Interaction{Query: "q", Response: "r"})
	assert.Error(t, err)
}

func TestNopSink(t *testing.T) {
	var s Sink = NopSink{}
	assert.NoError(t, s.Log(context.Background(), Interaction{}))
	got, err := s.Recent(context.Background(), 5)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	m.ObserveQuery(RouteFastPath, 12*time.Millisecond)
	m.ObserveQuery(RouteAgent, time.Second)
	m.ObserveQuery(RouteAgent, time.Second)
	m.ObserveTool("OrderTrackingTool", nil)
	m.ObserveTool("OrderTrackingTool", errors.New("boom"))
	m.SinkFailed()
	m.StepLimitReached()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues(RouteFastPath)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues(RouteAgent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCallsTotal.WithLabelValues("OrderTrackingTool", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sinkFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stepLimitReached))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics/prometheus", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "retail_assistant_queries_total")
}
