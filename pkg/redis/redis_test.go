package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := Config{URL: "redis://" + mr.Addr() + "/0", ReadTimeout: time.Second}

	client, err := cfg.New(context.Background())
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, time.Second, client.Options().ReadTimeout)
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.Equal(t, "v", mr.Get("k"))
}

func TestNewRejectsBadURL(t *testing.T) {
	cfg := Config{URL: "not-a-url"}
	_, err := cfg.New(context.Background())
	assert.ErrorContains(t, err, "parse redis url")
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := Config{URL: "redis://" + addr, DialTimeout: 200 * time.Millisecond}
	_, err := cfg.New(context.Background())
	assert.ErrorContains(t, err, "ping redis")
}
