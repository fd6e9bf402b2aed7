package observability

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	errx "github.com/retail-assistant/server/internal/core/error"
)

const (
	DefaultInteractionsKey = "interactions"
	DefaultMaxInteractions = 1000
)

// Interaction is one answered chat request as shown on the dashboard.
type Interaction struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Query          string    `json:"query"`
	Response       string    `json:"response"`
	Tool           string    `json:"tool_used"`
	ResponseLength int       `json:"response_length"`
	LatencyMS      int64     `json:"latency_ms"`
	UserID         string    `json:"user_id,omitempty"`
}

// Sink records interactions. Failures are reported but never affect answers.
type Sink interface {
	Log(ctx context.Context, in Interaction) error
	Recent(ctx context.Context, limit int) ([]Interaction, error)
}

// RedisSink keeps the newest interactions in a capped redis list.
type RedisSink struct {
	client redis.Cmdable
	key    string
	max    int64
}

func NewRedisSink(client redis.Cmdable, key string, max int) *RedisSink {
	if key == "" {
		key = DefaultInteractionsKey
	}
	if max <= 0 {
		max = DefaultMaxInteractions
	}
	return &RedisSink{client: client, key: key, max: int64(max)}
}

// Log fills ID, Timestamp and ResponseLength when unset, then pushes the
// record and trims the list in one transaction.
func (s *RedisSink) Log(ctx context.Context, in Interaction) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}
	if in.ResponseLength == 0 {
		in.ResponseLength = len(in.Response)
	}

	payload, err := sonic.MarshalString(in)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.key, payload)
		pipe.LTrim(ctx, s.key, 0, s.max-1)
		return nil
	})
	return errx.WrapRedis(err)
}

// Recent returns up to limit interactions, newest first. Unreadable entries are skipped.
func (s *RedisSink) Recent(ctx context.Context, limit int) ([]Interaction, error) {
	if limit <= 0 || int64(limit) > s.max {
		limit = int(s.max)
	}
	raw, err := s.client.LRange(ctx, s.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}

	out := make([]Interaction, 0, len(raw))
	for _, r := range raw {
		var in Interaction
		if err := sonic.UnmarshalString(r, &in); err != nil {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

// NopSink discards interactions; used when redis is not configured.
type NopSink struct{}

func (NopSink) Log(context.Context, Interaction) error { return nil }

func (NopSink) Recent(context.Context, int) ([]Interaction, error) { return []Interaction{}, nil }
