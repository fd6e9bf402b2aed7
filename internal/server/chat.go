package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/retail-assistant/server/internal/agent/reducer"
	"github.com/retail-assistant/server/internal/agent/router"
	errx "github.com/retail-assistant/server/internal/core/error"
	"github.com/retail-assistant/server/internal/observability"
	"github.com/retail-assistant/server/internal/retail"
	logx "github.com/retail-assistant/server/pkg/logger"
)

// DefaultToolLabel marks interactions where no tool was identified.
const DefaultToolLabel = "auto"

// FastPath answers deterministic intents without the agent.
type FastPath interface {
	Route(ctx context.Context, q router.Query) (router.Answer, bool)
}

// AgentRunner runs the tool-calling agent for one query.
type AgentRunner interface {
	Run(ctx context.Context, query string) ([]*schema.Message, []string, error)
}

// Reply is the outcome of one chat query.
type Reply struct {
	Text  string
	Route string
	Tools []string
}

// ChatService resolves a query through the fast paths, then the agent, then
// the reducer, and records the interaction.
type ChatService struct {
	router  FastPath
	agent   AgentRunner
	sink    observability.Sink
	metrics *observability.Metrics
	now     func() time.Time
}

func NewChatService(fp FastPath, agent AgentRunner, sink observability.Sink, metrics *observability.Metrics) *ChatService {
	if sink == nil {
		sink = observability.NopSink{}
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	return &ChatService{router: fp, agent: agent, sink: sink, metrics: metrics, now: time.Now}
}

// Answer returns errx.ErrEmptyQuery for blank input. A step-limit failure is
// answered with errx.StepLimitMessage; other agent failures are recorded with
// the generic failure text and returned.
func (c *ChatService) Answer(ctx context.Context, query, userID string) (Reply, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Reply{}, errx.ErrEmptyQuery
	}

	start := c.now()
	ctx = retail.ContextWithUser(ctx, userID)

	reply, err := c.resolve(ctx, q, userID)
	c.metrics.ObserveQuery(reply.Route, c.now().Sub(start))
	if err != nil {
		reply.Text = errx.SystemErrorMessage
		c.record(ctx, q, userID, reply, c.now().Sub(start))
		return Reply{}, err
	}

	c.record(ctx, q, userID, reply, c.now().Sub(start))
	return reply, nil
}

func (c *ChatService) resolve(ctx context.Context, q, userID string) (Reply, error) {
	if ans, ok := c.router.Route(ctx, router.Query{Text: q, UserID: userID}); ok {
		return Reply{Text: ans.Text, Route: observability.RouteFastPath, Tools: []string{ans.Tool}}, nil
	}

	history, used, err := c.agent.Run(ctx, q)
	if err != nil {
		if errors.Is(err, errx.ErrStepLimit) {
			c.metrics.StepLimitReached()
			return Reply{Text: errx.StepLimitMessage, Route: observability.RouteAgent}, nil
		}
		logx.Error().Err(err).Str("query", q).Msg("Agent run failed")
		return Reply{Route: observability.RouteError}, err
	}

	out := reducer.Reduce(history)
	logx.Debug().Str("source", string(out.Source)).Strs("tools", used).Msg("Agent answer reduced")
	return Reply{Text: out.Answer, Route: observability.RouteAgent, Tools: used}, nil
}

// record never fails the request.
func (c *ChatService) record(ctx context.Context, q, userID string, reply Reply, latency time.Duration) {
	tool := DefaultToolLabel
	if len(reply.Tools) > 0 {
		tool = strings.Join(reply.Tools, ",")
	}
	err := c.sink.Log(context.WithoutCancel(ctx), observability.Interaction{
		Query:     q,
		Response:  reply.Text,
		Tool:      tool,
		LatencyMS: latency.Milliseconds(),
		UserID:    userID,
	})
	if err != nil {
		c.metrics.SinkFailed()
		logx.Warn().Err(err).Msg("Failed to record interaction")
	}
}

// Recent returns the newest recorded interactions for the dashboard.
func (c *ChatService) Recent(ctx context.Context, limit int) ([]observability.Interaction, error) {
	return c.sink.Recent(ctx, limit)
}
