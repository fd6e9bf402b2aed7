// Package retail holds the deterministic operations exposed to the agent as
// tools. Every operation returns a result value; store failures become an
// error field on a negative result and are never returned to the caller.
package retail

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"

	"github.com/retail-assistant/server/internal/rag"
	"github.com/retail-assistant/server/internal/store"
)

const (
	DefaultUserID           = "2001"
	DefaultReturnWindowDays = 7
	DefaultCancelReason     = "Customer request"

	ProductNameLimit   = 5
	ListLimit          = 20
	ReturnableLimit    = 100
	ProductSearchLimit = 50
	PriceLookupLimit   = 5
	PolicyTopK         = 6
)

// Store is the data access the tool layer depends on.
type Store interface {
	OrderByID(ctx context.Context, orderID string) (*store.OrderRow, error)
	OrdersByProductName(ctx context.Context, name string, limit int) ([]store.OrderRow, error)
	OrdersByProductNameForUser(ctx context.Context, name, userID string, limit int) ([]store.OrderRow, error)
	OrdersByStatuses(ctx context.Context, statuses []string, limit int) ([]store.OrderRow, error)
	OrdersByUser(ctx context.Context, userID, status string, limit int) ([]store.OrderRow, error)
	AllOrders(ctx context.Context, limit int) ([]store.OrderRow, error)
	CancelOrder(ctx context.Context, orderID, reason string, now time.Time, validate func(status string) error) error
	SearchProducts(ctx context.Context, terms []string, filter store.PriceFilter, limit int) ([]store.Product, error)
	ProductsByCategory(ctx context.Context, category string, limit int) ([]store.Product, error)
	ProductsByName(ctx context.Context, name string, limit int) ([]store.Product, error)
}

// PolicySearcher retrieves policy chunks by semantic similarity.
type PolicySearcher interface {
	Search(ctx context.Context, text string, k int) ([]rag.Hit, error)
}

type Service struct {
	store        Store
	policy       PolicySearcher
	llm          model.BaseChatModel
	now          func() time.Time
	defaultUser  string
	returnWindow int
}

type Option func(*Service)

// WithClock replaces time.Now, used by tests pinning returnability boundaries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithPolicy(idx PolicySearcher, llm model.BaseChatModel) Option {
	return func(s *Service) {
		s.policy = idx
		s.llm = llm
	}
}

func WithDefaultUser(userID string) Option {
	return func(s *Service) {
		if userID != "" {
			s.defaultUser = userID
		}
	}
}

func WithReturnWindow(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.returnWindow = days
		}
	}
}

func NewService(st Store, opts ...Option) *Service {
	s := &Service{
		store:        st,
		now:          time.Now,
		defaultUser:  DefaultUserID,
		returnWindow: DefaultReturnWindowDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultUser is the acting user when a request names none.
func (s *Service) DefaultUser() string {
	return s.defaultUser
}

type userKey struct{}

// ContextWithUser records the acting user for tools that default to "my" orders.
func ContextWithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, strings.TrimSpace(userID))
}

// UserFromContext returns the user recorded by ContextWithUser, or "".
func UserFromContext(ctx context.Context) string {
	u, _ := ctx.Value(userKey{}).(string)
	return u
}

// actingUser prefers an explicit id, then the request's user, then the default.
func (s *Service) actingUser(ctx context.Context, userID string) string {
	if u := strings.TrimSpace(userID); u != "" {
		return u
	}
	if u := UserFromContext(ctx); u != "" {
		return u
	}
	return s.defaultUser
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
