// Package router answers deterministic intents (explicit order ids, status
// listings, product-name lookups, returnable orders) without the agent.
package router

import (
	"context"
	"regexp"
	"strings"

	"github.com/retail-assistant/server/internal/agent/graph/tools"
	"github.com/retail-assistant/server/internal/agent/render"
	"github.com/retail-assistant/server/internal/retail"
	logx "github.com/retail-assistant/server/pkg/logger"
)

// Service is the subset of the tool layer the fast paths call.
type Service interface {
	OrderByID(ctx context.Context, orderID string) retail.OrderResult
	OrdersByStatus(ctx context.Context, status string, limit int) retail.OrderList
	OrdersByProductName(ctx context.Context, name string, limit int) retail.OrderList
	ReturnableOrdersByUser(ctx context.Context, userID string, limit int) retail.OrderList
}

type Query struct {
	Text   string
	UserID string // from the X-User-ID header; may be empty
}

// Answer is a fast-path reply. Tool labels the operation that produced it.
type Answer struct {
	Text string
	Tool string
}

var (
	orderIDPattern    = regexp.MustCompile(`(?i)\border(?:\s+(?:id|number|no\.?))?\s*[#:]?\s*([a-z]{0,3}-?\d{2,}[a-z0-9-]*)\b`)
	ordPattern        = regexp.MustCompile(`(?i)\b(ord-?\d+)\b`)
	cancelPattern     = regexp.MustCompile(`(?i)\bcancel(?:lation)?\b`)
	statusPattern     = regexp.MustCompile(`(?i)\b(pending|processing|shipped|delivered|cancell?ed|returned)\b`)
	ordersWord        = regexp.MustCompile(`(?i)\borders?\b`)
	returnWord        = regexp.MustCompile(`(?i)\breturn(?:s|able|ed|ing)?\b`)
	possessiveTrigger = regexp.MustCompile(`(?i)\b(?:my|for)\s+`)
	possessivePhrase  = regexp.MustCompile(`(?i)^([a-z][a-z0-9 \-]*?)\s*(?:\b(?:order|orders|purchase)\b|[?.!,;]|$)`)
	userPattern       = regexp.MustCompile(`(?i)\buser(?:\s*id)?\s*[#:]?\s*(\d+)\b`)
)

var returnablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:what|which)\b.*\bcan\s+i\s+return\b`),
	regexp.MustCompile(`(?i)\breturnable\s+orders?\b`),
	regexp.MustCompile(`(?i)\borders?\b.*\b(?:can\s+i\s+return|eligible\s+for\s+(?:a\s+)?return)\b`),
}

var quotePatterns = []*regexp.Regexp{
	regexp.MustCompile(`"([^"]{2,60})"`),
	regexp.MustCompile(`“([^”]{2,60})”`),
	regexp.MustCompile(`‘([^’]{2,60})’`),
	regexp.MustCompile(`(?:^|\s)'([^']{2,60})'(?:\s|$|[?.!,;])`),
}

// genericWords never name a product in "my ..." / "for ..." phrases.
var genericWords = map[string]struct{}{
	"order": {}, "orders": {}, "me": {}, "you": {}, "it": {}, "this": {}, "that": {},
	"return": {}, "returns": {}, "refund": {}, "refunds": {}, "delivery": {}, "purchase": {},
	"purchases": {}, "account": {}, "help": {}, "user": {}, "money": {}, "stuff": {},
}

var articles = map[string]struct{}{"the": {}, "a": {}, "an": {}, "recent": {}, "last": {}}

const maxHeuristicWords = 3

type Router struct {
	svc         Service
	defaultUser string
}

func New(svc Service, defaultUser string) *Router {
	if defaultUser == "" {
		defaultUser = retail.DefaultUserID
	}
	return &Router{svc: svc, defaultUser: defaultUser}
}

// Route tries each fast path in priority order. The bool is false when the
// query should go to the agent, including when a lookup failed.
func (r *Router) Route(ctx context.Context, q Query) (Answer, bool) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return Answer{}, false
	}

	steps := []func(context.Context, string, Query) (Answer, bool){
		r.byOrderID,
		r.byStatus,
		r.byQuotedProduct,
		r.byPossessiveProduct,
		r.returnable,
	}
	for _, step := range steps {
		if ans, ok := step(ctx, text, q); ok {
			logx.Debug().Str("tool", ans.Tool).Msg("Fast path answered")
			return ans, true
		}
	}
	return Answer{}, false
}

func (r *Router) byOrderID(ctx context.Context, text string, _ Query) (Answer, bool) {
	if cancelPattern.MatchString(text) {
		return Answer{}, false
	}
	id := ""
	if m := ordPattern.FindStringSubmatch(text); m != nil {
		id = m[1]
	} else if m := orderIDPattern.FindStringSubmatch(text); m != nil {
		id = m[1]
	}
	if id == "" {
		return Answer{}, false
	}

	res := r.svc.OrderByID(ctx, id)
	if !res.Found && res.Error == "" {
		if alt := numericID(id); alt != "" {
			res = r.svc.OrderByID(ctx, alt)
		}
	}
	if res.Error != "" {
		logx.Warn().Str("order_id", id).Str("error", res.Error).Msg("Order fast path failed; deferring to agent")
		return Answer{}, false
	}
	return Answer{Text: render.Order(res, id), Tool: tools.ToolOrderTracking}, true
}

func (r *Router) byStatus(ctx context.Context, text string, _ Query) (Answer, bool) {
	if cancelPattern.MatchString(text) || !ordersWord.MatchString(text) {
		return Answer{}, false
	}
	m := statusPattern.FindStringSubmatch(text)
	if m == nil {
		return Answer{}, false
	}
	status := strings.ToLower(m[1])

	list := r.svc.OrdersByStatus(ctx, status, retail.ListLimit)
	if list.Error != "" {
		logx.Warn().Str("status", status).Str("error", list.Error).Msg("Status fast path failed; deferring to agent")
		return Answer{}, false
	}
	return Answer{Text: render.StatusList(status, list), Tool: tools.ToolOrdersByStatus}, true
}

// byQuotedProduct treats a quoted name as authoritative: a miss is answered.
func (r *Router) byQuotedProduct(ctx context.Context, text string, _ Query) (Answer, bool) {
	name := quotedName(text)
	if name == "" {
		return Answer{}, false
	}

	list := r.svc.OrdersByProductName(ctx, name, retail.ProductNameLimit)
	if list.Error != "" {
		logx.Warn().Str("product", name).Str("error", list.Error).Msg("Product fast path failed; deferring to agent")
		return Answer{}, false
	}
	return Answer{
		Text: render.ProductOrders(name, list, returnWord.MatchString(text)),
		Tool: tools.ToolOrderTrackingByProduct,
	}, true
}

// byPossessiveProduct only answers when orders are found.
func (r *Router) byPossessiveProduct(ctx context.Context, text string, _ Query) (Answer, bool) {
	for _, name := range possessiveCandidates(text) {
		list := r.svc.OrdersByProductName(ctx, name, retail.ProductNameLimit)
		if list.Error != "" {
			logx.Warn().Str("product", name).Str("error", list.Error).Msg("Product fast path failed; deferring to agent")
			return Answer{}, false
		}
		if list.Found {
			return Answer{
				Text: render.ProductOrders(name, list, returnWord.MatchString(text)),
				Tool: tools.ToolOrderTrackingByProduct,
			}, true
		}
	}
	return Answer{}, false
}

func (r *Router) returnable(ctx context.Context, text string, q Query) (Answer, bool) {
	matched := false
	for _, p := range returnablePatterns {
		if p.MatchString(text) {
			matched = true
			break
		}
	}
	if !matched {
		return Answer{}, false
	}

	user := r.actingUser(text, q)
	list := r.svc.ReturnableOrdersByUser(ctx, user, retail.ReturnableLimit)
	if list.Error != "" {
		logx.Warn().Str("user_id", user).Str("error", list.Error).Msg("Returnable fast path failed; deferring to agent")
		return Answer{}, false
	}
	return Answer{Text: render.Returnable(user, list), Tool: tools.ToolReturnableOrders}, true
}

// actingUser prefers an explicit "user 2001" mention, then the header, then the default.
func (r *Router) actingUser(text string, q Query) string {
	if m := userPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if u := strings.TrimSpace(q.UserID); u != "" {
		return u
	}
	return r.defaultUser
}

func quotedName(text string) string {
	for _, p := range quotePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name
			}
		}
	}
	return ""
}

// possessiveCandidates returns the phrase after "my"/"for", longest first, up
// to three words, without leading articles or generic nouns.
func possessiveCandidates(text string) []string {
	var out []string
	for _, loc := range possessiveTrigger.FindAllStringIndex(text, -1) {
		m := possessivePhrase.FindStringSubmatch(text[loc[1]:])
		if m == nil {
			continue
		}
		words := strings.Fields(strings.ToLower(m[1]))
		for len(words) > 0 {
			if _, ok := articles[words[0]]; !ok {
				break
			}
			words = words[1:]
		}
		if len(words) > maxHeuristicWords {
			words = words[:maxHeuristicWords]
		}
		for n := len(words); n > 0; n-- {
			phrase := strings.Join(words[:n], " ")
			if _, generic := genericWords[words[0]]; generic || len(phrase) < 3 {
				continue
			}
			out = append(out, phrase)
		}
	}
	return out
}

// numericID maps "ORD-1001" to "1001"; other ids yield "".
func numericID(id string) string {
	lower := strings.ToLower(id)
	if !strings.HasPrefix(lower, "ord") {
		return ""
	}
	return strings.TrimPrefix(strings.TrimPrefix(lower, "ord"), "-")
}
