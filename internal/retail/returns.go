package retail

import (
	"math"
	"strings"
	"time"

	"github.com/retail-assistant/server/internal/store"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate accepts ISO dates and timestamps. Values without a zone are UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// DaysBetween counts whole days from from to to, flooring partial days.
func DaysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

// Returnability is derived per request and never stored.
type Returnability struct {
	Eligible          bool
	DaysSinceDelivery *int
	WindowDays        *int
}

// returnability requires a delivered order of a returnable product, delivered
// no more than the window ago. The boundary day is still eligible.
func (s *Service) returnability(r store.OrderRow) Returnability {
	if !strings.EqualFold(strings.TrimSpace(r.Status), "delivered") {
		return Returnability{}
	}

	window := s.returnWindow
	if r.ReturnWindowDays.Valid {
		window = int(r.ReturnWindowDays.Int64)
	}
	out := Returnability{WindowDays: &window}

	delivered := r.Date
	if r.DeliveredDate.Valid && strings.TrimSpace(r.DeliveredDate.String) != "" {
		delivered = r.DeliveredDate.String
	}
	dt, ok := ParseDate(delivered)
	if !ok {
		return out
	}

	days := DaysBetween(dt, s.now().UTC())
	out.DaysSinceDelivery = &days
	returnable := !r.IsReturnable.Valid || r.IsReturnable.Bool
	out.Eligible = returnable && days <= window
	return out
}

func (s *Service) summarize(r store.OrderRow) OrderSummary {
	ret := s.returnability(r)
	eligible := ret.Eligible
	return OrderSummary{
		OrderID:           r.OrderID,
		UserID:            r.UserID,
		Status:            r.Status,
		Date:              r.Date,
		ProductName:       r.ProductName,
		Returnable:        &eligible,
		DaysSinceDelivery: ret.DaysSinceDelivery,
		ReturnWindowDays:  ret.WindowDays,
	}
}

func (s *Service) summarizeAll(rows []store.OrderRow) []OrderSummary {
	out := make([]OrderSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.summarize(r))
	}
	return out
}
