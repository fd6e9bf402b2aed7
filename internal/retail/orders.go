package retail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	errx "github.com/retail-assistant/server/internal/core/error"
	"github.com/retail-assistant/server/internal/store"
	logx "github.com/retail-assistant/server/pkg/logger"
)

var statusSynonyms = map[string][]string{
	"pending":    {"pending", "processing"},
	"processing": {"pending", "processing"},
	"cancelled":  {"cancelled", "canceled"},
	"canceled":   {"cancelled", "canceled"},
	"delivered":  {"delivered"},
	"shipped":    {"shipped"},
	"returned":   {"returned"},
}

// StatusFilter expands a status into the stored values it matches. Unknown
// statuses match literally.
func StatusFilter(status string) []string {
	key := strings.ToLower(strings.TrimSpace(status))
	if set, ok := statusSynonyms[key]; ok {
		return set
	}
	return []string{key}
}

func (s *Service) OrderByID(ctx context.Context, orderID string) OrderResult {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return OrderResult{Found: false, OrderID: orderID}
	}

	row, err := s.store.OrderByID(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return OrderResult{Found: false, OrderID: orderID}
		}
		logx.Warn().Err(err).Str("order_id", id).Msg("Order lookup failed")
		return OrderResult{Found: false, OrderID: orderID, Error: errx.StoreErrorMessage}
	}

	ret := s.returnability(*row)
	eligible := ret.Eligible
	return OrderResult{
		Found:             true,
		OrderID:           row.OrderID,
		ProductName:       row.ProductName,
		Status:            row.Status,
		Date:              row.Date,
		UserID:            row.UserID,
		Returnable:        &eligible,
		DaysSinceDelivery: ret.DaysSinceDelivery,
		ReturnWindowDays:  ret.WindowDays,
	}
}

func (s *Service) OrdersByProductName(ctx context.Context, name string, limit int) OrderList {
	rows, err := s.store.OrdersByProductName(ctx, name, limitOr(limit, ProductNameLimit))
	return s.orderList(OrderList{Query: name}, rows, err)
}

// OrdersByProductNameForUser narrows a product lookup to one user's orders.
func (s *Service) OrdersByProductNameForUser(ctx context.Context, name, userID string, limit int) OrderList {
	user := s.actingUser(ctx, userID)
	rows, err := s.store.OrdersByProductNameForUser(ctx, name, user, limitOr(limit, ProductNameLimit))
	return s.orderList(OrderList{Query: name, UserID: user}, rows, err)
}

func (s *Service) OrdersByStatus(ctx context.Context, status string, limit int) OrderList {
	rows, err := s.store.OrdersByStatuses(ctx, StatusFilter(status), limitOr(limit, ListLimit))
	return s.orderList(OrderList{StatusFilter: status}, rows, err)
}

func (s *Service) OrdersByUser(ctx context.Context, userID string, limit int) OrderList {
	user := strings.TrimSpace(userID)
	rows, err := s.store.OrdersByUser(ctx, user, "", limitOr(limit, ListLimit))
	return s.orderList(OrderList{UserID: user}, rows, err)
}

func (s *Service) AllOrders(ctx context.Context, limit int) OrderList {
	rows, err := s.store.AllOrders(ctx, limitOr(limit, ListLimit))
	return s.orderList(OrderList{}, rows, err)
}

// MyOrders lists orders of the acting user.
func (s *Service) MyOrders(ctx context.Context, limit int) OrderList {
	return s.OrdersByUser(ctx, s.actingUser(ctx, ""), limit)
}

// ReturnableOrdersByUser lists delivered orders still inside their window.
func (s *Service) ReturnableOrdersByUser(ctx context.Context, userID string, limit int) OrderList {
	user := s.actingUser(ctx, userID)
	rows, err := s.store.OrdersByUser(ctx, user, "", limitOr(limit, ReturnableLimit))
	list := s.orderList(OrderList{UserID: user}, rows, err)
	if list.Error != "" {
		return list
	}

	eligible := make([]OrderSummary, 0, len(list.Orders))
	for _, o := range list.Orders {
		if o.Returnable != nil && *o.Returnable {
			eligible = append(eligible, o)
		}
	}
	list.Orders = eligible
	list.Found = len(eligible) > 0
	return list
}

// CancellableOrders lists processing orders with their age in days.
func (s *Service) CancellableOrders(ctx context.Context, userID string, limit int) OrderList {
	user := s.actingUser(ctx, userID)
	rows, err := s.store.OrdersByUser(ctx, user, "processing", limitOr(limit, ListLimit))
	list := s.orderList(OrderList{UserID: user, StatusFilter: "processing"}, rows, err)

	now := s.now().UTC()
	for i := range list.Orders {
		if dt, ok := ParseDate(list.Orders[i].Date); ok {
			days := DaysBetween(dt, now)
			list.Orders[i].DaysSinceOrder = &days
		}
	}
	return list
}

func (s *Service) orderList(base OrderList, rows []store.OrderRow, err error) OrderList {
	if err != nil {
		logx.Warn().Err(err).Msg("Order list lookup failed")
		base.Found = false
		base.Orders = []OrderSummary{}
		base.Error = errx.StoreErrorMessage
		return base
	}
	base.Orders = s.summarizeAll(rows)
	base.Found = len(rows) > 0
	return base
}

// cancellationVerdict allows only processing orders and gives every other
// status its own reason.
func cancellationVerdict(status string) (bool, string) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "processing":
		return true, "Order is processing and can be cancelled"
	case "delivered":
		return false, "Order has already been delivered and cannot be cancelled; a return may be possible instead"
	case "cancelled", "canceled":
		return false, "Order is already cancelled"
	case "pending":
		return false, "Order is pending confirmation and cannot be cancelled yet"
	case "shipped":
		return false, "Order has already been shipped and cannot be cancelled"
	case "returned":
		return false, "Order has already been returned"
	default:
		return false, fmt.Sprintf("Orders with status %q cannot be cancelled", status)
	}
}

const orderNotFoundReason = "Order not found"

func (s *Service) CanCancel(ctx context.Context, orderID string) CancelCheck {
	id := strings.TrimSpace(orderID)
	row, err := s.store.OrderByID(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return CancelCheck{CanCancel: false, OrderID: id, Reason: orderNotFoundReason}
		}
		logx.Warn().Err(err).Str("order_id", id).Msg("Cancellation check failed")
		return CancelCheck{CanCancel: false, OrderID: id, Error: errx.StoreErrorMessage}
	}
	ok, reason := cancellationVerdict(row.Status)
	return CancelCheck{CanCancel: ok, OrderID: id, Status: row.Status, Reason: reason}
}

type rejection struct{ reason string }

func (r *rejection) Error() string { return r.reason }

// CancelOrder re-validates inside the store transaction; a prior CanCancel call
// is never trusted.
func (s *Service) CancelOrder(ctx context.Context, orderID, reason string) CancelResult {
	id := strings.TrimSpace(orderID)
	if strings.TrimSpace(reason) == "" {
		reason = DefaultCancelReason
	}

	var previous string
	err := s.store.CancelOrder(ctx, id, reason, s.now(), func(status string) error {
		previous = status
		if ok, why := cancellationVerdict(status); !ok {
			return &rejection{reason: why}
		}
		return nil
	})

	var rej *rejection
	switch {
	case err == nil:
		logx.Info().Str("order_id", id).Str("previous_status", previous).Msg("Order cancelled")
		return CancelResult{
			Success:            true,
			OrderID:            id,
			PreviousStatus:     previous,
			Status:             "cancelled",
			Message:            fmt.Sprintf("Order %s has been cancelled.", id),
			CancellationReason: reason,
		}
	case errors.As(err, &rej):
		return CancelResult{Success: false, OrderID: id, Status: previous, Reason: rej.reason}
	case store.IsNotFound(err):
		return CancelResult{Success: false, OrderID: id, Reason: orderNotFoundReason}
	default:
		logx.Error().Err(err).Str("order_id", id).Msg("Order cancellation failed")
		return CancelResult{Success: false, OrderID: id, Status: previous, Error: errx.StoreErrorMessage}
	}
}
