// Package render turns retail tool results into the sentences shown to customers.
package render

import (
	"fmt"
	"strings"

	"github.com/retail-assistant/server/internal/retail"
)

// Order describes a lookup by id; asked is the id the customer typed.
func Order(res retail.OrderResult, asked string) string {
	if !res.Found {
		return fmt.Sprintf("I couldn't find an order with ID %s. Please check the order ID and try again.", asked)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Order %s (%s) is %s, ordered on %s.", res.OrderID, res.ProductName, res.Status, res.Date)
	if strings.EqualFold(res.Status, "delivered") {
		b.WriteString(" ")
		b.WriteString(returnSentence(res.Returnable, res.DaysSinceDelivery, res.ReturnWindowDays))
	}
	return b.String()
}

func returnSentence(returnable *bool, days, window *int) string {
	eligible := returnable != nil && *returnable
	switch {
	case eligible && days != nil && window != nil:
		return fmt.Sprintf("It is eligible for return (delivered %s ago, %d-day return window).", dayCount(*days), *window)
	case eligible:
		return "It is eligible for return."
	case days != nil && window != nil && *days > *window:
		return fmt.Sprintf("It is no longer eligible for return (delivered %s ago, %d-day return window).", dayCount(*days), *window)
	default:
		return "It is not eligible for return."
	}
}

func StatusList(status string, list retail.OrderList) string {
	if !list.Found || len(list.Orders) == 0 {
		return fmt.Sprintf("There are no %s orders.", status)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s %s:", len(list.Orders), status, plural(len(list.Orders), "order", "orders"))
	for _, o := range list.Orders {
		fmt.Fprintf(&b, "\n- Order %s: %s (%s, %s)", o.OrderID, o.ProductName, o.Status, o.Date)
	}
	return b.String()
}

func ProductOrders(name string, list retail.OrderList, withReturns bool) string {
	if !list.Found || len(list.Orders) == 0 {
		return fmt.Sprintf("I couldn't find any orders for %q. It looks like you haven't ordered this item.", name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s for %q:", len(list.Orders), plural(len(list.Orders), "order", "orders"), name)
	for _, o := range list.Orders {
		fmt.Fprintf(&b, "\n- Order %s: %s (%s, %s)", o.OrderID, o.ProductName, o.Status, o.Date)
		if withReturns {
			b.WriteString(". ")
			b.WriteString(returnNote(o))
		}
	}
	return b.String()
}

func returnNote(o retail.OrderSummary) string {
	if !strings.EqualFold(o.Status, "delivered") {
		return "Not eligible for return until delivered."
	}
	return returnSentence(o.Returnable, o.DaysSinceDelivery, o.ReturnWindowDays)
}

func Returnable(user string, list retail.OrderList) string {
	if !list.Found || len(list.Orders) == 0 {
		return fmt.Sprintf("User %s has no orders that are eligible for return right now.", user)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "User %s can return %d %s:", user, len(list.Orders), plural(len(list.Orders), "order", "orders"))
	for _, o := range list.Orders {
		fmt.Fprintf(&b, "\n- Order %s: %s", o.OrderID, o.ProductName)
		if o.DaysSinceDelivery != nil && o.ReturnWindowDays != nil {
			fmt.Fprintf(&b, " (delivered %s ago, %d-day window)", dayCount(*o.DaysSinceDelivery), *o.ReturnWindowDays)
		}
	}
	return b.String()
}

func dayCount(n int) string {
	return fmt.Sprintf("%d %s", n, plural(n, "day", "days"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
