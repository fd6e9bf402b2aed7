package render

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/retail-assistant/server/internal/agent/result"
	"github.com/retail-assistant/server/internal/retail"
)

// NoPolicyAnswer is used when the policy tool returned no usable text.
const NoPolicyAnswer = "I couldn't find that in the return policy."

// Result renders a parsed tool result by its shape. ok is false for shapes
// that no retail tool produces.
func Result(v result.Value) (string, bool) {
	if v.Kind() != result.Object {
		return "", false
	}
	has := func(key string) bool {
		_, ok := v.Get(key)
		return ok
	}

	switch {
	case has("question"):
		var p retail.PolicyAnswer
		return decodeThen(v, &p, func() string { return Policy(p) })
	case has(result.KeyCanCancel):
		var c retail.CancelCheck
		return decodeThen(v, &c, func() string { return CancelCheck(c) })
	case has(result.KeySuccess):
		var c retail.CancelResult
		return decodeThen(v, &c, func() string { return Cancel(c) })
	case has("products"):
		var l retail.ProductList
		return decodeThen(v, &l, func() string { return Products(l) })
	case has("orders"):
		var l retail.OrderList
		return decodeThen(v, &l, func() string { return Orders(l) })
	case has("order_id") && has(result.KeyFound):
		var o retail.OrderResult
		return decodeThen(v, &o, func() string { return Order(o, o.OrderID) })
	}
	return "", false
}

func decodeThen(v result.Value, dst any, text func() string) (string, bool) {
	raw, err := v.MarshalJSON()
	if err != nil {
		return "", false
	}
	if err := sonic.Unmarshal(raw, dst); err != nil {
		return "", false
	}
	return text(), true
}

func Policy(p retail.PolicyAnswer) string {
	if a := strings.TrimSpace(p.Answer); a != "" {
		return a
	}
	return NoPolicyAnswer
}

func CancelCheck(c retail.CancelCheck) string {
	if c.CanCancel {
		return fmt.Sprintf("Order %s is %s and can be cancelled.", c.OrderID, c.Status)
	}
	if c.Reason != "" {
		return fmt.Sprintf("Order %s cannot be cancelled: %s.", c.OrderID, strings.TrimSuffix(c.Reason, "."))
	}
	return fmt.Sprintf("Order %s cannot be cancelled.", c.OrderID)
}

func Cancel(c retail.CancelResult) string {
	switch {
	case c.Success && c.Message != "":
		return c.Message
	case c.Success:
		return fmt.Sprintf("Order %s has been cancelled.", c.OrderID)
	case c.Reason != "":
		return fmt.Sprintf("Order %s was not cancelled: %s.", c.OrderID, strings.TrimSuffix(c.Reason, "."))
	default:
		return fmt.Sprintf("Order %s was not cancelled.", c.OrderID)
	}
}

func Products(l retail.ProductList) string {
	if len(l.Products) == 0 {
		return fmt.Sprintf("I couldn't find any products matching %q.", l.Query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s matching %q:", len(l.Products), plural(len(l.Products), "product", "products"), l.Query)
	for _, p := range l.Products {
		fmt.Fprintf(&b, "\n- %s: $%.2f", p.Name, p.Price)
		if p.Category != "" {
			fmt.Fprintf(&b, " (%s)", p.Category)
		}
	}
	return b.String()
}

// Orders renders any order list, picking the wording from the list's filters.
func Orders(l retail.OrderList) string {
	switch {
	case l.Query != "":
		return ProductOrders(l.Query, l, anyDelivered(l.Orders))
	case l.StatusFilter != "":
		return StatusList(l.StatusFilter, l)
	case len(l.Orders) == 0:
		return "I couldn't find any matching orders."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s", len(l.Orders), plural(len(l.Orders), "order", "orders"))
	if l.UserID != "" {
		fmt.Fprintf(&b, " for user %s", l.UserID)
	}
	b.WriteString(":")
	for _, o := range l.Orders {
		fmt.Fprintf(&b, "\n- Order %s: %s (%s, %s)", o.OrderID, o.ProductName, o.Status, o.Date)
		if strings.EqualFold(o.Status, "delivered") {
			b.WriteString(". ")
			b.WriteString(returnNote(o))
		}
	}
	return b.String()
}

func anyDelivered(orders []retail.OrderSummary) bool {
	for _, o := range orders {
		if strings.EqualFold(o.Status, "delivered") {
			return true
		}
	}
	return false
}
