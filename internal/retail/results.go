package retail

// OrderSummary is one order inside a list result.
type OrderSummary struct {
	OrderID           string `json:"order_id"`
	UserID            string `json:"user_id,omitempty"`
	Status            string `json:"status"`
	Date              string `json:"date"`
	ProductName       string `json:"product_name"`
	Returnable        *bool  `json:"returnable,omitempty"`
	DaysSinceDelivery *int   `json:"days_since_delivery,omitempty"`
	ReturnWindowDays  *int   `json:"return_window_days,omitempty"`
	DaysSinceOrder    *int   `json:"days_since_order,omitempty"`
}

// OrderResult answers a lookup by order id. A miss carries only the echoed id.
type OrderResult struct {
	Found             bool   `json:"found"`
	OrderID           string `json:"order_id"`
	ProductName       string `json:"product_name,omitempty"`
	Status            string `json:"status,omitempty"`
	Date              string `json:"date,omitempty"`
	UserID            string `json:"user_id,omitempty"`
	Returnable        *bool  `json:"returnable,omitempty"`
	DaysSinceDelivery *int   `json:"days_since_delivery,omitempty"`
	ReturnWindowDays  *int   `json:"return_window_days,omitempty"`
	Error             string `json:"error,omitempty"`
}

// OrderList is the result of every multi-order lookup.
type OrderList struct {
	Found        bool           `json:"found"`
	Query        string         `json:"query,omitempty"`
	UserID       string         `json:"user_id,omitempty"`
	StatusFilter string         `json:"status_filter,omitempty"`
	Orders       []OrderSummary `json:"orders"`
	Error        string         `json:"error,omitempty"`
}

type CancelCheck struct {
	CanCancel bool   `json:"can_cancel"`
	OrderID   string `json:"order_id"`
	Status    string `json:"status,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
}

type CancelResult struct {
	Success            bool   `json:"success"`
	OrderID            string `json:"order_id"`
	PreviousStatus     string `json:"previous_status,omitempty"`
	Status             string `json:"status,omitempty"`
	Message            string `json:"message,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	Reason             string `json:"reason,omitempty"`
	Error              string `json:"error,omitempty"`
}

type ProductSummary struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Price    float64 `json:"price"`
}

type ProductList struct {
	Found    bool             `json:"found"`
	Query    string           `json:"query"`
	Products []ProductSummary `json:"products"`
	Error    string           `json:"error,omitempty"`
}

type PolicyAnswer struct {
	Found    bool   `json:"found"`
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
	Chunks   int    `json:"chunks"`
	Error    string `json:"error,omitempty"`
}
