package domain

import "time"

// PaymentStatus is the payment_status reported by the checkout backend.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentFailed    PaymentStatus = "failed"
)

// Terminal reports whether the status ends polling.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentPaid, PaymentCancelled, PaymentFailed:
		return true
	default:
		return false
	}
}

// OrderLine is the checkout representation of a cart line. Prices are in minor units.
type OrderLine struct {
	ProductID   string      `json:"product_id"`
	Name        string      `json:"name"`
	UnitPrice   int64       `json:"unit_price"`
	Quantity    int         `json:"quantity"`
	ProductType string      `json:"product_type,omitempty"`
	Children    []OrderLine `json:"children,omitempty"`
}

// OrderStatus is the response of GET /api/checkout/{reference}.
type OrderStatus struct {
	OrderID       string        `json:"order_id"`
	OrderNumber   string        `json:"order_number"`
	Status        string        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TotalAmount   *int64        `json:"total_amount"`
	Currency      string        `json:"currency"`
	CustomerEmail string        `json:"customer_email,omitempty"`
}

// PaymentSession is one checkout attempt, keyed by the backend-assigned reference.
type PaymentSession struct {
	Reference   string      `json:"reference"`
	CartKey     string      `json:"-"`
	OrderID     string      `json:"orderId"`
	OrderNumber string      `json:"orderNumber"`
	CheckoutURL string      `json:"checkoutUrl"`
	Currency    string      `json:"currency"`
	OrderLines  []OrderLine `json:"orderLines"`
	State       string      `json:"state"`
	Reason      string      `json:"reason,omitempty"`
	CartCleared bool        `json:"-"`
	CreatedAt   time.Time   `json:"createdAt"`
}
