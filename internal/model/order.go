package model

import "time"

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
)

// RequiresGateway reports whether checkout must obtain a gateway
// authorization before persisting the order.
func (m PaymentMethod) RequiresGateway() bool {
	return m == PaymentMethodCard
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard:
		return true
	}
	return false
}

type OrderLineItem struct {
	OrderID   string `db:"order_id" json:"-"`
	Position  int    `db:"position" json:"position"`
	ProductID string `db:"product_id" json:"product_id"`
	StoreID   string `db:"store_id" json:"store_id"` // copied from the product record, never from input
	Quantity  int64  `db:"quantity" json:"quantity"`
	UnitPrice int64  `db:"unit_price" json:"unit_price"`
	Subtotal  int64  `db:"subtotal" json:"subtotal"`
}

type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// OrderPayment is one gateway authorization routed to one store.
type OrderPayment struct {
	OrderID         string        `db:"order_id" json:"-"`
	StoreID         string        `db:"store_id" json:"store_id"`
	Amount          int64         `db:"amount" json:"amount"`
	AuthorizationID string        `db:"authorization_id" json:"authorization_id"`
	Status          PaymentStatus `db:"status" json:"status"`
	// ClientSecret lets the buyer finish a pending authorization; kept so a
	// replayed attempt can hand it out again.
	ClientSecret    string        `db:"client_secret" json:"-"`
}

type Order struct {
	ID                     string          `db:"id" json:"id"`
	BuyerID                string          `db:"buyer_id" json:"buyer_id"`
	IdempotencyKey         string          `db:"idempotency_key" json:"-"`
	PaymentMethod          PaymentMethod   `db:"payment_method" json:"payment_method"`
	ShippingAddress        string          `db:"shipping_address" json:"shipping_address"`
	Currency               string          `db:"currency" json:"currency"`
	Total                  int64           `db:"total" json:"total"`
	PaymentAuthorizationID *string         `db:"payment_authorization_id" json:"payment_authorization_id"`
	CreatedAt              time.Time       `db:"created_at" json:"created_at"`
	LineItems              []OrderLineItem `db:"-" json:"line_items"`
	Payments               []OrderPayment  `db:"-" json:"payments"`
}
