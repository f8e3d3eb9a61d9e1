package dto

import "github.com/tecnoshop/checkout-service/internal/model"

type LineItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type CheckoutInput struct {
	Credential       string              `json:"-"`
	LineItems        []LineItemInput     `json:"line_items"`
	PaymentMethod    model.PaymentMethod `json:"payment_method"`
	PaymentMethodRef string              `json:"payment_method_ref"`
	ShippingAddress  string              `json:"shipping_address"`
	// IdempotencyKey is optional. Resubmissions carrying the same key for
	// the same buyer never create a second order.
	IdempotencyKey string `json:"idempotency_key"`
}
