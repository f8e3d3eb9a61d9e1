package dto

type CheckoutResult struct {
	OrderID      string `json:"order_id"`
	Total        int64  `json:"total"`
	TotalDisplay string `json:"total_display"`
	Currency     string `json:"currency"`
	// PaymentClientSecret is the secret of the first pending or succeeded
	// authorization, kept for single-store clients.
	PaymentClientSecret string `json:"payment_client_secret,omitempty"`
	// PaymentClientSecrets maps store id to client secret per split.
	PaymentClientSecrets map[string]string `json:"payment_client_secrets,omitempty"`
	Replayed             bool              `json:"replayed"`
}
