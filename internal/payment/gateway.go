package payment

import (
	"context"

	"github.com/tecnoshop/checkout-service/pkg/apperror"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusPending   Status = "pending"
)

type AuthorizeRequest struct {
	AmountMinorUnits      int64
	Currency              string
	PaymentMethodRef      string
	DestinationAccountRef string
	IdempotencyKey        string
	Metadata              map[string]string
}

type AuthorizationResult struct {
	Status          Status
	AuthorizationID string
	ClientSecret    string
	// Captured is true when funds already moved and undoing the
	// authorization requires a refund rather than a cancel.
	Captured bool
	// DeclineReason is the gateway's explanation for a Failed status.
	DeclineReason string
}

// Gateway is the external payment capability. Implementations must honor
// IdempotencyKey so a retried Authorize never creates a second charge.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (AuthorizationResult, error)
	// Void undoes a successful or pending authorization.
	Void(ctx context.Context, auth AuthorizationResult, idempotencyKey string) error
}

// Disabled is wired when no gateway credential is configured. Card
// checkouts fail with GatewayError instead of reaching a real provider.
type Disabled struct{}

func (Disabled) Authorize(ctx context.Context, req AuthorizeRequest) (AuthorizationResult, error) {
	return AuthorizationResult{}, apperror.New(apperror.KindGatewayError, "payment gateway is not configured")
}

func (Disabled) Void(ctx context.Context, auth AuthorizationResult, idempotencyKey string) error {
	return nil
}
