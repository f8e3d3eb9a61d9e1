package checkout

import (
	"context"

	"github.com/tecnoshop/checkout-service/internal/checkout/dto"
	"github.com/tecnoshop/checkout-service/internal/model"
)

type UseCase interface {
	Checkout(ctx context.Context, input *dto.CheckoutInput) (*dto.CheckoutResult, error)
	// GetOrder returns an order owned by the caller identified by credential.
	GetOrder(ctx context.Context, credential, orderID string) (*model.Order, error)
}

// Guard serializes checkout attempts that share an idempotency key. Acquire
// fails with a Conflict error while another holder owns key.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type State string

const (
	StateAuthenticating State = "authenticating"
	StateReserving      State = "reserving"
	StatePricing        State = "pricing"
	StateAuthorizing    State = "authorizing"
	StatePersisting     State = "persisting"
	StateCompleted      State = "completed"
	StateFailed         State = "failed"
)
