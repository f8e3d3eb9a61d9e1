package order

import (
	"context"
	"errors"

	"github.com/tecnoshop/checkout-service/internal/model"
)

// ErrDuplicateIdempotencyKey is returned by Create when another attempt
// already persisted an order under the same key.
var ErrDuplicateIdempotencyKey = errors.New("order with this idempotency key already exists")

type Repository interface {
	// Create writes the order, its line items, its payments and the outbox
	// event atomically. Nothing is written if any part fails.
	Create(ctx context.Context, order *model.Order, event *model.OutboxRecord) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Order, error)
}
