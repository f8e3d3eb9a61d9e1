package product

import (
	"context"

	"github.com/tecnoshop/checkout-service/internal/model"
)

// Repository is the catalog accessor used by checkout. Stock changes are
// atomic per product: implementations must never let available_quantity go
// negative under concurrent callers.
type Repository interface {
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// DecrementStock subtracts quantity only if enough is available and
	// returns the updated record. Fails with apperror ProductNotFound or
	// InsufficientStock.
	DecrementStock(ctx context.Context, productID string, quantity int64, referenceID string) (*model.Product, error)
	// RestoreStock adds quantity back after a failed checkout.
	RestoreStock(ctx context.Context, productID string, quantity int64, referenceID string) (*model.Product, error)
}
