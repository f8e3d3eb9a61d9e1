package store

import (
	"context"

	"github.com/tecnoshop/checkout-service/internal/model"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*model.Store, error)
}
