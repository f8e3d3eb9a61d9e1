package inventory

import (
	"context"

	"github.com/tecnoshop/checkout-service/internal/inventory/dto"
)

// UseCase is the stock reservation engine. Reserve either decrements every
// requested pair or leaves the catalog exactly as it found it.
type UseCase interface {
	Reserve(ctx context.Context, referenceID string, items []dto.ReservationRequest) (*dto.Reservation, error)
	Release(ctx context.Context, reservation *dto.Reservation) error
}
