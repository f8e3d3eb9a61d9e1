package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tecnoshop/checkout-service/internal/inventory"
	"github.com/tecnoshop/checkout-service/internal/inventory/dto"
	"github.com/tecnoshop/checkout-service/internal/product"
	"github.com/tecnoshop/checkout-service/pkg/apperror"
	"github.com/tecnoshop/checkout-service/pkg/logger"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	products       product.Repository
	logger         logger.ZapLogger
	releaseTimeout time.Duration
}

func NewInventoryUseCase(products product.Repository, log logger.ZapLogger, releaseTimeout time.Duration) inventory.UseCase {
	return &inventoryUseCase{
		products:       products,
		logger:         log,
		releaseTimeout: releaseTimeout,
	}
}

func (uc *inventoryUseCase) Reserve(ctx context.Context, referenceID string, items []dto.ReservationRequest) (*dto.Reservation, error) {
	if err := validate(items); err != nil {
		return nil, err
	}

	reservation := &dto.Reservation{
		ReferenceID: referenceID,
		Items:       make([]dto.ReservedItem, 0, len(items)),
	}

	for _, item := range items {
		p, err := uc.products.DecrementStock(ctx, item.ProductID, item.Quantity, referenceID)
		if err != nil {
			if _, ok := apperror.As(err); !ok {
				err = apperror.Wrap(apperror.KindPersistenceError, err, "decrement stock")
				uc.logger.Error("stock decrement failed",
					zap.String("reference_id", referenceID),
					zap.String("product_id", item.ProductID),
					zap.Error(err),
				)
			}
			if relErr := uc.Release(ctx, reservation); relErr != nil {
				uc.logger.Error("rollback of partial reservation failed",
					zap.String("reference_id", referenceID),
					zap.Error(relErr),
				)
			}
			return nil, err
		}

		reservation.Items = append(reservation.Items, dto.ReservedItem{
			ProductID: p.ID,
			StoreID:   p.StoreID,
			Name:      p.Name,
			Quantity:  item.Quantity,
			UnitPrice: p.UnitPrice,
		})
	}

	uc.logger.Debug("stock reserved",
		zap.String("reference_id", referenceID),
		zap.Int("items", len(reservation.Items)),
	)
	return reservation, nil
}

// Release restores every reserved item in reverse order. It runs on a
// context detached from the caller's cancellation so a timed-out checkout
// still gets its stock back.
func (uc *inventoryUseCase) Release(ctx context.Context, reservation *dto.Reservation) error {
	if reservation == nil || len(reservation.Items) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.releaseTimeout)
	defer cancel()

	var errs []error
	for i := len(reservation.Items) - 1; i >= 0; i-- {
		item := reservation.Items[i]
		if _, err := uc.products.RestoreStock(ctx, item.ProductID, item.Quantity, reservation.ReferenceID); err != nil {
			uc.logger.Error("failed to restore stock",
				zap.String("reference_id", reservation.ReferenceID),
				zap.String("product_id", item.ProductID),
				zap.Int64("quantity", item.Quantity),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validate(items []dto.ReservationRequest) error {
	if len(items) == 0 {
		return apperror.InvalidRequest("cart has no line items")
	}
	for i, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return apperror.InvalidRequest("line item %d has no product id", i)
		}
		if item.Quantity <= 0 {
			return apperror.InvalidRequest("line item %d quantity must be positive", i)
		}
	}
	return nil
}
