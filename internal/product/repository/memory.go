package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tecnoshop/checkout-service/internal/model"
	"github.com/tecnoshop/checkout-service/pkg/apperror"
)

// MemoryRepository is the in-process catalog used with STORAGE_DRIVER=memory
// and in tests. Every stock change happens under one mutex.
type MemoryRepository struct {
	mu        sync.Mutex
	products  map[string]*model.Product
	movements []model.StockMovement
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{products: make(map[string]*model.Product)}
}

func (r *MemoryRepository) Create(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) DecrementStock(ctx context.Context, productID string, quantity int64, referenceID string) (*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.ProductNotFound(productID)
	}
	if p.AvailableQuantity < quantity {
		return nil, apperror.InsufficientStock(productID, p.AvailableQuantity, quantity)
	}

	p.AvailableQuantity -= quantity
	p.UpdatedAt = time.Now()
	r.logMovement(p, model.MovementReservation, -quantity, referenceID)

	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) RestoreStock(ctx context.Context, productID string, quantity int64, referenceID string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.ProductNotFound(productID)
	}

	p.AvailableQuantity += quantity
	p.UpdatedAt = time.Now()
	r.logMovement(p, model.MovementReservationRelease, quantity, referenceID)

	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) ListMovements(ctx context.Context, productID string) ([]model.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

// caller holds r.mu
func (r *MemoryRepository) logMovement(p *model.Product, mt model.MovementType, change int64, referenceID string) {
	r.movements = append(r.movements, model.StockMovement{
		ID:             uuid.New().String(),
		ProductID:      p.ID,
		StoreID:        p.StoreID,
		MovementType:   mt,
		QuantityChange: change,
		QuantityBefore: p.AvailableQuantity - change,
		QuantityAfter:  p.AvailableQuantity,
		ReferenceID:    referenceID,
		CreatedAt:      time.Now(),
	})
}
