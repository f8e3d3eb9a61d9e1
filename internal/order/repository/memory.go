package repository

import (
	"context"
	"sync"

	"github.com/tecnoshop/checkout-service/internal/model"
	"github.com/tecnoshop/checkout-service/internal/order"
	outboxRepo "github.com/tecnoshop/checkout-service/internal/outbox/repository"
)

type MemoryRepository struct {
	mu     sync.Mutex
	orders map[string]*model.Order
	byKey  map[string]string
	outbox *outboxRepo.MemoryRepository
}

// NewMemoryRepository returns an order store that appends events to outbox
// under the same lock that records the order.
func NewMemoryRepository(outbox *outboxRepo.MemoryRepository) *MemoryRepository {
	return &MemoryRepository{
		orders: make(map[string]*model.Order),
		byKey:  make(map[string]string),
		outbox: outbox,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, o *model.Order, event *model.OutboxRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if o.IdempotencyKey != "" {
		if _, ok := r.byKey[o.IdempotencyKey]; ok {
			return order.ErrDuplicateIdempotencyKey
		}
	}

	r.orders[o.ID] = cloneOrder(o)
	if o.IdempotencyKey != "" {
		r.byKey[o.IdempotencyKey] = o.ID
	}
	if event != nil && r.outbox != nil {
		r.outbox.Append(*event)
	}
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (r *MemoryRepository) FindByIdempotencyKey(ctx context.Context, key string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byKey[key]
	if !ok {
		return nil, nil
	}
	return cloneOrder(r.orders[id]), nil
}

// Count returns how many orders are stored.
func (r *MemoryRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

func cloneOrder(o *model.Order) *model.Order {
	cp := *o
	cp.LineItems = append([]model.OrderLineItem(nil), o.LineItems...)
	cp.Payments = append([]model.OrderPayment(nil), o.Payments...)
	if o.PaymentAuthorizationID != nil {
		id := *o.PaymentAuthorizationID
		cp.PaymentAuthorizationID = &id
	}
	for i := range cp.LineItems {
		cp.LineItems[i].OrderID = o.ID
	}
	for i := range cp.Payments {
		cp.Payments[i].OrderID = o.ID
	}
	return &cp
}
