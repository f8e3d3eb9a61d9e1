package repository

import (
	"context"
	"sync"

	"github.com/tecnoshop/checkout-service/internal/model"
)

type MemoryRepository struct {
	mu     sync.RWMutex
	stores map[string]*model.Store
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{stores: make(map[string]*model.Store)}
}

func (r *MemoryRepository) Create(ctx context.Context, s *model.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *s
	r.stores[s.ID] = &cp
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stores[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}
