package repository

import (
	"context"
	"sync"
	"time"

	"github.com/tecnoshop/checkout-service/internal/model"
)

type MemoryRepository struct {
	mu      sync.Mutex
	nextID  int64
	records []model.OutboxRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Append stores a copy of rec and assigns its id.
func (r *MemoryRepository) Append(rec model.OutboxRecord) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	rec.ID = r.nextID
	rec.SentAt = nil
	r.records = append(r.records, rec)
	return rec.ID
}

func (r *MemoryRepository) FetchPending(ctx context.Context, limit int) ([]model.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := []model.OutboxRecord{}
	for _, rec := range r.records {
		if len(pending) >= limit {
			break
		}
		if rec.SentAt == nil {
			pending = append(pending, rec)
		}
	}
	return pending, nil
}

func (r *MemoryRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.records {
		if r.records[i].ID == id {
			t := sentAt
			r.records[i].SentAt = &t
			return nil
		}
	}
	return nil
}

// All returns a snapshot of every record, sent or not.
func (r *MemoryRepository) All() []model.OutboxRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]model.OutboxRecord(nil), r.records...)
}
