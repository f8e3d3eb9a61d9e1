package outbox

import (
	"context"
	"time"

	"github.com/tecnoshop/checkout-service/internal/model"
)

type Repository interface {
	// FetchPending returns unsent records oldest first.
	FetchPending(ctx context.Context, limit int) ([]model.OutboxRecord, error)
	MarkSent(ctx context.Context, id int64, sentAt time.Time) error
}

type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}
