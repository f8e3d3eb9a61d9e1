package relay

import (
	"context"
	"time"

	"github.com/tecnoshop/checkout-service/internal/outbox"
	"github.com/tecnoshop/checkout-service/pkg/logger"
	"go.uber.org/zap"
)

type OutboxRelay struct {
	repo      outbox.Repository
	publisher outbox.Publisher
	logger    logger.ZapLogger
	batchSize int
	interval  time.Duration
}

func NewOutboxRelay(repo outbox.Repository, publisher outbox.Publisher, logger logger.ZapLogger, batchSize int, interval time.Duration) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelay{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		batchSize: batchSize,
		interval:  interval,
	}
}

// Start polls the outbox until ctx is done.
func (r *OutboxRelay) Start(ctx context.Context) {
	r.logger.Info("Starting outbox relay", zap.Duration("interval", r.interval))
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopping outbox relay")
			return
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.Error("Failed to flush outbox", zap.Error(err))
			}
		}
	}
}

// Flush publishes one batch of pending records in insertion order and
// returns how many were sent. It stops at the first publish failure so a
// later event is never delivered ahead of an earlier one.
func (r *OutboxRelay) Flush(ctx context.Context) (int, error) {
	records, err := r.repo.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, rec := range records {
		if err := r.publisher.Publish(ctx, rec.Key, rec.Payload); err != nil {
			return sent, err
		}
		if err := r.repo.MarkSent(ctx, rec.ID, time.Now().UTC()); err != nil {
			// Published but not marked: the record goes out again next tick.
			return sent, err
		}
		sent++
		r.logger.Debug("Outbox record published",
			zap.String("event_id", rec.EventID),
			zap.String("key", rec.Key),
		)
	}
	return sent, nil
}
