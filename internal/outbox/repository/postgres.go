package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/tecnoshop/checkout-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// Insert writes rec through ext, which is normally the transaction that
// persists the aggregate the event describes.
func Insert(ctx context.Context, ext sqlx.ExtContext, rec *model.OutboxRecord) error {
	query := `
        INSERT INTO outbox (event_id, topic, key, payload, created_at)
        VALUES (:event_id, :topic, :key, :payload, :created_at)
    `
	_, err := sqlx.NamedExecContext(ctx, ext, query, rec)
	return errors.Wrap(err, "insert outbox record")
}

func (r *PGRepository) FetchPending(ctx context.Context, limit int) ([]model.OutboxRecord, error) {
	var records []model.OutboxRecord
	// payload is jsonb; converting to bytea keeps the driver handing back []byte.
	query := `
		SELECT id, event_id, topic, key, convert_to(payload::text, 'UTF8') AS payload, created_at, sent_at
		FROM outbox
		WHERE sent_at IS NULL
		ORDER BY id ASC
		LIMIT $1
	`
	if err := r.DB.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, errors.Wrap(err, "select pending outbox")
	}
	return records, nil
}

func (r *PGRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	query := `UPDATE outbox SET sent_at = $1 WHERE id = $2`
	_, err := r.DB.ExecContext(ctx, query, sentAt, id)
	return errors.Wrap(err, "mark outbox sent")
}
