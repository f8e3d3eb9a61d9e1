package repository

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/tecnoshop/checkout-service/internal/model"
	"github.com/tecnoshop/checkout-service/internal/order"
	outboxRepo "github.com/tecnoshop/checkout-service/internal/outbox/repository"
)

const uniqueViolation = "23505"

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, o *model.Order, event *model.OutboxRecord) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	query := `
        INSERT INTO orders (
            id, buyer_id, idempotency_key, payment_method, shipping_address,
            currency, total, payment_authorization_id, created_at
        )
        VALUES (
            :id, :buyer_id, :idempotency_key, :payment_method, :shipping_address,
            :currency, :total, :payment_authorization_id, :created_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, query, o); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return order.ErrDuplicateIdempotencyKey
		}
		return errors.Wrap(err, "insert order")
	}

	itemQuery := `
        INSERT INTO order_line_items (
            order_id, position, product_id, store_id, quantity, unit_price, subtotal
        )
        VALUES (
            :order_id, :position, :product_id, :store_id, :quantity, :unit_price, :subtotal
        )
    `
	for i := range o.LineItems {
		o.LineItems[i].OrderID = o.ID
		if _, err := tx.NamedExecContext(ctx, itemQuery, &o.LineItems[i]); err != nil {
			return errors.Wrap(err, "insert order line item")
		}
	}

	paymentQuery := `
        INSERT INTO order_payments (order_id, store_id, amount, authorization_id, status, client_secret)
        VALUES (:order_id, :store_id, :amount, :authorization_id, :status, :client_secret)
    `
	for i := range o.Payments {
		o.Payments[i].OrderID = o.ID
		if _, err := tx.NamedExecContext(ctx, paymentQuery, &o.Payments[i]); err != nil {
			return errors.Wrap(err, "insert order payment")
		}
	}

	if event != nil {
		if err := outboxRepo.Insert(ctx, tx, event); err != nil {
			return err
		}
	}

	return errors.Wrap(tx.Commit(), "commit order")
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	return r.findOne(ctx, `SELECT * FROM orders WHERE id = $1 LIMIT 1`, id)
}

func (r *PGRepository) FindByIdempotencyKey(ctx context.Context, key string) (*model.Order, error) {
	return r.findOne(ctx, `SELECT * FROM orders WHERE idempotency_key = $1 LIMIT 1`, key)
}

func (r *PGRepository) findOne(ctx context.Context, query string, arg string) (*model.Order, error) {
	var o model.Order
	if err := r.DB.GetContext(ctx, &o, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "select order")
	}

	itemQuery := `SELECT * FROM order_line_items WHERE order_id = $1 ORDER BY position ASC`
	if err := r.DB.SelectContext(ctx, &o.LineItems, itemQuery, o.ID); err != nil {
		return nil, errors.Wrap(err, "select order line items")
	}

	paymentQuery := `SELECT * FROM order_payments WHERE order_id = $1 ORDER BY store_id ASC`
	if err := r.DB.SelectContext(ctx, &o.Payments, paymentQuery, o.ID); err != nil {
		return nil, errors.Wrap(err, "select order payments")
	}
	return &o, nil
}
