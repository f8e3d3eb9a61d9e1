package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/tecnoshop/checkout-service/internal/model"
	"github.com/tecnoshop/checkout-service/pkg/apperror"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "select product")
	}
	return &product, nil
}

// DecrementStock performs the check-and-decrement as one conditional UPDATE,
// so concurrent checkouts on the same row serialize on the row lock and the
// second one re-evaluates the predicate against the committed quantity.
func (r *PGRepository) DecrementStock(ctx context.Context, productID string, quantity int64, referenceID string) (*model.Product, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	var p model.Product
	query := `
		UPDATE products
		SET available_quantity = available_quantity - $1, updated_at = NOW()
		WHERE id = $2 AND available_quantity >= $1
		RETURNING *
	`
	err = tx.GetContext(ctx, &p, query, quantity, productID)
	if errors.Is(err, sql.ErrNoRows) {
		var available int64
		err = tx.GetContext(ctx, &available, `SELECT available_quantity FROM products WHERE id = $1`, productID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ProductNotFound(productID)
		}
		if err != nil {
			return nil, errors.Wrap(err, "select available quantity")
		}
		return nil, apperror.InsufficientStock(productID, available, quantity)
	}
	if err != nil {
		return nil, errors.Wrap(err, "decrement stock")
	}

	if err := logMovement(ctx, tx, &p, model.MovementReservation, -quantity, referenceID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit decrement")
	}
	return &p, nil
}

func (r *PGRepository) RestoreStock(ctx context.Context, productID string, quantity int64, referenceID string) (*model.Product, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	var p model.Product
	query := `
		UPDATE products
		SET available_quantity = available_quantity + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING *
	`
	err = tx.GetContext(ctx, &p, query, quantity, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ProductNotFound(productID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "restore stock")
	}

	if err := logMovement(ctx, tx, &p, model.MovementReservationRelease, quantity, referenceID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit restore")
	}
	return &p, nil
}

// logMovement appends the audit row for a change already applied to p.
func logMovement(ctx context.Context, tx *sqlx.Tx, p *model.Product, mt model.MovementType, change int64, referenceID string) error {
	m := &model.StockMovement{
		ID:             uuid.New().String(),
		ProductID:      p.ID,
		StoreID:        p.StoreID,
		MovementType:   mt,
		QuantityChange: change,
		QuantityBefore: p.AvailableQuantity - change,
		QuantityAfter:  p.AvailableQuantity,
		ReferenceID:    referenceID,
		CreatedAt:      time.Now(),
	}
	query := `
        INSERT INTO stock_movements (
            id, product_id, store_id, movement_type, quantity_change,
            quantity_before, quantity_after, reference_id, created_at
        )
        VALUES (
            :id, :product_id, :store_id, :movement_type, :quantity_change,
            :quantity_before, :quantity_after, :reference_id, :created_at
        )
    `
	_, err := tx.NamedExecContext(ctx, query, m)
	return errors.Wrap(err, "log stock movement")
}
