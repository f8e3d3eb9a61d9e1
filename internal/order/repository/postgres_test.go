package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tecnoshop/checkout-service/internal/model"
	"github.com/tecnoshop/checkout-service/internal/order"
)

func newMockRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestPGRepository_CreateWritesEverythingInOneTx(t *testing.T) {
	repo, mock := newMockRepo(t)
	o := sampleOrder("o1", "k1")
	o.Payments = []model.OrderPayment{{StoreID: "s1", Amount: 200, AuthorizationID: "pi_1", Status: model.PaymentStatusPending, ClientSecret: "pi_1_secret"}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_line_items")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_payments")).
		WithArgs("o1", "s1", int64(200), "pi_1", "pending", "pi_1_secret").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), o, &model.OutboxRecord{EventID: "e1", Topic: "orders.events", Key: "o1", Payload: []byte(`{}`)})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_CreateDuplicateKey(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "orders_idempotency_key_key"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleOrder("o1", "k1"), nil)
	assert.ErrorIs(t, err, order.ErrDuplicateIdempotencyKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_CreateRollsBackOnLineItemFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_line_items")).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleOrder("o1", "k1"), nil)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_FindByIdempotencyKey(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM orders WHERE idempotency_key = $1")).
		WithArgs("k1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "buyer_id", "idempotency_key", "payment_method", "shipping_address",
			"currency", "total", "payment_authorization_id", "created_at",
		}).AddRow("o1", "u1", "k1", "cash", "Calle 5", "mxn", int64(200), nil, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM order_line_items")).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "position", "product_id", "store_id", "quantity", "unit_price", "subtotal"}).
			AddRow("o1", 0, "p1", "s1", int64(2), int64(100), int64(200)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM order_payments")).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "store_id", "amount", "authorization_id", "status", "client_secret"}))

	o, err := repo.FindByIdempotencyKey(context.Background(), "k1")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, model.PaymentMethodCash, o.PaymentMethod)
	require.Len(t, o.LineItems, 1)
	assert.Equal(t, "s1", o.LineItems[0].StoreID)
	assert.Empty(t, o.Payments)
	assert.NoError(t, mock.ExpectationsWereMet())
}
