package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tecnoshop/checkout-service/pkg/apperror"
)

var productColumns = []string{"id", "created_at", "updated_at", "store_id", "name", "unit_price", "available_quantity"}

func newMockRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestPGRepository_DecrementStock(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products")).
		WithArgs(int64(2), "p1").
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow("p1", now, now, "s1", "Mouse", int64(100), int64(3)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO stock_movements")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	p, err := repo.DecrementStock(context.Background(), "p1", 2, "ref-1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, p.AvailableQuantity)
	assert.Equal(t, "s1", p.StoreID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_DecrementStock_Insufficient(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products")).
		WithArgs(int64(10), "p1").
		WillReturnRows(sqlmock.NewRows(productColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT available_quantity FROM products")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"available_quantity"}).AddRow(int64(5)))
	mock.ExpectRollback()

	_, err := repo.DecrementStock(context.Background(), "p1", 10, "ref-1")
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindInsufficientStock, appErr.Kind)
	assert.EqualValues(t, 5, appErr.Available)
	assert.EqualValues(t, 10, appErr.Requested)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_DecrementStock_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products")).
		WithArgs(int64(1), "ghost").
		WillReturnRows(sqlmock.NewRows(productColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT available_quantity FROM products")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"available_quantity"}))
	mock.ExpectRollback()

	_, err := repo.DecrementStock(context.Background(), "ghost", 1, "ref-1")
	assert.Equal(t, apperror.KindProductNotFound, apperror.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_RestoreStock(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products")).
		WithArgs(int64(2), "p1").
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow("p1", now, now, "s1", "Mouse", int64(100), int64(5)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO stock_movements")).
		WithArgs(sqlmock.AnyArg(), "p1", "s1", "reservation_release", int64(2), int64(3), int64(5), "ref-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	p, err := repo.RestoreStock(context.Background(), "p1", 2, "ref-1")
	require.NoError(t, err)
	assert.EqualValues(t, 5, p.AvailableQuantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_RestoreStock_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products")).
		WithArgs(int64(1), "ghost").
		WillReturnRows(sqlmock.NewRows(productColumns))
	mock.ExpectRollback()

	_, err := repo.RestoreStock(context.Background(), "ghost", 1, "ref-1")
	assert.Equal(t, apperror.KindProductNotFound, apperror.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_RestoreStock_MovementFailureRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products")).
		WithArgs(int64(1), "p1").
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow("p1", now, now, "s1", "Mouse", int64(100), int64(4)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO stock_movements")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.RestoreStock(context.Background(), "p1", 1, "ref-1")
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_FindByID_Missing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM products WHERE id = $1")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(productColumns))

	p, err := repo.FindByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, p)
}
