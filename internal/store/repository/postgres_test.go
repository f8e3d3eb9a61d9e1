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
)

func newMockRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestPGRepository_FindByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM stores WHERE id = $1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "created_at", "updated_at", "owner_user_id", "name", "email", "phone", "address", "payment_account_id",
		}).AddRow("s1", now, now, "u1", "Tecno", "t@example.com", nil, nil, "acct_1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM stores WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	s, err := repo.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "acct_1", s.PaymentAccount())
	assert.Nil(t, s.Phone)

	missing, err := repo.FindByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}
