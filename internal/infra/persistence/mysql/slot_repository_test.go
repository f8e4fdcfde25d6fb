package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	domcart "example.com/stylino-storefront/internal/domain/cart"
)

func newMockRepo(t *testing.T) (*SlotRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSlotRepository(db), mock
}

func TestSlotRepository_Load(t *testing.T) {
	repo, mock := newMockRepo(t)
	payload := `[{"productId":1,"name":"Coat","price":100,"quantity":2}]`

	mock.ExpectQuery(`SELECT payload\s+FROM cart_slots\s+WHERE slot_key = \?`).
		WithArgs("stylino_cart:abc").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(payload)))

	got, err := repo.Load(context.Background(), "stylino_cart:abc")

	require.NoError(t, err)
	require.JSONEq(t, payload, string(got))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepository_LoadMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT payload").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Load(context.Background(), "missing")

	require.ErrorIs(t, err, domcart.ErrSlotNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepository_LoadError(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery("SELECT payload").WillReturnError(boom)

	_, err := repo.Load(context.Background(), "k")

	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, domcart.ErrSlotNotFound)
}

func TestSlotRepository_SaveUpserts(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO cart_slots").
		WithArgs("k", []byte(`[]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), "k", []byte(`[]`)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepository_EnsureSchema(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS cart_slots").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
