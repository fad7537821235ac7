package postgres

import (
	"context"
	"testing"
	"time"

	"offline-pay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	transfer := &domain.Transfer{
		ID:           uuid.New(),
		OwnerID:      uuid.New(),
		FromWalletID: uuid.New(),
		ToWalletID:   uuid.New(),
		Amount:       4000,
		Currency:     "VND",
		Reference:    "top-up",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transfers").
		WithArgs(transfer.ID, transfer.OwnerID, transfer.FromWalletID, transfer.ToWalletID,
			transfer.Amount, transfer.Currency, transfer.Reference, transfer.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Create(context.Background(), tx, transfer))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheck_Ping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	check := NewHealthCheck(mock)

	mock.ExpectExec("SELECT 1").WillReturnResult(pgxmock.NewResult("SELECT", 1))

	assert.NoError(t, check.Ping(context.Background()))
	assert.Equal(t, "postgresql", check.Name())
}
