package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRegistry_PublicKeyFor(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	registry := NewKeyRegistry(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT public_key FROM wallets").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"public_key"}).AddRow("pem-data"))

	pem, err := registry.PublicKeyFor(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, "pem-data", pem)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyRegistry_PublicKeyFor_UnknownWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	registry := NewKeyRegistry(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT public_key FROM wallets").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"public_key"}))

	pem, err := registry.PublicKeyFor(context.Background(), id.String())
	require.NoError(t, err)
	assert.Empty(t, pem)
}

func TestKeyRegistry_PublicKeyFor_MalformedID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	registry := NewKeyRegistry(mock)

	// No query reaches the database for a non-UUID payer id.
	pem, err := registry.PublicKeyFor(context.Background(), "not-a-uuid")
	require.NoError(t, err)
	assert.Empty(t, pem)
	assert.NoError(t, mock.ExpectationsWereMet())
}
