package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// KeyRegistry implements ports.KeyRegistry from the wallets table: the public
// key registered at provisioning is the only key a payer is trusted under.
type KeyRegistry struct {
	pool Pool
}

// NewKeyRegistry creates a wallet-backed key registry.
func NewKeyRegistry(pool Pool) *KeyRegistry {
	return &KeyRegistry{pool: pool}
}

// PublicKeyFor returns the registered public key PEM for a wallet, or ""
// when the wallet is unknown, deactivated or has no key.
func (r *KeyRegistry) PublicKeyFor(ctx context.Context, walletID string) (string, error) {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return "", nil
	}

	query := `SELECT public_key FROM wallets WHERE id = $1 AND active = TRUE`

	var pem string
	if err := r.pool.QueryRow(ctx, query, id).Scan(&pem); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get public key: %w", err)
	}
	return pem, nil
}
