package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// NonceRepo implements ports.NonceRepository. The tx_nonces table is the
// authoritative replay constraint: one row per nonce, ever.
type NonceRepo struct {
	pool Pool
}

// NewNonceRepo creates a new NonceRepo.
func NewNonceRepo(pool Pool) *NonceRepo {
	return &NonceRepo{pool: pool}
}

// InsertIfAbsent records the nonce and returns true, or returns false if the
// nonce was already present. Runs inside the caller's transaction so the
// insert commits or rolls back together with the balance moves.
func (r *NonceRepo) InsertIfAbsent(ctx context.Context, tx pgx.Tx, nonce string, txID string) (bool, error) {
	query := `INSERT INTO tx_nonces (nonce, tx_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (nonce) DO NOTHING`

	tag, err := tx.Exec(ctx, query, nonce, txID)
	if err != nil {
		return false, fmt.Errorf("insert nonce: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
