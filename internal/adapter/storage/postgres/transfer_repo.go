package postgres

import (
	"context"
	"fmt"

	"offline-pay/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// TransferRepo implements ports.TransferRepository.
type TransferRepo struct {
	pool Pool
}

// NewTransferRepo creates a new TransferRepo.
func NewTransferRepo(pool Pool) *TransferRepo {
	return &TransferRepo{pool: pool}
}

// Create inserts a preload transfer within the caller's transaction.
func (r *TransferRepo) Create(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error {
	query := `INSERT INTO transfers (id, owner_id, from_wallet_id, to_wallet_id, amount, currency, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		transfer.ID, transfer.OwnerID, transfer.FromWalletID, transfer.ToWalletID,
		transfer.Amount, transfer.Currency, transfer.Reference, transfer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}
