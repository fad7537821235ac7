package ports

import (
	"context"

	"offline-pay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic
// locking; balance mutations only ever happen under such a lock.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID, kind domain.WalletKind) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance int64) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// NonceRepository is the authoritative nonce set. InsertIfAbsent is the hard
// replay constraint: it must be atomic and is always called inside the same
// database transaction that moves the balances.
type NonceRepository interface {
	// InsertIfAbsent records the nonce and returns true, or returns false if
	// the nonce was already present. Never overwrites.
	InsertIfAbsent(ctx context.Context, tx pgx.Tx, nonce string, txID string) (bool, error)
}

// LedgerRepository persists authoritative transaction records, including
// REJECTED audit records for tuples that failed reconciliation.
type LedgerRepository interface {
	Create(ctx context.Context, tx pgx.Tx, rec *domain.LedgerRecord) error
	// CreateStandalone writes an audit record outside any caller transaction,
	// for rejections that must survive a rolled-back balance move.
	CreateStandalone(ctx context.Context, rec *domain.LedgerRecord) error
	GetByNonce(ctx context.Context, nonce string) (*domain.LedgerRecord, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.LedgerRecord, error)
}

// TransferRepository persists preload transfers between a user's own wallets.
type TransferRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
