package postgres

import (
	"context"
	"errors"
	"fmt"

	"offline-pay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerRepo implements ports.LedgerRepository. The ledger_records table is
// the authoritative transaction history: APPLIED records plus REJECTED audit
// records for tuples that failed reconciliation.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

const ledgerColumns = `id, tx_id, nonce, payer_wallet_id, payee_wallet_id, amount, currency,
		signature, receipt_hash, outcome, reason, device_id, created_at_device, synced_at`

const insertLedgerQuery = `INSERT INTO ledger_records
		(id, tx_id, nonce, payer_wallet_id, payee_wallet_id, amount, currency,
		 signature, receipt_hash, outcome, reason, device_id, created_at_device, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

func ledgerArgs(rec *domain.LedgerRecord) []any {
	return []any{
		rec.ID, rec.TxID, rec.Nonce, rec.PayerWalletID, rec.PayeeWalletID,
		rec.Amount, rec.Currency, rec.Signature, rec.ReceiptHash,
		rec.Outcome, rec.Reason, rec.DeviceID, rec.CreatedAtDev, rec.SyncedAt,
	}
}

func scanLedgerRecord(row pgx.Row) (*domain.LedgerRecord, error) {
	rec := &domain.LedgerRecord{}
	err := row.Scan(
		&rec.ID, &rec.TxID, &rec.Nonce, &rec.PayerWalletID, &rec.PayeeWalletID,
		&rec.Amount, &rec.Currency, &rec.Signature, &rec.ReceiptHash,
		&rec.Outcome, &rec.Reason, &rec.DeviceID, &rec.CreatedAtDev, &rec.SyncedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Create inserts a record within the reconciliation transaction.
func (r *LedgerRepo) Create(ctx context.Context, tx pgx.Tx, rec *domain.LedgerRecord) error {
	if _, err := tx.Exec(ctx, insertLedgerQuery, ledgerArgs(rec)...); err != nil {
		return fmt.Errorf("insert ledger record: %w", err)
	}
	return nil
}

// CreateStandalone writes an audit record outside any caller transaction, for
// rejections that must survive a rolled-back balance move.
func (r *LedgerRepo) CreateStandalone(ctx context.Context, rec *domain.LedgerRecord) error {
	if _, err := r.pool.Exec(ctx, insertLedgerQuery, ledgerArgs(rec)...); err != nil {
		return fmt.Errorf("insert ledger record: %w", err)
	}
	return nil
}

// GetByNonce fetches the record for a nonce. Multiple records can share a
// nonce when forged copies were audited before the legitimate tuple applied;
// the APPLIED record wins, the earliest rejection otherwise.
func (r *LedgerRepo) GetByNonce(ctx context.Context, nonce string) (*domain.LedgerRecord, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_records WHERE nonce = $1
		ORDER BY (outcome = 'APPLIED') DESC, synced_at ASC LIMIT 1`

	rec, err := scanLedgerRecord(r.pool.QueryRow(ctx, query, nonce))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger record by nonce: %w", err)
	}
	return rec, nil
}

// ListByWallet lists records touching the wallet on either side, newest first.
func (r *LedgerRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.LedgerRecord, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_records
		WHERE payer_wallet_id = $1 OR payee_wallet_id = $1
		ORDER BY synced_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger records: %w", err)
	}
	defer rows.Close()

	var records []domain.LedgerRecord
	for rows.Next() {
		rec, err := scanLedgerRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ledger records: %w", err)
	}
	return records, nil
}
