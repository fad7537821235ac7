package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"offline-pay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID, kind domain.WalletKind) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.OwnerID == ownerID && w.Kind == kind {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Balance = balance
	return nil
}

func (r *inMemoryWalletRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Active = false
	return nil
}

// setBalance seeds funds directly, standing in for an external deposit rail.
func (r *inMemoryWalletRepo) setBalance(id uuid.UUID, balance int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.wallets[id]; ok {
		w.Balance = balance
	}
}

// --- In-Memory Nonce Repo ---

type inMemoryNonceRepo struct {
	mu     sync.Mutex
	nonces map[string]string
}

func newInMemoryNonceRepo() *inMemoryNonceRepo {
	return &inMemoryNonceRepo{nonces: make(map[string]string)}
}

func (r *inMemoryNonceRepo) InsertIfAbsent(ctx context.Context, tx pgx.Tx, nonce string, txID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nonces[nonce]; ok {
		return false, nil
	}
	r.nonces[nonce] = txID
	return true, nil
}

// --- In-Memory Ledger Repo ---

type inMemoryLedgerRepo struct {
	mu      sync.RWMutex
	records []domain.LedgerRecord
}

func newInMemoryLedgerRepo() *inMemoryLedgerRepo {
	return &inMemoryLedgerRepo{}
}

func (r *inMemoryLedgerRepo) Create(ctx context.Context, tx pgx.Tx, rec *domain.LedgerRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *rec)
	return nil
}

func (r *inMemoryLedgerRepo) CreateStandalone(ctx context.Context, rec *domain.LedgerRecord) error {
	return r.Create(ctx, nil, rec)
}

func (r *inMemoryLedgerRepo) GetByNonce(ctx context.Context, nonce string) (*domain.LedgerRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// An applied record wins over rejection audits for the same nonce.
	var found *domain.LedgerRecord
	for i := range r.records {
		rec := &r.records[i]
		if rec.Nonce != nonce {
			continue
		}
		if rec.Outcome == domain.SyncOutcomeApplied {
			cp := *rec
			return &cp, nil
		}
		if found == nil {
			found = rec
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (r *inMemoryLedgerRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.LedgerRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.LedgerRecord
	for _, rec := range r.records {
		if rec.PayerWalletID == walletID || rec.PayeeWalletID == walletID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SyncedAt.After(out[j].SyncedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- In-Memory Transfer Repo ---

type inMemoryTransferRepo struct {
	mu        sync.Mutex
	transfers []domain.Transfer
}

func newInMemoryTransferRepo() *inMemoryTransferRepo {
	return &inMemoryTransferRepo{}
}

func (r *inMemoryTransferRepo) Create(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfers = append(r.transfers, *transfer)
	return nil
}

// --- In-Memory Key Registry ---

// inMemoryKeyRegistry resolves payer keys from the wallet store, the same
// lookup the postgres registry does against the wallets table.
type inMemoryKeyRegistry struct {
	wallets *inMemoryWalletRepo
}

func newInMemoryKeyRegistry(wallets *inMemoryWalletRepo) *inMemoryKeyRegistry {
	return &inMemoryKeyRegistry{wallets: wallets}
}

func (r *inMemoryKeyRegistry) PublicKeyFor(ctx context.Context, walletID string) (string, error) {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return "", nil
	}
	w, err := r.wallets.GetByID(ctx, id)
	if err != nil || w == nil || !w.Active {
		return "", err
	}
	return w.PublicKeyPEM, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes transactions under a single lock, standing in
// for the row locks SELECT FOR UPDATE takes in postgres. Without it the
// read-then-write balance updates would race across concurrent syncs.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &noopTx{release: &t.mu}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing. It holds the
// transactor lock until Commit or Rollback, whichever runs first.
type noopTx struct {
	release  *sync.Mutex
	finished bool
}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { t.finish(); return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { t.finish(); return nil }

func (t *noopTx) finish() {
	if t.release != nil && !t.finished {
		t.finished = true
		t.release.Unlock()
	}
}
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
