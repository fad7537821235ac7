package device

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"offline-pay/internal/core/domain"
)

// Commit failures, distinguished so the engine can surface the right error
// kind: a duplicate txId is a replay, not a funds problem.
var (
	ErrDuplicateTx         = errors.New("transaction already committed locally")
	ErrInsufficientBalance = errors.New("insufficient provisional balance")
	ErrOverCeiling         = errors.New("credit exceeds spend ceiling")
)

// LocalLedger is the device's append-only transaction log plus the wallet's
// provisional balance. Entries are never deleted and nothing but SyncState
// ever changes, so the log doubles as the device audit trail.
type LocalLedger struct {
	mu      sync.Mutex
	wallet  domain.Wallet
	entries []domain.LocalLedgerEntry
	byTxID  map[string]int
}

// NewLocalLedger creates a ledger seeded with the wallet's last known state.
func NewLocalLedger(wallet domain.Wallet) *LocalLedger {
	return &LocalLedger{
		wallet: wallet,
		byTxID: make(map[string]int),
	}
}

// Wallet returns a snapshot of the wallet with its provisional balance.
func (l *LocalLedger) Wallet() domain.Wallet {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wallet
}

// Balance returns the provisional balance.
func (l *LocalLedger) Balance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wallet.Balance
}

// CommitDebit applies the payer-side provisional debit and appends the SENT
// entry in one step, so a second draft cannot overspend against the same
// funds. The balance check is repeated under the lock.
func (l *LocalLedger) CommitDebit(payload domain.TransactionPayload, rawPayload string, committedAt time.Time) (domain.LocalLedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byTxID[payload.TxID]; exists {
		return domain.LocalLedgerEntry{}, fmt.Errorf("%w: %s", ErrDuplicateTx, payload.TxID)
	}
	if !l.wallet.CanDebit(payload.Amount) {
		return domain.LocalLedgerEntry{}, ErrInsufficientBalance
	}

	l.wallet.Balance -= payload.Amount
	entry := domain.LocalLedgerEntry{
		TxID:           payload.TxID,
		Direction:      domain.DirectionSent,
		CounterpartyID: payload.PayeeID,
		Amount:         payload.Amount,
		Timestamp:      payload.Timestamp,
		RawPayload:     rawPayload,
		SyncState:      domain.SyncStatePending,
		CommittedAt:    committedAt,
	}
	l.append(entry)
	return entry, nil
}

// CommitCredit applies the payee-side provisional credit and appends the
// RECEIVED entry. Over-ceiling credits are rejected, never clamped.
func (l *LocalLedger) CommitCredit(payload domain.TransactionPayload, rawPayload string, committedAt time.Time) (domain.LocalLedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byTxID[payload.TxID]; exists {
		return domain.LocalLedgerEntry{}, fmt.Errorf("%w: %s", ErrDuplicateTx, payload.TxID)
	}
	if !l.wallet.CanCredit(payload.Amount) {
		return domain.LocalLedgerEntry{}, ErrOverCeiling
	}

	l.wallet.Balance += payload.Amount
	entry := domain.LocalLedgerEntry{
		TxID:           payload.TxID,
		Direction:      domain.DirectionReceived,
		CounterpartyID: payload.PayerID,
		Amount:         payload.Amount,
		Timestamp:      payload.Timestamp,
		RawPayload:     rawPayload,
		SyncState:      domain.SyncStatePending,
		CommittedAt:    committedAt,
	}
	l.append(entry)
	return entry, nil
}

func (l *LocalLedger) append(entry domain.LocalLedgerEntry) {
	l.byTxID[entry.TxID] = len(l.entries)
	l.entries = append(l.entries, entry)
}

// SetSyncState advances an entry's sync state. Invalid transitions are
// rejected; terminal states never move.
func (l *LocalLedger) SetSyncState(txID string, state domain.SyncState) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, ok := l.byTxID[txID]
	if !ok {
		return fmt.Errorf("no ledger entry for transaction %s", txID)
	}
	if !domain.ValidSyncTransition(l.entries[idx].SyncState, state) {
		return fmt.Errorf("invalid sync transition %s -> %s for %s", l.entries[idx].SyncState, state, txID)
	}
	l.entries[idx].SyncState = state
	return nil
}

// Entries returns a copy of the full log, oldest first.
func (l *LocalLedger) Entries() []domain.LocalLedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.LocalLedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// PendingEntries returns entries awaiting reconciliation (PENDING or
// SUBMITTED but unconfirmed).
func (l *LocalLedger) PendingEntries() []domain.LocalLedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.LocalLedgerEntry
	for _, e := range l.entries {
		if e.SyncState == domain.SyncStatePending || e.SyncState == domain.SyncStateSubmitted {
			out = append(out, e)
		}
	}
	return out
}
