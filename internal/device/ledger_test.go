package device

import (
	"testing"
	"time"

	"offline-pay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWallet(balance, ceiling int64) domain.Wallet {
	return domain.Wallet{
		ID:           uuid.MustParse("3f9de1a2-0000-4000-8000-000000000001"),
		OwnerID:      uuid.MustParse("3f9de1a2-0000-4000-8000-00000000000a"),
		Kind:         domain.WalletKindOffline,
		Balance:      balance,
		Currency:     "VND",
		SpendCeiling: ceiling,
		Active:       true,
	}
}

func testPayload(txID string, amount int64) domain.TransactionPayload {
	return domain.TransactionPayload{
		TxID:      txID,
		PayerID:   "3f9de1a2-0000-4000-8000-000000000001",
		PayeeID:   "3f9de1a2-0000-4000-8000-000000000002",
		Amount:    amount,
		Currency:  "VND",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
		Nonce:     "nonce-" + txID,
		PayerName: "Alice",
		Signature: "sig",
	}
}

func TestLocalLedger_CommitDebit(t *testing.T) {
	ledger := NewLocalLedger(testWallet(1000, 5000))
	now := time.Now()

	entry, err := ledger.CommitDebit(testPayload("tx-1", 400), "raw-1", now)
	require.NoError(t, err)

	assert.Equal(t, domain.DirectionSent, entry.Direction)
	assert.Equal(t, domain.SyncStatePending, entry.SyncState)
	assert.Equal(t, "3f9de1a2-0000-4000-8000-000000000002", entry.CounterpartyID)
	assert.Equal(t, int64(600), ledger.Balance())
}

func TestLocalLedger_CommitDebit_InsufficientBalance(t *testing.T) {
	ledger := NewLocalLedger(testWallet(300, 5000))

	_, err := ledger.CommitDebit(testPayload("tx-1", 400), "raw-1", time.Now())
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, int64(300), ledger.Balance())
	assert.Empty(t, ledger.Entries())
}

func TestLocalLedger_CommitDebit_DuplicateTxID(t *testing.T) {
	ledger := NewLocalLedger(testWallet(1000, 5000))

	_, err := ledger.CommitDebit(testPayload("tx-1", 100), "raw-1", time.Now())
	require.NoError(t, err)

	_, err = ledger.CommitDebit(testPayload("tx-1", 100), "raw-1", time.Now())
	assert.ErrorIs(t, err, ErrDuplicateTx)
	assert.Equal(t, int64(900), ledger.Balance())
	assert.Len(t, ledger.Entries(), 1)
}

func TestLocalLedger_CommitCredit(t *testing.T) {
	ledger := NewLocalLedger(testWallet(4600, 5000))

	entry, err := ledger.CommitCredit(testPayload("tx-1", 400), "raw-1", time.Now())
	require.NoError(t, err)

	assert.Equal(t, domain.DirectionReceived, entry.Direction)
	assert.Equal(t, "3f9de1a2-0000-4000-8000-000000000001", entry.CounterpartyID)
	assert.Equal(t, int64(5000), ledger.Balance())
}

func TestLocalLedger_CommitCredit_RejectsOverCeiling(t *testing.T) {
	// 4600 + 401 would exceed the 5000 ceiling: the whole credit is refused,
	// never clamped to the remaining headroom.
	ledger := NewLocalLedger(testWallet(4600, 5000))

	_, err := ledger.CommitCredit(testPayload("tx-1", 401), "raw-1", time.Now())
	assert.ErrorIs(t, err, ErrOverCeiling)
	assert.Equal(t, int64(4600), ledger.Balance())
	assert.Empty(t, ledger.Entries())
}

func TestLocalLedger_SetSyncState(t *testing.T) {
	ledger := NewLocalLedger(testWallet(1000, 5000))
	_, err := ledger.CommitDebit(testPayload("tx-1", 100), "raw-1", time.Now())
	require.NoError(t, err)

	require.NoError(t, ledger.SetSyncState("tx-1", domain.SyncStateSubmitted))
	require.NoError(t, ledger.SetSyncState("tx-1", domain.SyncStateConfirmed))

	// Terminal states never move.
	assert.Error(t, ledger.SetSyncState("tx-1", domain.SyncStateRejected))

	// Unknown transaction.
	assert.Error(t, ledger.SetSyncState("tx-404", domain.SyncStateSubmitted))

	// PENDING may jump straight to a terminal state (synced outcomes can
	// arrive before the submitted marker is applied).
	_, err = ledger.CommitDebit(testPayload("tx-2", 100), "raw-2", time.Now())
	require.NoError(t, err)
	assert.NoError(t, ledger.SetSyncState("tx-2", domain.SyncStateConfirmed))
}

func TestLocalLedger_PendingEntries(t *testing.T) {
	ledger := NewLocalLedger(testWallet(1000, 5000))
	for _, tx := range []string{"tx-1", "tx-2", "tx-3"} {
		_, err := ledger.CommitDebit(testPayload(tx, 100), "raw-"+tx, time.Now())
		require.NoError(t, err)
	}

	require.NoError(t, ledger.SetSyncState("tx-1", domain.SyncStateSubmitted))
	require.NoError(t, ledger.SetSyncState("tx-1", domain.SyncStateConfirmed))
	require.NoError(t, ledger.SetSyncState("tx-2", domain.SyncStateSubmitted))

	pending := ledger.PendingEntries()
	require.Len(t, pending, 2)
	assert.Equal(t, "tx-2", pending[0].TxID)
	assert.Equal(t, "tx-3", pending[1].TxID)
}

func TestLocalLedger_EntriesReturnsCopy(t *testing.T) {
	ledger := NewLocalLedger(testWallet(1000, 5000))
	_, err := ledger.CommitDebit(testPayload("tx-1", 100), "raw-1", time.Now())
	require.NoError(t, err)

	entries := ledger.Entries()
	entries[0].SyncState = domain.SyncStateConfirmed

	assert.Equal(t, domain.SyncStatePending, ledger.Entries()[0].SyncState)
}
