package service

import (
	"context"
	"testing"
	"time"

	"offline-pay/internal/core/domain"
	"offline-pay/internal/core/ports"
	"offline-pay/internal/core/ports/mocks"
	"offline-pay/internal/wire"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// mockTx satisfies pgx.Tx for transaction flow tests; only Commit and
// Rollback are ever called on it.
type mockTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (m *mockTx) Commit(ctx context.Context) error {
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	m.rolledBack = true
	return nil
}

var (
	payerWalletID = uuid.MustParse("3f9de1a2-0000-4000-8000-000000000001")
	payeeWalletID = uuid.MustParse("3f9de1a2-0000-4000-8000-000000000002")
)

type syncFixture struct {
	walletRepo   *mocks.MockWalletRepository
	nonceRepo    *mocks.MockNonceRepository
	ledgerRepo   *mocks.MockLedgerRepository
	registry     *mocks.MockKeyRegistry
	verifier     *mocks.MockVerifier
	nonceCache   *mocks.MockNonceCache
	outcomeCache *mocks.MockOutcomeCache
	transactor   *mocks.MockDBTransactor
	svc          *SyncServiceImpl
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &syncFixture{
		walletRepo:   mocks.NewMockWalletRepository(ctrl),
		nonceRepo:    mocks.NewMockNonceRepository(ctrl),
		ledgerRepo:   mocks.NewMockLedgerRepository(ctrl),
		registry:     mocks.NewMockKeyRegistry(ctrl),
		verifier:     mocks.NewMockVerifier(ctrl),
		nonceCache:   mocks.NewMockNonceCache(ctrl),
		outcomeCache: mocks.NewMockOutcomeCache(ctrl),
		transactor:   mocks.NewMockDBTransactor(ctrl),
	}

	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)).AnyTimes()

	f.svc = NewSyncService(
		f.walletRepo, f.nonceRepo, f.ledgerRepo,
		f.registry, f.verifier,
		f.nonceCache, f.outcomeCache,
		f.transactor, clock, zerolog.Nop(),
	)
	return f
}

func syncTuple(t *testing.T, amount int64) (ports.SubmissionTuple, domain.TransactionPayload) {
	t.Helper()
	payload := domain.TransactionPayload{
		TxID:      uuid.NewString(),
		PayerID:   payerWalletID.String(),
		PayeeID:   payeeWalletID.String(),
		Amount:    amount,
		Currency:  "VND",
		Timestamp: time.Date(2026, 3, 1, 11, 59, 0, 0, time.UTC).UnixMilli(),
		Nonce:     "a1b2" + uuid.NewString(),
		PayerName: "Alice",
		Signature: "c2lnbmF0dXJl",
	}
	encoded, err := wire.EncodeTransactionPayload(payload)
	require.NoError(t, err)
	receipt, err := wire.BuildReceipt(payload)
	require.NoError(t, err)
	return ports.SubmissionTuple{EncodedPayload: encoded, Receipt: receipt}, payload
}

func syncPayer(balance int64) *domain.Wallet {
	return &domain.Wallet{
		ID:       payerWalletID,
		Kind:     domain.WalletKindPrimary,
		Balance:  balance,
		Currency: "VND",
		Active:   true,
	}
}

func syncPayee(balance, ceiling int64) *domain.Wallet {
	return &domain.Wallet{
		ID:           payeeWalletID,
		Kind:         domain.WalletKindOffline,
		Balance:      balance,
		Currency:     "VND",
		SpendCeiling: ceiling,
		Active:       true,
	}
}

// expectColdCaches sets up the no-prior-knowledge path: no cached outcome and
// a previously unseen nonce.
func (f *syncFixture) expectColdCaches(nonce string) {
	f.outcomeCache.EXPECT().Get(gomock.Any(), nonce).Return(nil, nil)
	f.nonceCache.EXPECT().CheckAndSet(gomock.Any(), "sync", nonce, gomock.Any()).Return(true, nil)
}

func (f *syncFixture) expectVerified(payload domain.TransactionPayload) {
	f.registry.EXPECT().PublicKeyFor(gomock.Any(), payload.PayerID).Return("pub-pem", nil)
	f.verifier.EXPECT().Verify(gomock.Any(), payload.Signature, "pub-pem").Return(true)
}

func TestSyncService_Reconcile_Applied(t *testing.T) {
	f := newSyncFixture(t)
	tuple, payload := syncTuple(t, 400)
	tx := &mockTx{}

	f.expectColdCaches(payload.Nonce)
	f.expectVerified(payload)

	f.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	f.nonceRepo.EXPECT().InsertIfAbsent(gomock.Any(), tx, payload.Nonce, payload.TxID).Return(true, nil)
	f.walletRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, payerWalletID).Return(syncPayer(100000), nil)
	f.walletRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, payeeWalletID).Return(syncPayee(4600, 5000), nil)
	f.walletRepo.EXPECT().UpdateBalance(gomock.Any(), tx, payerWalletID, int64(100000-400)).Return(nil)
	f.walletRepo.EXPECT().UpdateBalance(gomock.Any(), tx, payeeWalletID, int64(5000)).Return(nil)

	var saved *domain.LedgerRecord
	f.ledgerRepo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, rec *domain.LedgerRecord) error {
			saved = rec
			return nil
		})
	f.outcomeCache.EXPECT().Set(gomock.Any(), payload.Nonce, gomock.Any(), gomock.Any()).Return(nil)

	results, err := f.svc.Reconcile(context.Background(), "dev-1", []ports.SubmissionTuple{tuple})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, domain.SyncOutcomeApplied, results[0].Outcome)
	assert.Equal(t, payload.TxID, results[0].TxID)
	assert.True(t, tx.committed)

	require.NotNil(t, saved)
	assert.Equal(t, domain.SyncOutcomeApplied, saved.Outcome)
	assert.Equal(t, payerWalletID, saved.PayerWalletID)
	assert.Equal(t, payeeWalletID, saved.PayeeWalletID)
	assert.Equal(t, tuple.Receipt.ContentHash, saved.ReceiptHash)
	assert.Equal(t, "dev-1", saved.DeviceID)
}

func TestSyncService_Reconcile_MalformedTuple(t *testing.T) {
	f := newSyncFixture(t)

	tuple := ports.SubmissionTuple{
		EncodedPayload: "%%% not base64 %%%",
		Receipt: domain.Receipt{
			Payload: domain.TransactionPayload{TxID: "tx-1", Nonce: "n-1"},
		},
	}

	// The rejection stays explainable later: an audit record is written from
	// the receipt's identifiers even though the payload never decoded.
	var audit *domain.LedgerRecord
	f.ledgerRepo.EXPECT().CreateStandalone(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec *domain.LedgerRecord) error {
			audit = rec
			return nil
		})

	results, err := f.svc.Reconcile(context.Background(), "dev-1", []ports.SubmissionTuple{tuple})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, domain.SyncOutcomeRejected, results[0].Outcome)
	assert.Equal(t, reasonMalformed, results[0].Reason)
	assert.Equal(t, "tx-1", results[0].TxID)

	require.NotNil(t, audit)
	assert.Equal(t, "tx-1", audit.TxID)
	assert.Equal(t, "n-1", audit.Nonce)
	assert.Equal(t, domain.SyncOutcomeRejected, audit.Outcome)
	assert.Equal(t, reasonMalformed, audit.Reason)
}

func TestSyncService_Reconcile_MalformedTupleWithoutIdentifiers(t *testing.T) {
	// With nothing usable in the receipt there is no identifier to audit
	// against; the tuple is rejected without a record.
	f := newSyncFixture(t)

	tuple := ports.SubmissionTuple{EncodedPayload: "%%% not base64 %%%"}

	results, err := f.svc.Reconcile(context.Background(), "dev-1", []ports.SubmissionTuple{tuple})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, domain.SyncOutcomeRejected, results[0].Outcome)
	assert.Equal(t, reasonMalformed, results[0].Reason)
	assert.Empty(t, results[0].TxID)
}

func TestSyncService_Reconcile_CachedOutcome(t *testing.T) {
	f := newSyncFixture(t)
	tuple, payload := syncTuple(t, 400)

	f.outcomeCache.EXPECT().Get(gomock.Any(), payload.Nonce).Return(&domain.SyncResult{
		TxID:    payload.TxID,
		Nonce:   payload.Nonce,
		Outcome: domain.SyncOutcomeApplied,
	}, nil)

	results, err := f.svc.Reconcile(context.Background(), "dev-1", []ports.SubmissionTuple{tuple})
	require.NoError(t, err)
	require.Len(t, results, 1)

	// The earlier submission applied it; a resubmission is a DUPLICATE
	// success, not a second application.
	assert.Equal(t, domain.SyncOutcomeDuplicate, results[0].Outcome)
}

func TestSyncService_Reconcile_CachedRejectionRepeats(t *testing.T) {
	f := newSyncFixture(t)
	tuple, payload := syncTuple(t, 400)

	f.outcomeCache.EXPECT().Get(gomock.Any(), payload.Nonce).Return(&domain.SyncResult{
		TxID:    payload.TxID,
		Nonce:   payload.Nonce,
		Outcome: domain.SyncOutcomeRejected,
		Reason:  reasonInsufficient,
	}, nil)

	results, err := f.svc.Reconcile(context.Background(), "dev-1", []ports.SubmissionTuple{tuple})
	require.NoError(t, err)

	assert.Equal(t, domain.SyncOutcomeRejected, results[0].Outcome)
	assert.Equal(t, reasonInsufficient, results[0].Reason)
}

func TestSyncService_Reconcile_SeenNonceWithAppliedRecord(t *testing.T) {
	f := newSyncFixture(t)
	tuple, payload := syncTuple(t, 400)

	f.outcomeCache.EXPECT().Get(gomock.Any(), payload.Nonce).Return(nil, nil)
	f.nonceCache.EXPECT().CheckAndSet(gomock.Any(), "sync", payload.Nonce, gomock.Any()).Return(false, nil)
	f.ledgerRepo.EXPECT().GetByNonce(gomock.Any(), payload.Nonce).Return(&domain.LedgerRecord{
		TxID:    payload.TxID,
		Nonce:   payload.Nonce,
		Outcome: domain.SyncOutcomeApplied,
	}, nil)

	results, err := f.svc.Reconcile(context.Background(), "dev-1", []ports.SubmissionTuple{tuple})
	require.NoError(t, err)

	assert.Equal(t, domain.SyncOutcomeDuplicate, results[0].Outcome)
}

func TestSyncService_Reconcile_SeenNonceWithAuditRecordStillApplies(t *testing.T) {
	// A forged copy of this nonce was rejected earlier (standalone audit
	// record, nonce not burned). The legitimate tuple must still reach the
	// database and apply.
	f := newSyncFixture(t)
	tuple, payload := syncTuple(t, 400)
	tx := &mockTx{}

	f.outcomeCache.EXPECT().Get(gomock.Any(), payload.Nonce).Return(nil, nil)
	f.nonceCache.EXPECT().CheckAndSet(gomock.Any(), "sync", payload.Nonce, gomock.Any()).Return(false, nil)
	f.ledgerRepo.EXPECT().GetByNonce(gomock.Any(), payload.Nonce).Return(&domain.LedgerRecord{
		TxID:    payload.TxID,
		Nonce:   payload.Nonce,
		Outcome: domain.SyncOutcomeRejected,
		Reason:  reasonBadSignature,
	}, nil)

	f.expectVerified(payload)
	f.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	f.nonceRepo.EXPECT().InsertIfAbsent(gomock.Any(), tx, payload.Nonce, payload.TxID).Return(true, nil)
	f.walletRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, payerWalletID).Return(syncPayer(100000), nil)
	f.walletRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, payeeWalletID).Return(syncPayee(4600, 5000), nil)
	f.walletRepo.EXPECT().UpdateBalance(gomock.Any(), tx, gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.ledgerRepo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(nil)
	f.outcomeCache.EXPECT().Set(gomock.Any(), payload.Nonce, gomock.Any(), gomock.Any()).Return(nil)

	results, err := f.svc.Reconcile(context.Background(), "dev-1", []ports.SubmissionTuple{tuple})
	require.NoError(t, err)

	assert.Equal(t, domain.SyncOutcomeApplied, results[0].Outcome)
	assert.True(t, tx.committed)
}

func TestSyncService_Reconcile_UnknownPayerKey(t *testing.T) {
	f := newSyncFixture(t)
	tuple, payload := syncTuple(t, 400)

	f.expectColdCaches(payload.Nonce)
	f.registry.EXPECT().PublicKeyFor(gomock.Any(), payload.PayerID).Return("", nil)

	var audit *domain.LedgerRecord
	f.ledgerRepo.EXPECT().CreateStandalone(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec *domain.LedgerRecord) error {
			audit = rec
			return nil
		})

	results, err := f.svc.Reconcile(context.Background(), "dev-1", []ports.SubmissionTuple{tuple})
	require.NoError(t, err)

	assert.Equal(t, domain.SyncOutcomeRejected, results[0].Outcome)
	assert.Equal(t, reasonUnknownPayer, results[0].Reason)
	require.NotNil(t, audit)
	assert.Equal(t, domain.SyncOutcomeRejected, audit.Outcome)
}

func TestSyncService_Reconcile_BadSignature(t *testing.T) {
	f := newSyncFixture(t)
	tuple, payload := syncTuple(t, 400)

	f.expectColdCaches(payload.Nonce)
	f.registry.EXPECT().PublicKeyFor(gomock.Any(), payload.PayerID).Return("pub-pem", nil)
	f.verifier.EXPECT().Verify(gomock.Any(), payload.Signature, "pub-pem").Return(false)
	f.ledgerRepo.EXPECT().CreateStandalone(gomock.Any(), gomock.Any()).Return(nil)

	results, err := f.svc.Reconcile(context.Background(), "dev-1", []ports.SubmissionTuple{tuple})
	require.NoError(t, err)

	// Rejected without touching the database transaction: the nonce is not
	// burned by a forgery.
	assert.Equal(t, domain.SyncOutcomeRejected, results[0].Outcome)
	assert.Equal(t, reasonBadSignature, results[0].Reason)
}

func TestSyncService_Reconcile_ReceiptHashMismatch(t *testing.T) {
	f := newSyncFixture(t)
	tuple, payload := syncTuple(t, 400)
	tuple.Receipt.ContentHash = "0000000000000000000000000000000000000000000000000000000000000000"

	f.expectColdCaches(payload.Nonce)
	f.expectVerified(payload)
	f.ledgerRepo.EXPECT().CreateStandalone(gomock.Any(), gomock.Any()).Return(nil)

	results, err := f.svc.Reconcile(context.Background(), "dev-1", []ports.SubmissionTuple{tuple})
	require.NoError(t, err)

	assert.Equal(t, domain.SyncOutcomeRejected, results[0].Outcome)
	assert.Equal(t, reasonReceiptHash, results[0].Reason)
}

func TestSyncService_Reconcile_NonceAlreadyInDatabase(t *testing.T) {
	f := newSyncFixture(t)
	tuple, payload := syncTuple(t, 400)
	tx := &mockTx{}

	f.expectColdCaches(payload.Nonce)
	f.expectVerified(payload)
	f.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	f.nonceRepo.EXPECT().InsertIfAbsent(gomock.Any(), tx, payload.Nonce, payload.TxID).Return(false, nil)
	f.ledgerRepo.EXPECT().GetByNonce(gomock.Any(), payload.Nonce).Return(&domain.LedgerRecord{
		TxID:    payload.TxID,
		Nonce:   payload.Nonce,
		Outcome: domain.SyncOutcomeApplied,
	}, nil)
	f.outcomeCache.EXPECT().Set(gomock.Any(), payload.Nonce, gomock.Any(), gomock.Any()).Return(nil)

	results, err := f.svc.Reconcile(context.Background(), "dev-1", []ports.SubmissionTuple{tuple})
	require.NoError(t, err)

	assert.Equal(t, domain.SyncOutcomeDuplicate, results[0].Outcome)
	assert.False(t, tx.committed)
}

func TestSyncService_Reconcile_Conflicts(t *testing.T) {
	tests := []struct {
		name       string
		payer      *domain.Wallet
		payee      *domain.Wallet
		wantReason string
	}{
		{
			name:       "insufficient balance",
			payer:      syncPayer(100),
			payee:      syncPayee(0, 5000),
			wantReason: reasonInsufficient,
		},
		{
			name:       "payee over ceiling",
			payer:      syncPayer(100000),
			payee:      syncPayee(4800, 5000),
			wantReason: reasonCeiling,
		},
		{
			name: "payer deactivated",
			payer: func() *domain.Wallet {
				w := syncPayer(100000)
				w.Active = false
				return w
			}(),
			payee:      syncPayee(0, 5000),
			wantReason: reasonInactiveWallet,
		},
		{
			name:  "currency mismatch",
			payer: syncPayer(100000),
			payee: func() *domain.Wallet {
				w := syncPayee(0, 5000)
				w.Currency = "USD"
				return w
			}(),
			wantReason: reasonCurrency,
		},
		{
			name:       "unknown payee wallet",
			payer:      syncPayer(100000),
			payee:      nil,
			wantReason: reasonUnknownWallet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSyncFixture(t)
			tuple, payload := syncTuple(t, 400)
			tx := &mockTx{}

			f.expectColdCaches(payload.Nonce)
			f.expectVerified(payload)
			f.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
			f.nonceRepo.EXPECT().InsertIfAbsent(gomock.Any(), tx, payload.Nonce, payload.TxID).Return(true, nil)
			f.walletRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, payerWalletID).Return(tt.payer, nil)
			f.walletRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, payeeWalletID).Return(tt.payee, nil)

			// The rejection record lands in the same transaction: the nonce
			// stays burned so resubmission reports the same outcome.
			var saved *domain.LedgerRecord
			f.ledgerRepo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).
				DoAndReturn(func(_ context.Context, _ pgx.Tx, rec *domain.LedgerRecord) error {
					saved = rec
					return nil
				})
			f.outcomeCache.EXPECT().Set(gomock.Any(), payload.Nonce, gomock.Any(), gomock.Any()).Return(nil)

			results, err := f.svc.Reconcile(context.Background(), "dev-1", []ports.SubmissionTuple{tuple})
			require.NoError(t, err)

			assert.Equal(t, domain.SyncOutcomeRejected, results[0].Outcome)
			assert.Equal(t, tt.wantReason, results[0].Reason)
			assert.True(t, tx.committed)
			require.NotNil(t, saved)
			assert.Equal(t, tt.wantReason, saved.Reason)
		})
	}
}

func TestSyncService_Reconcile_SelfPaymentRejected(t *testing.T) {
	// A wallet paying itself carries a valid self-signature and a fresh
	// nonce. Applying it would write the credit over the debit and mint
	// +amount out of nothing, so it must reject with no balance writes.
	f := newSyncFixture(t)
	tx := &mockTx{}

	payload := domain.TransactionPayload{
		TxID:      uuid.NewString(),
		PayerID:   payerWalletID.String(),
		PayeeID:   payerWalletID.String(),
		Amount:    400,
		Currency:  "VND",
		Timestamp: time.Date(2026, 3, 1, 11, 59, 0, 0, time.UTC).UnixMilli(),
		Nonce:     "self" + uuid.NewString(),
		PayerName: "Alice",
		Signature: "c2lnbmF0dXJl",
	}
	encoded, err := wire.EncodeTransactionPayload(payload)
	require.NoError(t, err)
	receipt, err := wire.BuildReceipt(payload)
	require.NoError(t, err)
	tuple := ports.SubmissionTuple{EncodedPayload: encoded, Receipt: receipt}

	f.expectColdCaches(payload.Nonce)
	f.expectVerified(payload)
	f.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	f.nonceRepo.EXPECT().InsertIfAbsent(gomock.Any(), tx, payload.Nonce, payload.TxID).Return(true, nil)

	// Both lock reads hit the same row. No UpdateBalance expectation: any
	// balance write fails the test.
	f.walletRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, payerWalletID).
		DoAndReturn(func(context.Context, pgx.Tx, uuid.UUID) (*domain.Wallet, error) {
			return syncPayer(1000), nil
		}).Times(2)

	var saved *domain.LedgerRecord
	f.ledgerRepo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, rec *domain.LedgerRecord) error {
			saved = rec
			return nil
		})
	f.outcomeCache.EXPECT().Set(gomock.Any(), payload.Nonce, gomock.Any(), gomock.Any()).Return(nil)

	results, err := f.svc.Reconcile(context.Background(), "dev-1", []ports.SubmissionTuple{tuple})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, domain.SyncOutcomeRejected, results[0].Outcome)
	assert.Equal(t, reasonSelfPayment, results[0].Reason)
	assert.True(t, tx.committed)
	require.NotNil(t, saved)
	assert.Equal(t, reasonSelfPayment, saved.Reason)
}

func TestSyncService_Reconcile_MixedBatch(t *testing.T) {
	// One bad tuple never aborts the batch; every tuple gets its own result.
	f := newSyncFixture(t)
	good, payload := syncTuple(t, 400)
	bad := ports.SubmissionTuple{EncodedPayload: "garbage"}
	tx := &mockTx{}

	f.expectColdCaches(payload.Nonce)
	f.expectVerified(payload)
	f.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	f.nonceRepo.EXPECT().InsertIfAbsent(gomock.Any(), tx, payload.Nonce, payload.TxID).Return(true, nil)
	f.walletRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, payerWalletID).Return(syncPayer(100000), nil)
	f.walletRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, payeeWalletID).Return(syncPayee(0, 5000), nil)
	f.walletRepo.EXPECT().UpdateBalance(gomock.Any(), tx, gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.ledgerRepo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(nil)
	f.outcomeCache.EXPECT().Set(gomock.Any(), payload.Nonce, gomock.Any(), gomock.Any()).Return(nil)

	results, err := f.svc.Reconcile(context.Background(), "dev-1", []ports.SubmissionTuple{bad, good})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, domain.SyncOutcomeRejected, results[0].Outcome)
	assert.Equal(t, domain.SyncOutcomeApplied, results[1].Outcome)
}
