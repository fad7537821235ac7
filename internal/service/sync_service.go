package service

import (
	"context"
	"fmt"
	"time"

	"offline-pay/internal/core/domain"
	"offline-pay/internal/core/ports"
	"offline-pay/internal/wire"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	outcomeTTL = 24 * time.Hour
	nonceTTL   = 24 * time.Hour

	reasonMalformed      = "malformed payload"
	reasonUnknownPayer   = "unknown payer public key"
	reasonBadSignature   = "invalid signature"
	reasonReceiptHash    = "receipt hash mismatch"
	reasonUnknownWallet  = "unknown wallet"
	reasonSelfPayment    = "self-payment"
	reasonInactiveWallet = "wallet deactivated"
	reasonCurrency       = "currency mismatch"
	reasonInsufficient   = "insufficient authoritative balance"
	reasonCeiling        = "payee spend ceiling exceeded"
)

// SyncServiceImpl implements ports.SyncService: it merges device-submitted
// tuples into the authoritative ledger, applying each at most once.
//
// Per tuple: re-verify the signature against the registered key (device-local
// validation is never trusted), then in one database transaction insert the
// nonce, move both balances and write the authoritative record. A nonce
// already present means an earlier sync applied the transaction; the tuple is
// reported as a DUPLICATE success. Rejections burn the nonce and persist an
// audit record, because the counterpart device may hold a valid receipt that
// must be explainable later.
type SyncServiceImpl struct {
	walletRepo   ports.WalletRepository
	nonceRepo    ports.NonceRepository
	ledgerRepo   ports.LedgerRepository
	registry     ports.KeyRegistry
	verifier     ports.Verifier
	nonceCache   ports.NonceCache
	outcomeCache ports.OutcomeCache
	transactor   ports.DBTransactor
	clock        ports.Clock
	log          zerolog.Logger
}

// NewSyncService creates a new SyncServiceImpl.
func NewSyncService(
	walletRepo ports.WalletRepository,
	nonceRepo ports.NonceRepository,
	ledgerRepo ports.LedgerRepository,
	registry ports.KeyRegistry,
	verifier ports.Verifier,
	nonceCache ports.NonceCache,
	outcomeCache ports.OutcomeCache,
	transactor ports.DBTransactor,
	clock ports.Clock,
	log zerolog.Logger,
) *SyncServiceImpl {
	return &SyncServiceImpl{
		walletRepo:   walletRepo,
		nonceRepo:    nonceRepo,
		ledgerRepo:   ledgerRepo,
		registry:     registry,
		verifier:     verifier,
		nonceCache:   nonceCache,
		outcomeCache: outcomeCache,
		transactor:   transactor,
		clock:        clock,
		log:          log,
	}
}

// Reconcile processes a batch. A failed tuple never aborts the batch; every
// tuple gets its own result so the device can update each ledger entry.
func (s *SyncServiceImpl) Reconcile(ctx context.Context, deviceID string, batch []ports.SubmissionTuple) ([]domain.SyncResult, error) {
	results := make([]domain.SyncResult, 0, len(batch))
	for _, tuple := range batch {
		results = append(results, s.reconcileOne(ctx, deviceID, tuple))
	}
	return results, nil
}

func (s *SyncServiceImpl) reconcileOne(ctx context.Context, deviceID string, tuple ports.SubmissionTuple) domain.SyncResult {
	payload, err := wire.DecodeTransactionPayload(tuple.EncodedPayload)
	if err != nil {
		// Nothing in the tuple can be trusted; report best-effort identifiers
		// from the receipt so the device can match the entry, and keep an
		// audit record when the receipt carries any. The counterpart device
		// may hold a receipt that must be explainable later.
		ref := tuple.Receipt.Payload
		if ref.TxID != "" || ref.Nonce != "" {
			rec := s.newRecord(deviceID, ref, tuple.Receipt, domain.SyncOutcomeRejected, reasonMalformed)
			if err := s.ledgerRepo.CreateStandalone(ctx, rec); err != nil {
				s.log.Error().Err(err).Str("tx_id", ref.TxID).Msg("failed to persist rejection audit record")
			}
		}
		return domain.SyncResult{
			TxID:    ref.TxID,
			Nonce:   ref.Nonce,
			Outcome: domain.SyncOutcomeRejected,
			Reason:  reasonMalformed,
		}
	}

	// Fast path: a cached outcome means this nonce was already resolved.
	if cached, err := s.outcomeCache.Get(ctx, payload.Nonce); err != nil {
		s.log.Warn().Err(err).Str("nonce", payload.Nonce).Msg("outcome cache read failed, falling through to db")
	} else if cached != nil {
		return asResubmission(*cached)
	}

	// Advisory edge check. A seen nonce without a cached outcome usually
	// means a concurrent submission; the database insert below is the
	// authoritative arbiter either way. Only an APPLIED record short-circuits
	// here; a standalone rejection audit (e.g. a forged copy of this nonce)
	// must not block the legitimate tuple from reaching the database.
	if isNew, err := s.nonceCache.CheckAndSet(ctx, "sync", payload.Nonce, nonceTTL); err != nil {
		s.log.Warn().Err(err).Msg("nonce cache error, continuing")
	} else if !isNew {
		if rec, err := s.ledgerRepo.GetByNonce(ctx, payload.Nonce); err == nil && rec != nil && rec.Outcome == domain.SyncOutcomeApplied {
			return resultFromRecord(payload, rec)
		}
	}

	if result, ok := s.verifyTuple(ctx, deviceID, payload, tuple.Receipt); !ok {
		return result
	}

	result, err := s.applyTuple(ctx, deviceID, payload, tuple.Receipt)
	if err != nil {
		s.log.Error().Err(err).Str("tx_id", payload.TxID).Msg("reconciliation failed")
		return domain.SyncResult{
			TxID:    payload.TxID,
			Nonce:   payload.Nonce,
			Outcome: domain.SyncOutcomeRejected,
			Reason:  "internal error",
		}
	}

	if err := s.outcomeCache.Set(ctx, payload.Nonce, result, outcomeTTL); err != nil {
		s.log.Warn().Err(err).Str("nonce", payload.Nonce).Msg("failed to cache sync outcome")
	}
	return result
}

// verifyTuple runs the trust checks that need no database transaction:
// registered-key signature verification and receipt hash consistency.
func (s *SyncServiceImpl) verifyTuple(ctx context.Context, deviceID string, payload domain.TransactionPayload, receipt domain.Receipt) (domain.SyncResult, bool) {
	publicKey, err := s.registry.PublicKeyFor(ctx, payload.PayerID)
	if err != nil || publicKey == "" {
		return s.rejectWithAudit(ctx, deviceID, payload, receipt, reasonUnknownPayer), false
	}

	canonical, err := wire.Canonicalize(payload)
	if err != nil {
		return s.rejectWithAudit(ctx, deviceID, payload, receipt, reasonMalformed), false
	}
	if !s.verifier.Verify(canonical, payload.Signature, publicKey) {
		s.log.Warn().
			Str("tx_id", payload.TxID).
			Str("payer_id", payload.PayerID).
			Str("device_id", deviceID).
			Msg("signature verification failed at reconciliation")
		return s.rejectWithAudit(ctx, deviceID, payload, receipt, reasonBadSignature), false
	}

	expectedHash, err := wire.HashPayload(payload)
	if err != nil || receipt.ContentHash != expectedHash {
		return s.rejectWithAudit(ctx, deviceID, payload, receipt, reasonReceiptHash), false
	}

	return domain.SyncResult{}, true
}

// applyTuple is the atomic unit: nonce insert, both balance moves and the
// authoritative record land in one serializable database transaction.
func (s *SyncServiceImpl) applyTuple(ctx context.Context, deviceID string, payload domain.TransactionPayload, receipt domain.Receipt) (domain.SyncResult, error) {
	payerID, err := uuid.Parse(payload.PayerID)
	if err != nil {
		return s.rejectWithAudit(ctx, deviceID, payload, receipt, reasonUnknownWallet), nil
	}
	payeeID, err := uuid.Parse(payload.PayeeID)
	if err != nil {
		return s.rejectWithAudit(ctx, deviceID, payload, receipt, reasonUnknownWallet), nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return domain.SyncResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	inserted, err := s.nonceRepo.InsertIfAbsent(ctx, dbTx, payload.Nonce, payload.TxID)
	if err != nil {
		return domain.SyncResult{}, fmt.Errorf("insert nonce: %w", err)
	}
	if !inserted {
		// Applied (or rejected) by an earlier sync. Report the recorded
		// outcome; an applied transaction resubmitted is a DUPLICATE success.
		if rec, err := s.ledgerRepo.GetByNonce(ctx, payload.Nonce); err == nil && rec != nil {
			return resultFromRecord(payload, rec), nil
		}
		return domain.SyncResult{
			TxID:    payload.TxID,
			Nonce:   payload.Nonce,
			Outcome: domain.SyncOutcomeDuplicate,
		}, nil
	}

	// Lock both wallets in deterministic order to avoid deadlocks between
	// concurrent batches touching the same pair.
	firstID, secondID := payerID, payeeID
	if secondID.String() < firstID.String() {
		firstID, secondID = secondID, firstID
	}
	first, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, firstID)
	if err != nil {
		return domain.SyncResult{}, fmt.Errorf("lock wallet: %w", err)
	}
	second, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, secondID)
	if err != nil {
		return domain.SyncResult{}, fmt.Errorf("lock wallet: %w", err)
	}

	payer, payee := first, second
	if payer != nil && payer.ID != payerID {
		payer, payee = second, first
	}

	if reason := checkWallets(payer, payee, payload); reason != "" {
		// Conflict: no balances move, but the nonce stays burned and the
		// rejection is recorded in the same transaction so resubmission
		// idempotently reports the same outcome (first-submission-wins).
		rec := s.newRecord(deviceID, payload, receipt, domain.SyncOutcomeRejected, reason)
		if err := s.ledgerRepo.Create(ctx, dbTx, rec); err != nil {
			return domain.SyncResult{}, fmt.Errorf("create rejection record: %w", err)
		}
		if err := dbTx.Commit(ctx); err != nil {
			return domain.SyncResult{}, fmt.Errorf("commit rejection: %w", err)
		}
		s.log.Warn().
			Str("tx_id", payload.TxID).
			Str("reason", reason).
			Msg("reconciliation conflict")
		return domain.SyncResult{
			TxID:    payload.TxID,
			Nonce:   payload.Nonce,
			Outcome: domain.SyncOutcomeRejected,
			Reason:  reason,
		}, nil
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, payer.ID, payer.Balance-payload.Amount); err != nil {
		return domain.SyncResult{}, fmt.Errorf("debit payer: %w", err)
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, payee.ID, payee.Balance+payload.Amount); err != nil {
		return domain.SyncResult{}, fmt.Errorf("credit payee: %w", err)
	}

	rec := s.newRecord(deviceID, payload, receipt, domain.SyncOutcomeApplied, "")
	if err := s.ledgerRepo.Create(ctx, dbTx, rec); err != nil {
		return domain.SyncResult{}, fmt.Errorf("create ledger record: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return domain.SyncResult{}, fmt.Errorf("commit tx: %w", err)
	}

	s.log.Info().
		Str("tx_id", payload.TxID).
		Str("payer", payload.PayerID).
		Str("payee", payload.PayeeID).
		Int64("amount", payload.Amount).
		Msg("transaction applied to authoritative ledger")

	return domain.SyncResult{
		TxID:    payload.TxID,
		Nonce:   payload.Nonce,
		Outcome: domain.SyncOutcomeApplied,
	}, nil
}

// rejectWithAudit records a pre-transaction rejection (signature, registry or
// receipt failures). These do not burn the nonce: a forged payload must not
// block a legitimate one carrying the same nonce.
func (s *SyncServiceImpl) rejectWithAudit(ctx context.Context, deviceID string, payload domain.TransactionPayload, receipt domain.Receipt, reason string) domain.SyncResult {
	rec := s.newRecord(deviceID, payload, receipt, domain.SyncOutcomeRejected, reason)
	if err := s.ledgerRepo.CreateStandalone(ctx, rec); err != nil {
		s.log.Error().Err(err).Str("tx_id", payload.TxID).Msg("failed to persist rejection audit record")
	}
	return domain.SyncResult{
		TxID:    payload.TxID,
		Nonce:   payload.Nonce,
		Outcome: domain.SyncOutcomeRejected,
		Reason:  reason,
	}
}

func (s *SyncServiceImpl) newRecord(deviceID string, payload domain.TransactionPayload, receipt domain.Receipt, outcome domain.SyncOutcome, reason string) *domain.LedgerRecord {
	rec := &domain.LedgerRecord{
		ID:           uuid.New(),
		TxID:         payload.TxID,
		Nonce:        payload.Nonce,
		Amount:       payload.Amount,
		Currency:     payload.Currency,
		Signature:    payload.Signature,
		ReceiptHash:  receipt.ContentHash,
		Outcome:      outcome,
		Reason:       reason,
		DeviceID:     deviceID,
		CreatedAtDev: payload.Timestamp,
		SyncedAt:     s.clock.Now().UTC(),
	}
	if id, err := uuid.Parse(payload.PayerID); err == nil {
		rec.PayerWalletID = id
	}
	if id, err := uuid.Parse(payload.PayeeID); err == nil {
		rec.PayeeWalletID = id
	}
	return rec
}

func checkWallets(payer, payee *domain.Wallet, payload domain.TransactionPayload) string {
	if payer == nil || payee == nil {
		return reasonUnknownWallet
	}
	// A self-addressed payload is validly signed, but applying it would write
	// the credit over the debit and net the wallet +amount.
	if payer.ID == payee.ID {
		return reasonSelfPayment
	}
	if !payer.Active || !payee.Active {
		return reasonInactiveWallet
	}
	if payer.Currency != payload.Currency || payee.Currency != payload.Currency {
		return reasonCurrency
	}
	if !payer.CanDebit(payload.Amount) {
		return reasonInsufficient
	}
	if !payee.CanCredit(payload.Amount) {
		return reasonCeiling
	}
	return ""
}

// asResubmission converts a cached first outcome into what a resubmission
// should see: APPLIED becomes DUPLICATE, rejections repeat verbatim.
func asResubmission(first domain.SyncResult) domain.SyncResult {
	if first.Outcome == domain.SyncOutcomeApplied {
		first.Outcome = domain.SyncOutcomeDuplicate
	}
	return first
}

func resultFromRecord(payload domain.TransactionPayload, rec *domain.LedgerRecord) domain.SyncResult {
	result := domain.SyncResult{
		TxID:  payload.TxID,
		Nonce: payload.Nonce,
	}
	if rec.Outcome == domain.SyncOutcomeRejected {
		result.Outcome = domain.SyncOutcomeRejected
		result.Reason = rec.Reason
	} else {
		result.Outcome = domain.SyncOutcomeDuplicate
	}
	return result
}
