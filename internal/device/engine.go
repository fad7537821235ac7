package device

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"offline-pay/internal/core/domain"
	"offline-pay/internal/core/ports"
	"offline-pay/internal/wire"
	"offline-pay/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Nonce lengths in random bytes. Transaction nonces are long-lived
// authoritative keys; identity nonces only live for one scan.
const (
	txNonceBytes       = 32
	identityNonceBytes = 8
)

// EngineConfig carries the protocol parameters a device is provisioned with.
type EngineConfig struct {
	// DeviceID identifies this device in identity payloads and sync batches.
	DeviceID string
	// DisplayName is shown to the counterparty during the exchange.
	DisplayName string
	// FreshnessWindow is W; zero means the 2-minute default.
	FreshnessWindow time.Duration
	// MaxTxnAmount caps a single transaction regardless of headroom.
	MaxTxnAmount int64
}

// Engine drives the transaction state machine on one device, for both roles.
// Payer: Draft -> Sign -> local commit. Payee: issue identity -> accept scan
// -> local commit. Every step passes the decoded payload as an explicit value
// to the next; nothing is parked in shared state between steps.
type Engine struct {
	cfg      EngineConfig
	ledger   *LocalLedger
	signer   ports.Signer
	verifier ports.Verifier
	registry ports.KeyRegistry
	replay   *ReplayGuard
	clock    ports.Clock
	log      zerolog.Logger
}

// NewEngine creates an engine for the device owning the given ledger. The
// signer is the device key-custody capability; the registry resolves
// counterparty public keys obtained out of band.
func NewEngine(
	cfg EngineConfig,
	ledger *LocalLedger,
	signer ports.Signer,
	verifier ports.Verifier,
	registry ports.KeyRegistry,
	clock ports.Clock,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		cfg:      cfg,
		ledger:   ledger,
		signer:   signer,
		verifier: verifier,
		registry: registry,
		replay:   NewReplayGuard(cfg.FreshnessWindow, clock),
		clock:    clock,
		log:      log,
	}
}

// Draft is a validated but unsigned payment intent. It exists only between
// amount entry and signing; a failed draft leaves no trace in the ledger.
type Draft struct {
	payee  domain.PayeeIdentity
	amount int64
	note   string
}

// Payment is the result of the payer-side commit: the signed payload, its
// QR-transportable encoding, the receipt handed to the payee, and the SENT
// ledger entry.
type Payment struct {
	Payload domain.TransactionPayload
	Encoded string
	Receipt domain.Receipt
	Entry   domain.LocalLedgerEntry
}

// Acceptance is the result of the payee-side commit.
type Acceptance struct {
	Payload domain.TransactionPayload
	Receipt domain.Receipt
	Entry   domain.LocalLedgerEntry
}

// NewDraft validates a payment intent against the scanned payee identity:
// 0 < amount <= min(payer balance, advertised limit).
func (e *Engine) NewDraft(payee domain.PayeeIdentity, amount int64, note string) (*Draft, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if payee.PayeeID == e.ledger.Wallet().ID.String() {
		return nil, apperror.ErrSelfPayment()
	}
	if payee.AdvertisedLimit > 0 && amount > payee.AdvertisedLimit {
		return nil, apperror.ErrLimitExceeded()
	}
	if e.cfg.MaxTxnAmount > 0 && amount > e.cfg.MaxTxnAmount {
		return nil, apperror.ErrLimitExceeded()
	}
	if amount > e.ledger.Balance() {
		return nil, apperror.ErrInsufficientFunds()
	}
	return &Draft{payee: payee, amount: amount, note: note}, nil
}

// SignAndCommit moves a draft through SIGNED into LOCAL_COMMITTED: assign
// txId/nonce/timestamp, sign the canonical bytes, then atomically apply the
// provisional debit and append the SENT entry. The debit happens now, not at
// sync time, so a second concurrent draft cannot overspend.
func (e *Engine) SignAndCommit(draft *Draft) (*Payment, error) {
	wallet := e.ledger.Wallet()

	nonce, err := newNonce(txNonceBytes)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate nonce: %w", err))
	}

	payload := domain.TransactionPayload{
		TxID:      uuid.NewString(),
		PayerID:   wallet.ID.String(),
		PayeeID:   draft.payee.PayeeID,
		Amount:    draft.amount,
		Currency:  wallet.Currency,
		Timestamp: e.clock.Now().UnixMilli(),
		Nonce:     nonce,
		PayerName: e.cfg.DisplayName,
		Note:      draft.note,
	}

	canonical, err := wire.Canonicalize(payload)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	payload.Signature, err = e.signer.Sign(canonical)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("sign payload: %w", err))
	}

	encoded, err := wire.EncodeTransactionPayload(payload)
	if err != nil {
		return nil, err
	}
	receipt, err := wire.BuildReceipt(payload)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	entry, err := e.ledger.CommitDebit(payload, encoded, e.clock.Now())
	if err != nil {
		// TxID was generated above, so a duplicate here is a broken ledger,
		// not user error.
		if errors.Is(err, ErrDuplicateTx) {
			return nil, apperror.InternalError(err)
		}
		return nil, apperror.ErrInsufficientFunds()
	}

	e.log.Info().
		Str("tx_id", payload.TxID).
		Str("payee_id", payload.PayeeID).
		Int64("amount", payload.Amount).
		Msg("payment signed and committed locally")

	return &Payment{
		Payload: payload,
		Encoded: encoded,
		Receipt: receipt,
		Entry:   entry,
	}, nil
}

// IssueIdentity produces the payee's step-1 QR payload. The advertised limit
// is min(per-transaction cap, remaining ceiling headroom); a wallet at its
// ceiling refuses to issue at all.
func (e *Engine) IssueIdentity() (domain.PayeeIdentity, string, error) {
	wallet := e.ledger.Wallet()
	if wallet.AtCeiling() {
		return domain.PayeeIdentity{}, "", apperror.ErrCeilingReached()
	}

	limit := wallet.Headroom()
	if e.cfg.MaxTxnAmount > 0 && e.cfg.MaxTxnAmount < limit {
		limit = e.cfg.MaxTxnAmount
	}

	nonce, err := newNonce(identityNonceBytes)
	if err != nil {
		return domain.PayeeIdentity{}, "", apperror.InternalError(fmt.Errorf("generate nonce: %w", err))
	}

	identity := domain.PayeeIdentity{
		PayeeID:         wallet.ID.String(),
		DisplayName:     e.cfg.DisplayName,
		DeviceID:        e.cfg.DeviceID,
		Nonce:           nonce,
		AdvertisedLimit: limit,
		IssuedAt:        e.clock.Now().UnixMilli(),
	}
	encoded, err := wire.EncodePayeeIdentity(identity)
	if err != nil {
		return domain.PayeeIdentity{}, "", err
	}
	return identity, encoded, nil
}

// AcceptPayment runs the payee-side SCANNED -> VALIDATED -> LOCAL_COMMITTED
// path on a scanned transaction payload: decode, replay guard, identity
// match, signature verification, then the provisional credit. Any failure
// rejects the payload with its specific error kind and persists nothing.
func (e *Engine) AcceptPayment(ctx context.Context, encodedPayload string) (*Acceptance, error) {
	payload, err := wire.DecodeTransactionPayload(encodedPayload)
	if err != nil {
		return nil, err
	}

	if err := e.replay.Check(payload.Nonce, payload.Timestamp); err != nil {
		return nil, err
	}

	wallet := e.ledger.Wallet()
	if payload.PayeeID != wallet.ID.String() {
		e.log.Warn().
			Str("tx_id", payload.TxID).
			Str("addressed_to", payload.PayeeID).
			Msg("payload addressed to a different payee, possible relay attack")
		return nil, apperror.ErrIdentityMismatch()
	}
	if payload.PayerID == wallet.ID.String() {
		return nil, apperror.ErrSelfPayment()
	}

	publicKey, err := e.registry.PublicKeyFor(ctx, payload.PayerID)
	if err != nil || publicKey == "" {
		return nil, apperror.ErrUnknownPublicKey()
	}
	canonical, err := wire.Canonicalize(payload)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if !e.verifier.Verify(canonical, payload.Signature, publicKey) {
		return nil, apperror.ErrSignatureInvalid()
	}

	entry, err := e.ledger.CommitCredit(payload, encodedPayload, e.clock.Now())
	if err != nil {
		// Same txId under a fresh nonce is still the same payment replayed.
		if errors.Is(err, ErrDuplicateTx) {
			return nil, apperror.ErrReplay()
		}
		return nil, apperror.ErrLimitExceeded()
	}

	receipt, err := wire.BuildReceipt(payload)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	e.log.Info().
		Str("tx_id", payload.TxID).
		Str("payer_id", payload.PayerID).
		Int64("amount", payload.Amount).
		Msg("payment validated and committed locally")

	return &Acceptance{
		Payload: payload,
		Receipt: receipt,
		Entry:   entry,
	}, nil
}

// Ledger exposes the device ledger for listing and sync.
func (e *Engine) Ledger() *LocalLedger {
	return e.ledger
}

func newNonce(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
