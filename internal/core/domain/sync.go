package domain

import (
	"time"

	"github.com/google/uuid"
)

// SyncOutcome is the per-tuple result of reconciliation.
type SyncOutcome string

const (
	SyncOutcomeApplied   SyncOutcome = "APPLIED"
	SyncOutcomeDuplicate SyncOutcome = "DUPLICATE"
	SyncOutcomeRejected  SyncOutcome = "REJECTED"
)

// SyncResult is reported back to the submitting device for each tuple so it
// can update the matching LocalLedgerEntry. Duplicates are successes: the
// transaction was already applied by an earlier sync.
type SyncResult struct {
	TxID    string      `json:"tx_id"`
	Nonce   string      `json:"nonce"`
	Outcome SyncOutcome `json:"outcome"`
	Reason  string      `json:"reason,omitempty"` // REJECTED only
}

// Accepted reports whether the device should mark its entry CONFIRMED.
func (r SyncResult) Accepted() bool {
	return r.Outcome == SyncOutcomeApplied || r.Outcome == SyncOutcomeDuplicate
}

// LedgerRecord is the authoritative transaction record, written exactly once
// per nonce when a tuple is applied, and written with a REJECTED status when a
// tuple fails reconciliation (the counterpart may hold a valid receipt that
// must be explainable later).
type LedgerRecord struct {
	ID            uuid.UUID   `json:"id"`
	TxID          string      `json:"tx_id"`
	Nonce         string      `json:"nonce"`
	PayerWalletID uuid.UUID   `json:"payer_wallet_id"`
	PayeeWalletID uuid.UUID   `json:"payee_wallet_id"`
	Amount        int64       `json:"amount"`
	Currency      string      `json:"currency"`
	Signature     string      `json:"signature"`
	ReceiptHash   string      `json:"receipt_hash"`
	Outcome       SyncOutcome `json:"outcome"`
	Reason        string      `json:"reason,omitempty"`
	DeviceID      string      `json:"device_id,omitempty"`
	CreatedAtDev  int64       `json:"created_at_device"` // payload timestamp, epoch ms
	SyncedAt      time.Time   `json:"synced_at"`
}
