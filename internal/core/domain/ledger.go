package domain

import "time"

// Direction is a closed enumeration of the two sides a device can hold of the
// same logical transaction.
type Direction string

const (
	DirectionSent     Direction = "SENT"
	DirectionReceived Direction = "RECEIVED"
)

// SyncState is the reconciliation lifecycle of a local ledger entry.
type SyncState string

const (
	SyncStatePending   SyncState = "PENDING"
	SyncStateSubmitted SyncState = "SUBMITTED"
	SyncStateConfirmed SyncState = "CONFIRMED"
	SyncStateRejected  SyncState = "REJECTED"
)

// ValidSyncTransition reports whether a sync state change is allowed. Entries
// only ever move forward; CONFIRMED and REJECTED are terminal.
func ValidSyncTransition(from, to SyncState) bool {
	switch from {
	case SyncStatePending:
		return to == SyncStateSubmitted || to == SyncStateConfirmed || to == SyncStateRejected
	case SyncStateSubmitted:
		return to == SyncStateConfirmed || to == SyncStateRejected
	default:
		return false
	}
}

// LocalLedgerEntry is one side's record of a committed transaction. Entries
// are append-only: nothing but SyncState ever changes, and entries are never
// deleted.
type LocalLedgerEntry struct {
	TxID           string    `json:"tx_id"`
	Direction      Direction `json:"direction"`
	CounterpartyID string    `json:"counterparty_id"`
	Amount         int64     `json:"amount"`
	Timestamp      int64     `json:"timestamp"` // epoch ms, from the payload
	RawPayload     string    `json:"raw_payload"`
	SyncState      SyncState `json:"sync_state"`
	CommittedAt    time.Time `json:"committed_at"`
}
