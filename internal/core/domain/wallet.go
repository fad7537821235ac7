package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletKind distinguishes the online settlement wallet from the
// ceiling-limited offline wallet.
type WalletKind string

const (
	WalletKindPrimary WalletKind = "PRIMARY"
	WalletKindOffline WalletKind = "OFFLINE"
)

// Wallet holds a balance in integer minor currency units. OFFLINE wallets
// carry a spend ceiling (the maximum balance they may ever hold) and the
// owner's registered signing public key.
type Wallet struct {
	ID           uuid.UUID  `json:"id"`
	OwnerID      uuid.UUID  `json:"owner_id"`
	Kind         WalletKind `json:"kind"`
	Balance      int64      `json:"balance"`
	Currency     string     `json:"currency"`
	SpendCeiling int64      `json:"spend_ceiling,omitempty"` // OFFLINE only
	PublicKeyPEM string     `json:"public_key,omitempty"`    // OFFLINE only, registry copy
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Headroom returns how much an OFFLINE wallet can still receive before
// hitting its spend ceiling. PRIMARY wallets have no ceiling.
func (w *Wallet) Headroom() int64 {
	if w.Kind != WalletKindOffline {
		return 0
	}
	h := w.SpendCeiling - w.Balance
	if h < 0 {
		return 0
	}
	return h
}

// AtCeiling reports whether an OFFLINE wallet can no longer receive funds.
func (w *Wallet) AtCeiling() bool {
	return w.Kind == WalletKindOffline && w.Balance >= w.SpendCeiling
}

// CanDebit reports whether amount can be debited without the balance going
// negative.
func (w *Wallet) CanDebit(amount int64) bool {
	return amount > 0 && w.Balance >= amount
}

// CanCredit reports whether amount can be credited without an OFFLINE wallet
// exceeding its spend ceiling. Over-ceiling credits are rejected, never
// clamped.
func (w *Wallet) CanCredit(amount int64) bool {
	if amount <= 0 {
		return false
	}
	if w.Kind == WalletKindOffline {
		return w.Balance+amount <= w.SpendCeiling
	}
	return true
}

// Transfer records a preload movement between a user's own wallets
// (PRIMARY -> OFFLINE to load spendable offline funds, or back).
type Transfer struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	FromWalletID uuid.UUID `json:"from_wallet_id"`
	ToWalletID   uuid.UUID `json:"to_wallet_id"`
	Amount       int64     `json:"amount"`
	Currency     string    `json:"currency"`
	Reference    string    `json:"reference"`
	CreatedAt    time.Time `json:"created_at"`
}
