package dto

import (
	"offline-pay/internal/core/domain"
	"offline-pay/internal/core/ports"
)

// ProvisionWalletRequest is the request body for wallet provisioning.
type ProvisionWalletRequest struct {
	Kind         string `json:"kind" binding:"required,oneof=PRIMARY OFFLINE"`
	Currency     string `json:"currency" binding:"required,currency_code"`
	SpendCeiling int64  `json:"spend_ceiling,omitempty"`
	Passphrase   string `json:"passphrase,omitempty"`
}

// PreloadRequest is the request body for moving funds between a user's own
// wallets.
type PreloadRequest struct {
	FromWalletID string `json:"from_wallet_id" binding:"required,uuid"`
	ToWalletID   string `json:"to_wallet_id" binding:"required,uuid"`
	Amount       int64  `json:"amount" binding:"required,gt=0"`
	Reference    string `json:"reference,omitempty" binding:"max=100"`
}

// SyncRequest is the request body for batch reconciliation. Each tuple
// carries the transport-encoded signed payload plus the payee's receipt.
type SyncRequest struct {
	Batch []ports.SubmissionTuple `json:"batch" binding:"required,min=1"`
}

// VerifyReceiptRequest is the request body for offline receipt verification.
// The payer public key is optional; when absent it is resolved from the
// registry using the receipt's payer wallet ID.
type VerifyReceiptRequest struct {
	Receipt           domain.Receipt `json:"receipt" binding:"required"`
	PayerPublicKeyPEM string         `json:"payer_public_key,omitempty"`
}

// WalletResponse is the response body for wallet reads.
type WalletResponse struct {
	ID           string `json:"id"`
	OwnerID      string `json:"owner_id"`
	Kind         string `json:"kind"`
	Balance      int64  `json:"balance"`
	Currency     string `json:"currency"`
	SpendCeiling int64  `json:"spend_ceiling,omitempty"`
	PublicKeyPEM string `json:"public_key,omitempty"`
	Active       bool   `json:"active"`
	CreatedAt    string `json:"created_at"`
}

// ProvisionWalletResponse returns the created wallet plus, for OFFLINE
// wallets, the sealed private key blob the device stores locally.
type ProvisionWalletResponse struct {
	Wallet           WalletResponse `json:"wallet"`
	SealedPrivateKey string         `json:"sealed_private_key,omitempty"`
}

// TransferResponse is the response body for preload transfers.
type TransferResponse struct {
	ID           string `json:"id"`
	FromWalletID string `json:"from_wallet_id"`
	ToWalletID   string `json:"to_wallet_id"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Reference    string `json:"reference,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// SyncResponse wraps per-tuple reconciliation results, in batch order.
type SyncResponse struct {
	Results []domain.SyncResult `json:"results"`
}

// LedgerRecordResponse is one authoritative ledger record.
type LedgerRecordResponse struct {
	TxID          string `json:"tx_id"`
	Nonce         string `json:"nonce"`
	PayerWalletID string `json:"payer_wallet_id"`
	PayeeWalletID string `json:"payee_wallet_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Outcome       string `json:"outcome"`
	Reason        string `json:"reason,omitempty"`
	DeviceID      string `json:"device_id,omitempty"`
	SyncedAt      string `json:"synced_at"`
}

// LedgerListResponse wraps a wallet's ledger records.
type LedgerListResponse struct {
	Items []LedgerRecordResponse `json:"items"`
}

// VerifyReceiptResponse is the response body for receipt verification.
type VerifyReceiptResponse struct {
	SignatureValid bool `json:"signature_valid"`
	HashValid      bool `json:"hash_valid"`
	Valid          bool `json:"valid"`
}
