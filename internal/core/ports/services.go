package ports

import (
	"context"
	"time"

	"offline-pay/internal/core/domain"

	"github.com/google/uuid"
)

// Signer is the device key-custody capability. The private key never leaves
// the implementation; the core only ever sees canonical bytes in and a base64
// signature out.
type Signer interface {
	Sign(canonical []byte) (string, error)
	PublicKeyPEM() string
}

// Verifier checks a base64 signature over canonical bytes against a PEM
// public key. It returns false on malformed input, never an error or panic.
type Verifier interface {
	Verify(canonical []byte, signatureB64 string, publicKeyPEM string) bool
}

// KeyRegistry resolves a payer's registered public key by wallet ID. The
// identity exchange does not carry the payer key, so both the payee device
// and the reconciler depend on this out-of-band registry.
type KeyRegistry interface {
	PublicKeyFor(ctx context.Context, walletID string) (string, error)
}

// Clock abstracts time so freshness-window checks are testable.
type Clock interface {
	Now() time.Time
}

// NonceCache is the fast-path replay check at the server edge (Redis SET NX).
// It is advisory: the authoritative constraint lives in NonceRepository.
type NonceCache interface {
	// CheckAndSet atomically checks if nonce exists within scope, sets it if
	// not. Returns true if the nonce is new.
	CheckAndSet(ctx context.Context, scope string, nonce string, ttl time.Duration) (bool, error)
}

// OutcomeCache caches per-nonce reconciliation outcomes so duplicate
// submissions are answered without touching the database.
type OutcomeCache interface {
	Get(ctx context.Context, nonce string) (*domain.SyncResult, error) // nil if absent
	Set(ctx context.Context, nonce string, result domain.SyncResult, ttl time.Duration) error
}

// KeyVault seals private key material for storage at rest.
type KeyVault interface {
	Seal(privateKeyPEM string, passphrase string) (string, error)
	Open(sealed string, passphrase string) (string, error)
}

// TokenService validates device session tokens. Issuance lives with the
// external auth system; Generate exists for operational tooling and tests.
type TokenService interface {
	Generate(ownerID uuid.UUID, deviceID string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed device session claims.
type TokenClaims struct {
	OwnerID  uuid.UUID
	DeviceID string
}

// --- Service Ports (Business Logic) ---

// SubmissionTuple is one element of a sync batch: the transport-encoded
// signed payload plus the receipt the payee holds.
type SubmissionTuple struct {
	EncodedPayload string         `json:"payload"`
	Receipt        domain.Receipt `json:"receipt"`
}

// SyncService merges device-submitted tuples into the authoritative ledger,
// applying each at most once.
type SyncService interface {
	Reconcile(ctx context.Context, deviceID string, batch []SubmissionTuple) ([]domain.SyncResult, error)
}

// SubmissionClient is the device side of the sync endpoint.
type SubmissionClient interface {
	Submit(ctx context.Context, deviceID string, batch []SubmissionTuple) ([]domain.SyncResult, error)
}

// WalletService covers server-side wallet lifecycle: provisioning with key
// generation, preload transfers, balance reads and deactivation.
type WalletService interface {
	Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error)
	Preload(ctx context.Context, req PreloadRequest) (*domain.Transfer, error)
	Balance(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error)
	Ledger(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.LedgerRecord, error)
	Deactivate(ctx context.Context, walletID uuid.UUID) error
}

// ProvisionRequest holds validated input for wallet creation.
type ProvisionRequest struct {
	OwnerID      uuid.UUID
	Kind         domain.WalletKind
	Currency     string
	SpendCeiling int64  // OFFLINE only
	Passphrase   string // seals the generated private key, OFFLINE only
}

// ProvisionResult returns the created wallet and, for OFFLINE wallets, the
// sealed private key. The plaintext key is never stored server-side.
type ProvisionResult struct {
	Wallet           *domain.Wallet
	SealedPrivateKey string
}

// PreloadRequest moves funds between a user's own wallets.
type PreloadRequest struct {
	OwnerID      uuid.UUID
	FromWalletID uuid.UUID
	ToWalletID   uuid.UUID
	Amount       int64
	Reference    string
}

// ReceiptVerification is the structured result of offline receipt checking.
type ReceiptVerification struct {
	SignatureValid bool `json:"signature_valid"`
	HashValid      bool `json:"hash_valid"`
}

// Valid reports whether both checks passed.
func (v ReceiptVerification) Valid() bool {
	return v.SignatureValid && v.HashValid
}

// ReceiptService re-verifies a payer's receipt given only the payer's public
// key. Pure: no state is touched.
type ReceiptService interface {
	Verify(receipt domain.Receipt, payerPublicKeyPEM string) ReceiptVerification
}
