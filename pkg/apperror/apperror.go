package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"` // Offending payload field, when known
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// WithField annotates the error with the offending payload field.
func (e *AppError) WithField(field string) *AppError {
	e.Field = field
	return e
}

// ---- Wire payloads (PAYLOAD) ----

// ErrMalformedPayload signals a payload that failed to decode. Fatal, never retried.
func ErrMalformedPayload(err error) *AppError {
	return Wrap("PAYLOAD_001", "Malformed payload", http.StatusBadRequest, err)
}

func ErrPayloadTooLarge() *AppError {
	return New("PAYLOAD_002", "Payload exceeds QR capacity", http.StatusRequestEntityTooLarge)
}

// ---- Replay & signature defenses (SEC) ----

// ErrStaleTransaction signals a timestamp outside the freshness window.
func ErrStaleTransaction() *AppError {
	return New("SEC_001", "Transaction timestamp outside freshness window", http.StatusForbidden)
}

// ErrReplay signals a nonce that has already been seen.
func ErrReplay() *AppError {
	return New("SEC_002", "Nonce has already been used", http.StatusForbidden)
}

// ErrSignatureInvalid signals a forged or corrupted signature. Never retried.
func ErrSignatureInvalid() *AppError {
	return New("SEC_003", "Transaction signature is invalid", http.StatusUnauthorized)
}

// ErrIdentityMismatch signals a payload addressed to a different payee.
// Logged as a potential attack wherever it surfaces.
func ErrIdentityMismatch() *AppError {
	return New("SEC_004", "Payload payee does not match this identity", http.StatusForbidden)
}

func ErrUnknownPublicKey() *AppError {
	return New("SEC_005", "No registered public key for payer", http.StatusUnauthorized)
}

// ---- Transaction business rules (TXN) ----

func ErrInsufficientFunds() *AppError {
	return New("TXN_001", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

// ErrLimitExceeded covers both the advertised per-transaction limit and the
// offline wallet spend ceiling.
func ErrLimitExceeded() *AppError {
	return New("TXN_002", "Amount exceeds allowed limit", http.StatusUnprocessableEntity)
}

func ErrInvalidAmount() *AppError {
	return New("TXN_003", "Invalid amount", http.StatusBadRequest)
}

func ErrCeilingReached() *AppError {
	return New("TXN_004", "Offline wallet is at its spend ceiling", http.StatusUnprocessableEntity)
}

func ErrNotFound(entity string) *AppError {
	return New("TXN_005", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrWalletInactive() *AppError {
	return New("TXN_006", "Wallet is deactivated", http.StatusForbidden)
}

// ErrSelfPayment signals a payload whose payer and payee are the same wallet.
// Applying one would net the wallet +amount and mint money.
func ErrSelfPayment() *AppError {
	return New("TXN_007", "Wallet cannot pay itself", http.StatusUnprocessableEntity)
}

// ---- Reconciliation (SYNC) ----

// ErrReconciliationConflict signals an authoritative-side invariant violation,
// e.g. the payer spent elsewhere between local commit and sync.
func ErrReconciliationConflict(reason string) *AppError {
	return New("SYNC_001", fmt.Sprintf("Reconciliation conflict: %s", reason), http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrKeyVaultFailure(err error) *AppError {
	return Wrap("SYS_002", "Key vault failure", http.StatusInternalServerError, err)
}

// Validation returns a generic request validation error.
func Validation(message string) *AppError {
	return New("PAYLOAD_001", message, http.StatusBadRequest)
}
