package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("TXN_001", "Insufficient balance in wallet", http.StatusPaymentRequired),
			expected: "[TXN_001] Insufficient balance in wallet",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] Internal server error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_WithField(t *testing.T) {
	err := ErrMalformedPayload(fmt.Errorf("not a number")).WithField("amount")
	assert.Equal(t, "amount", err.Field)
	assert.Equal(t, "PAYLOAD_001", err.Code)
}

func TestSecurityErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"StaleTransaction", ErrStaleTransaction(), "SEC_001", 403},
		{"Replay", ErrReplay(), "SEC_002", 403},
		{"SignatureInvalid", ErrSignatureInvalid(), "SEC_003", 401},
		{"IdentityMismatch", ErrIdentityMismatch(), "SEC_004", 403},
		{"UnknownPublicKey", ErrUnknownPublicKey(), "SEC_005", 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestTransactionErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InsufficientFunds", ErrInsufficientFunds(), "TXN_001", 402},
		{"LimitExceeded", ErrLimitExceeded(), "TXN_002", 422},
		{"InvalidAmount", ErrInvalidAmount(), "TXN_003", 400},
		{"CeilingReached", ErrCeilingReached(), "TXN_004", 422},
		{"NotFound", ErrNotFound("wallet"), "TXN_005", 404},
		{"WalletInactive", ErrWalletInactive(), "TXN_006", 403},
		{"SelfPayment", ErrSelfPayment(), "TXN_007", 422},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestReconciliationConflict(t *testing.T) {
	err := ErrReconciliationConflict("insufficient authoritative balance")
	assert.Equal(t, "SYNC_001", err.Code)
	assert.Equal(t, http.StatusConflict, err.HTTPStatus)
	assert.Contains(t, err.Message, "insufficient authoritative balance")
}

func TestPayloadErrors(t *testing.T) {
	inner := fmt.Errorf("unexpected end of JSON input")
	err := ErrMalformedPayload(inner)
	assert.Equal(t, "PAYLOAD_001", err.Code)
	assert.Equal(t, 400, err.HTTPStatus)
	assert.True(t, errors.Is(err, inner))

	assert.Equal(t, "PAYLOAD_002", ErrPayloadTooLarge().Code)
	assert.Equal(t, 413, ErrPayloadTooLarge().HTTPStatus)
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	sysErr := InternalError(inner)
	assert.Equal(t, "SYS_001", sysErr.Code)
	assert.Equal(t, 500, sysErr.HTTPStatus)
	assert.True(t, errors.Is(sysErr, inner))

	kvErr := ErrKeyVaultFailure(inner)
	assert.Equal(t, "SYS_002", kvErr.Code)
}

func TestNotFoundEntity(t *testing.T) {
	err := ErrNotFound("Receipt")
	assert.Contains(t, err.Message, "Receipt")
}
