package wire

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"offline-pay/internal/core/domain"
	"offline-pay/pkg/apperror"
)

// MaxEncodedBytes bounds the transport string to QR version-40 byte capacity.
const MaxEncodedBytes = 2953

// rawTxPayload uses pointer fields so missing keys are distinguishable from
// zero values during strict decoding.
type rawTxPayload struct {
	TxID      *string `json:"txId"`
	PayerID   *string `json:"payerId"`
	PayeeID   *string `json:"payeeId"`
	Amount    *int64  `json:"amount"`
	Currency  *string `json:"currency"`
	Timestamp *int64  `json:"timestamp"`
	Nonce     *string `json:"nonce"`
	PayerName *string `json:"payerName"`
	Note      *string `json:"note"`
	Signature *string `json:"signature"`
}

type rawIdentity struct {
	PayeeID         *string `json:"payeeId"`
	DisplayName     *string `json:"displayName"`
	DeviceID        *string `json:"deviceId"`
	Nonce           *string `json:"nonce"`
	AdvertisedLimit *int64  `json:"advertisedLimit"`
	IssuedAt        *int64  `json:"issuedAt"`
}

// EncodeTransactionPayload serializes the signed payload to its
// QR-transportable form: base64 over the JSON encoding.
func EncodeTransactionPayload(p domain.TransactionPayload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("marshal payload: %w", err))
	}
	s := base64.StdEncoding.EncodeToString(b)
	if len(s) > MaxEncodedBytes {
		return "", apperror.ErrPayloadTooLarge()
	}
	return s, nil
}

// DecodeTransactionPayload parses a transport string back into a payload.
// Any failure yields a MalformedPayload error and never a partial object.
func DecodeTransactionPayload(s string) (domain.TransactionPayload, error) {
	var zero domain.TransactionPayload

	if len(s) > MaxEncodedBytes {
		return zero, apperror.ErrPayloadTooLarge()
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return zero, apperror.ErrMalformedPayload(fmt.Errorf("transport decoding: %w", err))
	}

	var raw rawTxPayload
	if err := json.Unmarshal(b, &raw); err != nil {
		return zero, malformed(err)
	}

	required := []struct {
		name string
		ok   bool
	}{
		{"txId", raw.TxID != nil && *raw.TxID != ""},
		{"payerId", raw.PayerID != nil && *raw.PayerID != ""},
		{"payeeId", raw.PayeeID != nil && *raw.PayeeID != ""},
		{"amount", raw.Amount != nil},
		{"currency", raw.Currency != nil && *raw.Currency != ""},
		{"timestamp", raw.Timestamp != nil},
		{"nonce", raw.Nonce != nil && *raw.Nonce != ""},
		{"payerName", raw.PayerName != nil},
		{"signature", raw.Signature != nil && *raw.Signature != ""},
	}
	for _, f := range required {
		if !f.ok {
			return zero, apperror.ErrMalformedPayload(fmt.Errorf("missing required field %q", f.name)).WithField(f.name)
		}
	}
	if *raw.Amount <= 0 {
		return zero, apperror.ErrMalformedPayload(fmt.Errorf("amount must be a positive integer")).WithField("amount")
	}

	p := domain.TransactionPayload{
		TxID:      *raw.TxID,
		PayerID:   *raw.PayerID,
		PayeeID:   *raw.PayeeID,
		Amount:    *raw.Amount,
		Currency:  *raw.Currency,
		Timestamp: *raw.Timestamp,
		Nonce:     *raw.Nonce,
		PayerName: *raw.PayerName,
		Signature: *raw.Signature,
	}
	if raw.Note != nil {
		p.Note = *raw.Note
	}
	return p, nil
}

// EncodePayeeIdentity serializes the identity payload. It carries no
// signature, so plain structured JSON is enough for QR transport.
func EncodePayeeIdentity(id domain.PayeeIdentity) (string, error) {
	b, err := json.Marshal(id)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("marshal identity: %w", err))
	}
	if len(b) > MaxEncodedBytes {
		return "", apperror.ErrPayloadTooLarge()
	}
	return string(b), nil
}

// DecodePayeeIdentity parses an identity payload, rejecting missing required
// fields and wrong field types.
func DecodePayeeIdentity(s string) (domain.PayeeIdentity, error) {
	var zero domain.PayeeIdentity

	if len(s) > MaxEncodedBytes {
		return zero, apperror.ErrPayloadTooLarge()
	}

	var raw rawIdentity
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return zero, malformed(err)
	}

	required := []struct {
		name string
		ok   bool
	}{
		{"payeeId", raw.PayeeID != nil && *raw.PayeeID != ""},
		{"displayName", raw.DisplayName != nil && *raw.DisplayName != ""},
		{"deviceId", raw.DeviceID != nil && *raw.DeviceID != ""},
		{"nonce", raw.Nonce != nil && *raw.Nonce != ""},
	}
	for _, f := range required {
		if !f.ok {
			return zero, apperror.ErrMalformedPayload(fmt.Errorf("missing required field %q", f.name)).WithField(f.name)
		}
	}
	if raw.AdvertisedLimit != nil && *raw.AdvertisedLimit < 0 {
		return zero, apperror.ErrMalformedPayload(fmt.Errorf("advertisedLimit must not be negative")).WithField("advertisedLimit")
	}

	id := domain.PayeeIdentity{
		PayeeID:     *raw.PayeeID,
		DisplayName: *raw.DisplayName,
		DeviceID:    *raw.DeviceID,
		Nonce:       *raw.Nonce,
	}
	if raw.AdvertisedLimit != nil {
		id.AdvertisedLimit = *raw.AdvertisedLimit
	}
	if raw.IssuedAt != nil {
		id.IssuedAt = *raw.IssuedAt
	}
	return id, nil
}

// malformed maps JSON errors to MalformedPayload, naming the offending field
// for type errors.
func malformed(err error) *apperror.AppError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperror.ErrMalformedPayload(err).WithField(typeErr.Field)
	}
	return apperror.ErrMalformedPayload(err)
}
