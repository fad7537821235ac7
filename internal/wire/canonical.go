// Package wire implements the QR wire formats: canonical signable bytes,
// the transport codec for the two payloads, and receipt construction.
package wire

import (
	"encoding/json"
	"fmt"

	"offline-pay/internal/core/domain"
)

// canonicalForm mirrors TransactionPayload minus the signature, with fields
// declared in byte-sorted key order. encoding/json emits struct fields in
// declaration order, which makes Marshal a stable canonical encoding: equal
// payloads produce identical bytes regardless of how the payload was built.
type canonicalForm struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Nonce     string `json:"nonce"`
	Note      string `json:"note"`
	PayeeID   string `json:"payeeId"`
	PayerID   string `json:"payerId"`
	PayerName string `json:"payerName"`
	Timestamp int64  `json:"timestamp"`
	TxID      string `json:"txId"`
}

// Canonicalize returns the deterministic byte encoding of the payload's
// signable fields. The signature field never participates.
func Canonicalize(p domain.TransactionPayload) ([]byte, error) {
	b, err := json.Marshal(canonicalForm{
		Amount:    p.Amount,
		Currency:  p.Currency,
		Nonce:     p.Nonce,
		Note:      p.Note,
		PayeeID:   p.PayeeID,
		PayerID:   p.PayerID,
		PayerName: p.PayerName,
		Timestamp: p.Timestamp,
		TxID:      p.TxID,
	})
	if err != nil {
		return nil, fmt.Errorf("canonicalize payload: %w", err)
	}
	return b, nil
}
