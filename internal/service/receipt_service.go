package service

import (
	"crypto/subtle"

	"offline-pay/internal/core/domain"
	"offline-pay/internal/core/ports"
	"offline-pay/internal/wire"
)

// ReceiptVerifier re-verifies a payer's receipt fully offline: the holder
// needs only the receipt and the payer's public key. Pure: no state, no I/O.
type ReceiptVerifier struct {
	verifier ports.Verifier
}

// NewReceiptVerifier creates the verifier around a signature primitive.
func NewReceiptVerifier(verifier ports.Verifier) *ReceiptVerifier {
	return &ReceiptVerifier{verifier: verifier}
}

// Verify recomputes the canonical encoding, checks the signature against the
// payer's key, and recomputes the content hash. Both results are reported
// separately so the holder can tell a tampered payload from a tampered hash.
func (s *ReceiptVerifier) Verify(receipt domain.Receipt, payerPublicKeyPEM string) ports.ReceiptVerification {
	var result ports.ReceiptVerification

	canonical, err := wire.Canonicalize(receipt.Payload)
	if err != nil {
		return result
	}

	result.SignatureValid = s.verifier.Verify(canonical, receipt.Signature, payerPublicKeyPEM)

	hash, err := wire.HashPayload(receipt.Payload)
	if err != nil {
		return result
	}
	result.HashValid = subtle.ConstantTimeCompare([]byte(hash), []byte(receipt.ContentHash)) == 1

	return result
}
