package wire

import (
	"crypto/sha256"
	"encoding/hex"

	"offline-pay/internal/core/domain"
)

// HashPayload computes the receipt content hash: a SHA-256 digest of the
// canonical payload bytes, hex encoded.
func HashPayload(p domain.TransactionPayload) (string, error) {
	b, err := Canonicalize(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// BuildReceipt assembles the offline-verifiable proof from a signed payload.
func BuildReceipt(p domain.TransactionPayload) (domain.Receipt, error) {
	hash, err := HashPayload(p)
	if err != nil {
		return domain.Receipt{}, err
	}
	return domain.Receipt{
		Payload:     p,
		Signature:   p.Signature,
		ContentHash: hash,
	}, nil
}
