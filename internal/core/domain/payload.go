package domain

// PayeeIdentity is the first wire payload: the payee advertises who they are
// and how much they can still receive. It is ephemeral and carries no
// signature; it lives only for the duration of one scan.
type PayeeIdentity struct {
	PayeeID         string `json:"payeeId"`
	DisplayName     string `json:"displayName"`
	DeviceID        string `json:"deviceId"`
	Nonce           string `json:"nonce"`
	AdvertisedLimit int64  `json:"advertisedLimit,omitempty"`
	IssuedAt        int64  `json:"issuedAt,omitempty"` // epoch ms
}

// TransactionPayload is the signed wire artifact the payer hands to the payee.
// Signature covers the canonical encoding of every other field. Amount is an
// integer count of minor currency units; Timestamp is milliseconds since epoch.
type TransactionPayload struct {
	TxID      string `json:"txId"`
	PayerID   string `json:"payerId"`
	PayeeID   string `json:"payeeId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Timestamp int64  `json:"timestamp"`
	Nonce     string `json:"nonce"`
	PayerName string `json:"payerName"`
	Note      string `json:"note,omitempty"`
	Signature string `json:"signature"`
}

// Unsigned returns a copy with the signature cleared, the form over which
// canonical bytes are computed.
func (p TransactionPayload) Unsigned() TransactionPayload {
	p.Signature = ""
	return p
}

// Receipt is a self-contained, offline-verifiable proof of the payer's
// commitment: the signed payload plus a digest of its canonical bytes.
type Receipt struct {
	Payload     TransactionPayload `json:"payload"`
	Signature   string             `json:"signature"`
	ContentHash string             `json:"contentHash"`
}
