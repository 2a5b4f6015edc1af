package wallet

import "encoding/json"

// Key is a signing key held by the wallet service.
type Key struct {
	Name      string `json:"name"`
	PublicKey string `json:"publicKey"`
}

// SentTransaction is the result of send_transaction: the network hash
// and the raw signed transaction as the service submitted it.
type SentTransaction struct {
	ReceivedAt      string          `json:"receivedAt"`
	SentAt          string          `json:"sentAt"`
	TransactionHash string          `json:"transactionHash"`
	Transaction     json.RawMessage `json:"transaction"`
}

// SignedTransaction is the result of sign_transaction: the signed
// payload without broadcast.
type SignedTransaction struct {
	ReceivedAt  string          `json:"receivedAt"`
	Transaction json.RawMessage `json:"transaction"`
}

// keysResult is the client.list_keys result envelope.
type keysResult struct {
	Keys []Key `json:"keys"`
}

// transactionParams is the parameter shape shared by send_transaction
// and sign_transaction. SendingMode is set only when broadcasting.
type transactionParams struct {
	PublicKey   string          `json:"publicKey"`
	SendingMode string          `json:"sendingMode,omitempty"`
	Transaction commandEnvelope `json:"transaction"`
}
