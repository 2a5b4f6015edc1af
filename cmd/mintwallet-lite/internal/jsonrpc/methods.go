package jsonrpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mintforge/mintforge/cmd/mintwallet-lite/internal/keystore"
	"github.com/mintforge/mintforge/cmd/mintwallet-lite/internal/signer"
	"github.com/mintforge/mintforge/wallet"
)

// Wallet protocol method names.
const (
	MethodListKeys        = "client.list_keys"
	MethodSendTransaction = "client.send_transaction"
	MethodSignTransaction = "client.sign_transaction"
	MethodHealth          = "health_status"
)

// WalletMethods implements the wallet service RPC surface over the
// local keystore.
type WalletMethods struct {
	ks     *keystore.Keystore
	signer *signer.Signer
	logger *slog.Logger
}

// NewWalletMethods creates the method set.
func NewWalletMethods(ks *keystore.Keystore, s *signer.Signer, logger *slog.Logger) *WalletMethods {
	if logger == nil {
		logger = slog.Default()
	}
	return &WalletMethods{ks: ks, signer: s, logger: logger}
}

// Register wires every method into the handler.
func (m *WalletMethods) Register(h *Handler) {
	h.RegisterMethod(MethodHealth, m.Health)
	h.RegisterMethod(MethodListKeys, m.ListKeys)
	h.RegisterMethod(MethodSendTransaction, m.SendTransaction)
	h.RegisterMethod(MethodSignTransaction, m.SignTransaction)
}

// Health answers the RPC health ping.
func (m *WalletMethods) Health(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	return map[string]string{"status": "ok"}, nil
}

// keyInfo is the wire shape of one key in list_keys.
type keyInfo struct {
	Name      string `json:"name"`
	PublicKey string `json:"publicKey"`
}

// ListKeys returns every key in the store.
func (m *WalletMethods) ListKeys(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	keys := m.ks.List()
	infos := make([]keyInfo, len(keys))
	for i, k := range keys {
		infos[i] = keyInfo{Name: k.Name, PublicKey: k.PublicKey}
	}
	return map[string]interface{}{"keys": infos}, nil
}

// transactionParams is the parameter shape of send_transaction and
// sign_transaction.
type transactionParams struct {
	PublicKey   string          `json:"publicKey"`
	SendingMode string          `json:"sendingMode"`
	Transaction json.RawMessage `json:"transaction"`
}

// signedPayload is the signed command the daemon hands back.
type signedPayload struct {
	Signature string          `json:"signature"`
	PubKey    string          `json:"pubKey"`
	Command   json.RawMessage `json:"command"`
}

// sentResult mirrors the wallet service's send_transaction result.
type sentResult struct {
	ReceivedAt      string        `json:"receivedAt"`
	SentAt          string        `json:"sentAt"`
	TransactionHash string        `json:"transactionHash"`
	Transaction     signedPayload `json:"transaction"`
}

// signedResult mirrors the sign_transaction result.
type signedResult struct {
	ReceivedAt  string        `json:"receivedAt"`
	Transaction signedPayload `json:"transaction"`
}

// SendTransaction signs the command and reports it as accepted. The
// dev daemon has no network behind it, so the hash identifies the
// signed payload rather than a real broadcast.
func (m *WalletMethods) SendTransaction(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	receivedAt := time.Now().UTC().Format(time.RFC3339Nano)

	payload, rpcErr := m.signCommand(params, true)
	if rpcErr != nil {
		return nil, rpcErr
	}

	sig, err := hexutil.Decode(payload.Signature)
	if err != nil {
		return nil, ErrInternal(err.Error())
	}

	return sentResult{
		ReceivedAt:      receivedAt,
		SentAt:          time.Now().UTC().Format(time.RFC3339Nano),
		TransactionHash: hexutil.Encode(crypto.Keccak256(sig)),
		Transaction:     *payload,
	}, nil
}

// SignTransaction signs the command without pretending to broadcast.
func (m *WalletMethods) SignTransaction(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	receivedAt := time.Now().UTC().Format(time.RFC3339Nano)

	payload, rpcErr := m.signCommand(params, false)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return signedResult{
		ReceivedAt:  receivedAt,
		Transaction: *payload,
	}, nil
}

// signCommand validates the params, decodes the command envelope, and
// signs its canonical encoding with the requested key.
func (m *WalletMethods) signCommand(params json.RawMessage, sending bool) (*signedPayload, *Error) {
	var p transactionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, ErrInvalidParams("invalid transaction params")
	}
	if p.PublicKey == "" {
		return nil, ErrInvalidParams("publicKey is required")
	}
	if sending && p.SendingMode != wallet.SendingModeSync {
		return nil, ErrInvalidParams("sendingMode must be " + wallet.SendingModeSync)
	}
	if len(p.Transaction) == 0 {
		return nil, ErrInvalidParams("transaction is required")
	}

	key, err := m.ks.GetByPublicKey(p.PublicKey)
	if err != nil {
		return nil, ErrKeyNotFound(p.PublicKey)
	}

	cmd, err := wallet.DecodeCommand(p.Transaction)
	if err != nil {
		return nil, ErrInvalidParams(err.Error())
	}

	// Re-marshal so the signed bytes are canonical regardless of how
	// the client formatted the envelope.
	canonical, err := wallet.MarshalCommand(cmd)
	if err != nil {
		return nil, ErrInternal(err.Error())
	}

	sig, err := m.signer.SignMessage(canonical, key.PrivateKey)
	if err != nil {
		m.logger.Error("signing failed",
			slog.String("key", key.Name),
			slog.String("error", err.Error()),
		)
		return nil, ErrSigningFailed(err.Error())
	}

	return &signedPayload{
		Signature: hexutil.Encode(sig),
		PubKey:    key.PublicKey,
		Command:   canonical,
	}, nil
}
