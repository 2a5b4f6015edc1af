// Package signer provides the hashing and ECDSA signing primitives the
// wallet daemon uses over keystore keys.
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs hashes, messages, and transactions.
type Signer struct{}

// New creates a Signer.
func New() *Signer {
	return &Signer{}
}

// SignHash signs a 32-byte hash. The returned 65-byte signature has its
// recovery id adjusted to 27/28 for Ethereum compatibility.
func (s *Signer) SignHash(hash []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}

	signature, err := crypto.Sign(hash, privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign hash: %w", err)
	}

	// crypto.Sign yields V as 0/1; Ethereum expects 27/28.
	signature[64] += 27
	return signature, nil
}

// SignMessage signs arbitrary bytes under the personal_sign envelope
// ("\x19Ethereum Signed Message:\n" + length prefix).
func (s *Signer) SignMessage(message []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	return s.SignHash(MessageHash(message), privateKey)
}

// MessageHash computes the personal_sign digest of a message.
func MessageHash(message []byte) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return crypto.Keccak256([]byte(prefixed))
}

// SignTransaction signs a transaction with the EIP-155 signer for the
// chain id and returns its RLP encoding.
func (s *Signer) SignTransaction(tx *types.Transaction, privateKey *ecdsa.PrivateKey, chainID *big.Int) ([]byte, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is nil")
	}
	if chainID == nil {
		return nil, fmt.Errorf("chain ID is nil")
	}

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	encoded, err := signedTx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode signed transaction: %w", err)
	}
	return encoded, nil
}

// RecoverAddress recovers the signing address from a 65-byte signature
// over hash.
func RecoverAddress(hash, signature []byte) (string, error) {
	if len(signature) != 65 {
		return "", fmt.Errorf("signature must be 65 bytes, got %d", len(signature))
	}

	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return "", fmt.Errorf("recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pubKey).Hex(), nil
}
