package signer

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignHash_RoundTrip(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	s := New()

	hash := crypto.Keccak256([]byte("payload"))
	sig, err := s.SignHash(hash, priv)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	addr, err := RecoverAddress(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(priv.PublicKey).Hex(), addr)
}

func TestSignHash_WrongLength(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, err = New().SignHash([]byte("short"), priv)
	assert.Error(t, err)
}

func TestSignMessage_PersonalEnvelope(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	s := New()

	msg := []byte("hello mintforge")
	sig, err := s.SignMessage(msg, priv)
	require.NoError(t, err)

	// The signature verifies against the prefixed digest, not the raw
	// message hash.
	addr, err := RecoverAddress(MessageHash(msg), sig)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(priv.PublicKey).Hex(), addr)

	wrong, err := RecoverAddress(crypto.Keccak256(msg), sig)
	require.NoError(t, err)
	assert.NotEqual(t, crypto.PubkeyToAddress(priv.PublicKey).Hex(), wrong)
}

func TestSignTransaction(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	s := New()

	chainID := big.NewInt(1337)
	to := common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
	tx := types.NewTransaction(0, to, big.NewInt(1), 21000, big.NewInt(1_000_000_000), nil)

	encoded, err := s.SignTransaction(tx, priv, chainID)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	var decoded types.Transaction
	require.NoError(t, decoded.UnmarshalBinary(encoded))

	from, err := types.Sender(types.LatestSignerForChainID(chainID), &decoded)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(priv.PublicKey), from)
}

func TestSignTransaction_NilInputs(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	s := New()

	_, err = s.SignTransaction(nil, priv, big.NewInt(1337))
	assert.Error(t, err)

	to := common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
	tx := types.NewTransaction(0, to, big.NewInt(1), 21000, big.NewInt(1), nil)
	_, err = s.SignTransaction(tx, priv, nil)
	assert.Error(t, err)
}

func TestRecoverAddress_BadSignature(t *testing.T) {
	_, err := RecoverAddress(crypto.Keccak256([]byte("x")), []byte("too short"))
	assert.Error(t, err)
}
