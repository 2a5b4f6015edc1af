package deployer

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintforge/mintforge"
	"github.com/mintforge/mintforge/internal/artifacts"
)

// anvil dev key 0; publicly known, local testing only.
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// fakeClient is a scriptable EthClient.
type fakeClient struct {
	mu sync.Mutex

	chainID  *big.Int
	balance  *big.Int
	nonce    uint64
	gasPrice *big.Int
	gasLimit uint64

	chainIDCalls int
	sent         []*types.Transaction

	// receiptAfter holds back the receipt for the first N polls.
	receiptAfter int
	receipt      *types.Receipt

	sendErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		chainID:  big.NewInt(mintforge.LocalChainID),
		balance:  big.NewInt(1e18),
		nonce:    7,
		gasPrice: big.NewInt(2_000_000_000),
		gasLimit: 300_000,
		receipt: &types.Receipt{
			Status:          types.ReceiptStatusSuccessful,
			ContractAddress: common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
			BlockNumber:     big.NewInt(12),
			GasUsed:         290_000,
		},
	}
}

func (f *fakeClient) ChainID(ctx context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chainIDCalls++
	return f.chainID, nil
}

func (f *fakeClient) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeClient) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return f.gasLimit, nil
}

func (f *fakeClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receiptAfter > 0 {
		f.receiptAfter--
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}

func testDeployer(t *testing.T, client EthClient) *Deployer {
	t.Helper()

	signer, err := NewKeySigner(testKeyHex)
	require.NoError(t, err)

	store, err := artifacts.NewStore(filepath.Join(t.TempDir(), "artifacts.json"))
	require.NoError(t, err)

	d, err := New(Config{
		Network:        mintforge.NetworkHardhat,
		Descriptor:     mintforge.NetworkConfig{ChainID: mintforge.LocalChainID},
		Client:         client,
		Signer:         signer,
		Store:          store,
		Logger:         slog.New(slog.DiscardHandler),
		ReceiptTimeout: 500 * time.Millisecond,
		PollInterval:   10 * time.Millisecond,
	})
	require.NoError(t, err)
	return d
}

func deployableArtifact() *artifacts.Artifact {
	return &artifacts.Artifact{
		Name:            "Marketplace",
		ABI:             json.RawMessage(`[{"type":"constructor","inputs":[]}]`),
		Bytecode:        "0x6080604052",
		CompilerVersion: "0.8.4",
		OptimizerRuns:   200,
	}
}

func TestNew_RequiredFields(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Network: "hardhat"})
	assert.Error(t, err)
}

func TestNewKeySigner_Address(t *testing.T) {
	signer, err := NewKeySigner("0x" + testKeyHex)
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", signer.Address().Hex())

	_, err = NewKeySigner("not hex")
	assert.Error(t, err)
}

func TestPreflight_Passes(t *testing.T) {
	d := testDeployer(t, newFakeClient())
	require.NoError(t, d.Preflight(context.Background()))
}

func TestPreflight_ChainMismatch(t *testing.T) {
	client := newFakeClient()
	client.chainID = big.NewInt(80001)

	d := testDeployer(t, client)
	err := d.Preflight(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChainMismatch)

	var de *DeployError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "preflight", de.Op)
}

func TestPreflight_InsufficientFunds(t *testing.T) {
	client := newFakeClient()
	client.balance = big.NewInt(0)

	d := testDeployer(t, client)
	assert.ErrorIs(t, d.Preflight(context.Background()), ErrInsufficientFunds)
}

func TestPreflight_UnknownNetwork(t *testing.T) {
	signer, err := NewKeySigner(testKeyHex)
	require.NoError(t, err)
	store, err := artifacts.NewStore(filepath.Join(t.TempDir(), "artifacts.json"))
	require.NoError(t, err)

	d, err := New(Config{
		Network: "goerli",
		Client:  newFakeClient(),
		Signer:  signer,
		Store:   store,
		Logger:  slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, d.Preflight(context.Background()), ErrUnknownChain)
}

func TestDeploy_Success(t *testing.T) {
	client := newFakeClient()
	client.receiptAfter = 2

	d := testDeployer(t, client)
	dep, err := d.Deploy(context.Background(), deployableArtifact(), nil)
	require.NoError(t, err)

	rec := dep.Record
	assert.Equal(t, "Marketplace", rec.Contract)
	assert.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", rec.Address)
	assert.Equal(t, uint64(12), rec.BlockNumber)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, uint64(290_000), dep.GasUsed)

	// The broadcast transaction is a signed contract creation with the
	// padded gas limit.
	require.Len(t, client.sent, 1)
	sent := client.sent[0]
	assert.Nil(t, sent.To())
	assert.Equal(t, uint64(7), sent.Nonce())
	assert.Equal(t, uint64(360_000), sent.Gas())

	// The deployment landed in the store.
	records := d.cfg.Store.Deployments(mintforge.NetworkHardhat)
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)
}

func TestDeploy_NoBytecode(t *testing.T) {
	d := testDeployer(t, newFakeClient())

	a := deployableArtifact()
	a.Bytecode = ""
	_, err := d.Deploy(context.Background(), a, nil)
	assert.ErrorIs(t, err, ErrNoBytecode)
}

func TestDeploy_Reverted(t *testing.T) {
	client := newFakeClient()
	client.receipt.Status = types.ReceiptStatusFailed

	d := testDeployer(t, client)
	_, err := d.Deploy(context.Background(), deployableArtifact(), nil)
	assert.ErrorIs(t, err, ErrTxReverted)
}

func TestDeploy_ReceiptTimeout(t *testing.T) {
	client := newFakeClient()
	client.receiptAfter = 1 << 30 // never lands

	d := testDeployer(t, client)
	_, err := d.Deploy(context.Background(), deployableArtifact(), nil)
	assert.ErrorIs(t, err, ErrReceiptTimeout)
}

func TestChainMetadata_Cached(t *testing.T) {
	client := newFakeClient()
	d := testDeployer(t, client)

	ctx := context.Background()
	_, err := d.chainID(ctx)
	require.NoError(t, err)
	_, err = d.chainID(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, client.chainIDCalls)
}

func TestEncodeConstructorArgs(t *testing.T) {
	abiJSON := json.RawMessage(`[{
		"type": "constructor",
		"inputs": [
			{"name": "feeRecipient", "type": "address"},
			{"name": "feeBps", "type": "uint256"}
		]
	}]`)

	encoded, err := EncodeConstructorArgs(abiJSON, []string{
		"0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		"250",
	})
	require.NoError(t, err)
	require.Len(t, encoded, 64)

	addr := common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
	assert.Equal(t, common.LeftPadBytes(addr.Bytes(), 32), encoded[:32])
	assert.Equal(t, common.LeftPadBytes(big.NewInt(250).Bytes(), 32), encoded[32:])
}

func TestEncodeConstructorArgs_Mismatches(t *testing.T) {
	abiJSON := json.RawMessage(`[{"type":"constructor","inputs":[{"name":"owner","type":"address"}]}]`)

	_, err := EncodeConstructorArgs(abiJSON, []string{})
	assert.Error(t, err)

	_, err = EncodeConstructorArgs(abiJSON, []string{"not-an-address"})
	assert.Error(t, err)
}

func TestEncodeConstructorArgs_SizedTypes(t *testing.T) {
	abiJSON := json.RawMessage(`[{
		"type": "constructor",
		"inputs": [
			{"name": "small", "type": "uint8"},
			{"name": "open", "type": "bool"},
			{"name": "label", "type": "string"}
		]
	}]`)

	encoded, err := EncodeConstructorArgs(abiJSON, []string{"16", "true", "nft-marketplace"})
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)

	_, err = EncodeConstructorArgs(abiJSON, []string{"300", "true", "x"})
	assert.Error(t, err) // 300 overflows uint8
}

func TestEncodeConstructorArgs_SignedBounds(t *testing.T) {
	abiJSON := json.RawMessage(`[{
		"type": "constructor",
		"inputs": [{"name": "delta", "type": "int8"}]
	}]`)

	for _, raw := range []string{"-128", "127", "-1"} {
		_, err := EncodeConstructorArgs(abiJSON, []string{raw})
		assert.NoError(t, err, raw)
	}

	// Out-of-range values must be rejected, never wrapped: int8("200")
	// would otherwise encode as -56.
	for _, raw := range []string{"200", "128", "-129"} {
		_, err := EncodeConstructorArgs(abiJSON, []string{raw})
		assert.Error(t, err, raw)
	}
}
