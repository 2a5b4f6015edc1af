// Package deployer broadcasts compiled contracts to a configured
// network: preflight checks, gas and nonce assembly, EIP-155 signing,
// and receipt tracking, with every deployment recorded in the artifact
// store.
package deployer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/oklog/ulid/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/mintforge/mintforge"
	"github.com/mintforge/mintforge/internal/artifacts"
)

// Defaults for receipt tracking and chain metadata caching.
const (
	DefaultReceiptTimeout = 2 * time.Minute
	DefaultPollInterval   = 2 * time.Second
	DefaultMetadataTTL    = 30 * time.Second
)

// chainIDs maps the configured network names to the chain ids their
// RPC endpoints must report.
var chainIDs = map[string]int64{
	mintforge.NetworkHardhat: mintforge.LocalChainID,
	mintforge.NetworkMumbai:  80001,
	mintforge.NetworkMainnet: 137,
}

// gas estimates come back tight; pad them so a state change between
// estimate and broadcast doesn't strand the deployment.
const gasHeadroomPercent = 20

// Cache keys for chain metadata.
const (
	cacheKeyChainID  = "chain_id"
	cacheKeyGasPrice = "gas_price"
)

// Config configures a Deployer for one network.
type Config struct {
	Network        string
	Descriptor     mintforge.NetworkConfig
	Client         EthClient
	Signer         Signer
	Store          *artifacts.Store
	Logger         *slog.Logger
	ReceiptTimeout time.Duration
	PollInterval   time.Duration
	MetadataTTL    time.Duration
}

// WithDefaults returns Config with default values applied.
func (c Config) WithDefaults() Config {
	if c.ReceiptTimeout == 0 {
		c.ReceiptTimeout = DefaultReceiptTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MetadataTTL == 0 {
		c.MetadataTTL = DefaultMetadataTTL
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Deployer deploys contracts to a single network.
type Deployer struct {
	cfg  Config
	meta *cache.Cache
}

// New creates a Deployer. The client, signer, and store are required.
func New(cfg Config) (*Deployer, error) {
	cfg = cfg.WithDefaults()
	if cfg.Network == "" {
		return nil, fmt.Errorf("deployer: network name is required")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("deployer: eth client is required")
	}
	if cfg.Signer == nil {
		return nil, fmt.Errorf("deployer: signer is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("deployer: artifact store is required")
	}
	return &Deployer{
		cfg:  cfg,
		meta: cache.New(cfg.MetadataTTL, 2*cfg.MetadataTTL),
	}, nil
}

// Deployment is the result of a completed deployment.
type Deployment struct {
	Record  *artifacts.DeploymentRecord
	GasUsed uint64
}

// Preflight verifies the network is usable before any transaction is
// built: the RPC answers, its chain id matches the descriptor, and the
// deployer account is funded. Checks run concurrently.
func (d *Deployer) Preflight(ctx context.Context) error {
	expected, ok := chainIDs[d.cfg.Network]
	if !ok {
		return wrapDeployError("preflight", "", fmt.Errorf("%w: %s", ErrUnknownChain, d.cfg.Network))
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		chainID, err := d.chainID(ctx)
		if err != nil {
			return fmt.Errorf("query chain id: %w", err)
		}
		if chainID.Int64() != expected {
			return fmt.Errorf("%w: want %d, RPC reports %s", ErrChainMismatch, expected, chainID)
		}
		return nil
	})

	g.Go(func() error {
		balance, err := d.cfg.Client.BalanceAt(ctx, d.cfg.Signer.Address(), nil)
		if err != nil {
			return fmt.Errorf("query balance: %w", err)
		}
		if balance.Sign() == 0 {
			return fmt.Errorf("%w: %s", ErrInsufficientFunds, d.cfg.Signer.Address())
		}
		return nil
	})

	g.Go(func() error {
		if _, err := d.gasPrice(ctx); err != nil {
			return fmt.Errorf("query gas price: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return wrapDeployError("preflight", "", err)
	}

	d.cfg.Logger.Info("preflight passed",
		slog.String("network", d.cfg.Network),
		slog.Int64("chain_id", expected),
		slog.Any("descriptor", d.cfg.Descriptor),
	)
	return nil
}

// Deploy broadcasts the artifact's bytecode (plus ABI-encoded
// constructor args) as a contract creation and waits for the receipt.
// The completed deployment is recorded in the store.
func (d *Deployer) Deploy(ctx context.Context, a *artifacts.Artifact, args []string) (*Deployment, error) {
	if a == nil || a.Bytecode == "" || a.Bytecode == "0x" {
		return nil, wrapDeployError("assemble", artifactName(a), ErrNoBytecode)
	}

	bytecode, err := hexutil.Decode(a.Bytecode)
	if err != nil {
		return nil, wrapDeployError("assemble", a.Name, fmt.Errorf("decode bytecode: %w", err))
	}

	callData := bytecode
	if len(args) > 0 {
		encoded, err := EncodeConstructorArgs(a.ABI, args)
		if err != nil {
			return nil, wrapDeployError("assemble", a.Name, err)
		}
		callData = append(callData, encoded...)
	}

	chainID, err := d.chainID(ctx)
	if err != nil {
		return nil, wrapDeployError("assemble", a.Name, err)
	}

	from := d.cfg.Signer.Address()
	nonce, err := d.cfg.Client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, wrapDeployError("assemble", a.Name, fmt.Errorf("query nonce: %w", err))
	}

	gasPrice, err := d.gasPrice(ctx)
	if err != nil {
		return nil, wrapDeployError("assemble", a.Name, err)
	}

	gasLimit, err := d.cfg.Client.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		Data: callData,
	})
	if err != nil {
		return nil, wrapDeployError("assemble", a.Name, fmt.Errorf("estimate gas: %w", err))
	}
	gasLimit += gasLimit * gasHeadroomPercent / 100

	tx := types.NewContractCreation(nonce, big.NewInt(0), gasLimit, gasPrice, callData)
	signed, err := d.cfg.Signer.SignTx(tx, chainID)
	if err != nil {
		return nil, wrapDeployError("sign", a.Name, err)
	}

	d.cfg.Logger.Info("broadcasting deployment",
		slog.String("network", d.cfg.Network),
		slog.String("contract", a.Name),
		slog.String("tx_hash", signed.Hash().Hex()),
		slog.Uint64("nonce", nonce),
		slog.Uint64("gas_limit", gasLimit),
	)

	if err := d.cfg.Client.SendTransaction(ctx, signed); err != nil {
		return nil, wrapDeployError("broadcast", a.Name, err)
	}

	receipt, err := d.waitReceipt(ctx, signed)
	if err != nil {
		return nil, wrapDeployError("receipt", a.Name, err)
	}
	if receipt.Status != 1 {
		return nil, wrapDeployError("receipt", a.Name,
			fmt.Errorf("%w: tx %s", ErrTxReverted, signed.Hash().Hex()))
	}

	record := &artifacts.DeploymentRecord{
		ID:          ulid.Make().String(),
		Network:     d.cfg.Network,
		Contract:    a.Name,
		Address:     receipt.ContractAddress.Hex(),
		TxHash:      signed.Hash().Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		DeployedAt:  time.Now().UTC(),
	}
	if err := d.cfg.Store.RecordDeployment(record); err != nil {
		return nil, wrapDeployError("record", a.Name, err)
	}

	d.cfg.Logger.Info("contract deployed",
		slog.String("network", d.cfg.Network),
		slog.String("contract", a.Name),
		slog.String("address", record.Address),
		slog.Uint64("block", record.BlockNumber),
	)

	return &Deployment{Record: record, GasUsed: receipt.GasUsed}, nil
}

// waitReceipt polls for the transaction receipt until it lands or the
// receipt timeout elapses.
func (d *Deployer) waitReceipt(ctx context.Context, signed *types.Transaction) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ReceiptTimeout)
	defer cancel()

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := d.cfg.Client.TransactionReceipt(ctx, signed.Hash())
		if err == nil {
			return receipt, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: tx %s after %s", ErrReceiptTimeout, signed.Hash().Hex(), d.cfg.ReceiptTimeout)
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("query receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: tx %s after %s", ErrReceiptTimeout, signed.Hash().Hex(), d.cfg.ReceiptTimeout)
		case <-ticker.C:
		}
	}
}

// chainID returns the RPC's chain id, cached for the metadata TTL.
func (d *Deployer) chainID(ctx context.Context) (*big.Int, error) {
	if v, ok := d.meta.Get(cacheKeyChainID); ok {
		return v.(*big.Int), nil
	}
	chainID, err := d.cfg.Client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("query chain id: %w", err)
	}
	d.meta.SetDefault(cacheKeyChainID, chainID)
	return chainID, nil
}

// gasPrice returns the suggested gas price, cached for the metadata TTL.
func (d *Deployer) gasPrice(ctx context.Context) (*big.Int, error) {
	if v, ok := d.meta.Get(cacheKeyGasPrice); ok {
		return v.(*big.Int), nil
	}
	price, err := d.cfg.Client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	d.meta.SetDefault(cacheKeyGasPrice, price)
	return price, nil
}

func artifactName(a *artifacts.Artifact) string {
	if a == nil {
		return ""
	}
	return a.Name
}
