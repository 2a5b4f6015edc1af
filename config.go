// Package mintforge assembles the deployment configuration for the
// MintForge contract toolchain: network targets, signing credentials
// read from a local secrets file, and Solidity compiler settings.
package mintforge

import (
	"log/slog"
	"sort"
)

// Network names understood by the toolchain.
const (
	NetworkHardhat = "hardhat"
	NetworkMumbai  = "mumbai"
	NetworkMainnet = "mainnet"
)

// Fixed deployment parameters. These mirror the project's published
// deployment targets and are never derived from user input.
const (
	LocalChainID    = 1337
	InfuraProjectID = "3218541e3d3441acbc2090f640263689"
	SolidityVersion = "0.8.4"
	OptimizerRuns   = 200

	DefaultSecretsPath = ".secret"
)

// Infura slugs for the remote Polygon targets.
const (
	slugMumbai  = "polygon-mumbai"
	slugMainnet = "polygon-mainnet"

	infuraURLTemplate = "https://%s.infura.io/v3/%s"
)

// Config is the assembled deployment configuration consumed by the
// compile and deploy pipeline. It is read-only after Load returns;
// nothing in the toolchain mutates it.
type Config struct {
	Networks map[string]NetworkConfig `json:"networks"`
	Solidity SolidityConfig           `json:"solidity"`
}

// NetworkConfig describes one network target. A local target carries only
// a chain ID; a remote target carries an RPC URL plus the signing
// credentials. Exactly one of the two shapes is populated per descriptor.
type NetworkConfig struct {
	ChainID  int      `json:"chainId,omitempty"`
	URL      string   `json:"url,omitempty"`
	Accounts []string `json:"accounts,omitempty"`
}

// SolidityConfig pins the compiler version and its settings.
type SolidityConfig struct {
	Version  string           `json:"version"`
	Settings SoliditySettings `json:"settings"`
}

// SoliditySettings holds compiler tuning knobs.
type SoliditySettings struct {
	Optimizer OptimizerConfig `json:"optimizer"`
}

// OptimizerConfig controls the bytecode optimizer.
type OptimizerConfig struct {
	Enabled bool `json:"enabled"`
	Runs    int  `json:"runs"`
}

// DefaultSolidity returns the pinned compiler settings.
func DefaultSolidity() SolidityConfig {
	return SolidityConfig{
		Version: SolidityVersion,
		Settings: SoliditySettings{
			Optimizer: OptimizerConfig{
				Enabled: true,
				Runs:    OptimizerRuns,
			},
		},
	}
}

// Validate checks the descriptor shape invariant and the compiler pin.
func (c *Config) Validate() error {
	if len(c.Networks) == 0 {
		return NewShapeError("networks", "no network descriptors")
	}
	for _, name := range c.Names() {
		n := c.Networks[name]
		field := "networks." + name
		switch {
		case n.ChainID != 0 && n.URL != "":
			return NewShapeError(field, "descriptor has both chainId and url")
		case n.ChainID == 0 && n.URL == "":
			return NewShapeError(field, "descriptor has neither chainId nor url")
		case n.ChainID != 0 && len(n.Accounts) > 0:
			return NewShapeError(field, "local descriptor must not carry accounts")
		case n.ChainID < 0:
			return NewShapeError(field, "chainId must be positive")
		}
	}
	if c.Solidity.Version == "" {
		return NewShapeError("solidity.version", "compiler version is empty")
	}
	if c.Solidity.Settings.Optimizer.Runs <= 0 {
		return NewShapeError("solidity.settings.optimizer.runs", "optimizer runs must be positive")
	}
	return nil
}

// Network returns the descriptor for name.
func (c Config) Network(name string) (NetworkConfig, error) {
	n, ok := c.Networks[name]
	if !ok {
		return NetworkConfig{}, &ShapeError{
			Field:   "networks." + name,
			Message: "no such descriptor",
			Err:     ErrUnknownNetwork,
		}
	}
	return n, nil
}

// Names returns the network names in sorted order.
func (c Config) Names() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsLocal reports whether the descriptor targets a local/simulated chain.
func (n NetworkConfig) IsLocal() bool {
	return n.URL == ""
}

// Redacted returns a deep copy with credential material masked. Use it on
// any surface that prints or persists the configuration.
func (c Config) Redacted() Config {
	out := Config{
		Networks: make(map[string]NetworkConfig, len(c.Networks)),
		Solidity: c.Solidity,
	}
	for name, n := range c.Networks {
		rn := NetworkConfig{ChainID: n.ChainID, URL: n.URL}
		if n.Accounts != nil {
			rn.Accounts = make([]string, len(n.Accounts))
			for i := range n.Accounts {
				rn.Accounts[i] = redactedCredential
			}
		}
		out.Networks[name] = rn
	}
	return out
}

const redactedCredential = "****"

// LogValue implements slog.LogValuer so a descriptor can be logged
// without exposing credential material.
func (n NetworkConfig) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 3)
	if n.ChainID != 0 {
		attrs = append(attrs, slog.Int("chain_id", n.ChainID))
	}
	if n.URL != "" {
		attrs = append(attrs, slog.String("url", n.URL))
	}
	attrs = append(attrs, slog.Int("accounts", len(n.Accounts)))
	return slog.GroupValue(attrs...)
}
