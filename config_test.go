package mintforge

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstants(t *testing.T) {
	assert.Equal(t, 1337, LocalChainID)
	assert.Equal(t, "3218541e3d3441acbc2090f640263689", InfuraProjectID)
	assert.Equal(t, "0.8.4", SolidityVersion)
	assert.Equal(t, 200, OptimizerRuns)
	assert.Equal(t, ".secret", DefaultSecretsPath)

	assert.Equal(t, "hardhat", NetworkHardhat)
	assert.Equal(t, "mumbai", NetworkMumbai)
	assert.Equal(t, "mainnet", NetworkMainnet)
}

func TestDefaultSolidity(t *testing.T) {
	sol := DefaultSolidity()

	assert.Equal(t, SolidityVersion, sol.Version)
	assert.True(t, sol.Settings.Optimizer.Enabled)
	assert.Equal(t, OptimizerRuns, sol.Settings.Optimizer.Runs)
}

func validConfig() *Config {
	return &Config{
		Networks: map[string]NetworkConfig{
			NetworkHardhat: {ChainID: LocalChainID},
			NetworkMumbai:  {URL: "https://polygon-mumbai.example", Accounts: []string{"abc123"}},
		},
		Solidity: DefaultSolidity(),
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_DescriptorShapes(t *testing.T) {
	tests := []struct {
		name    string
		network NetworkConfig
		field   string
	}{
		{
			name:    "both chainId and url",
			network: NetworkConfig{ChainID: 1337, URL: "https://rpc.example"},
			field:   "networks.bad",
		},
		{
			name:    "neither chainId nor url",
			network: NetworkConfig{},
			field:   "networks.bad",
		},
		{
			name:    "local descriptor with accounts",
			network: NetworkConfig{ChainID: 1337, Accounts: []string{"abc123"}},
			field:   "networks.bad",
		},
		{
			name:    "negative chainId",
			network: NetworkConfig{ChainID: -1},
			field:   "networks.bad",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Networks["bad"] = tt.network

			err := cfg.Validate()
			require.Error(t, err)

			var shapeErr *ShapeError
			require.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, tt.field, shapeErr.Field)
		})
	}
}

func TestConfig_Validate_CompilerPin(t *testing.T) {
	cfg := validConfig()
	cfg.Solidity.Version = ""
	var shapeErr *ShapeError
	require.ErrorAs(t, cfg.Validate(), &shapeErr)
	assert.Equal(t, "solidity.version", shapeErr.Field)

	cfg = validConfig()
	cfg.Solidity.Settings.Optimizer.Runs = 0
	require.ErrorAs(t, cfg.Validate(), &shapeErr)
	assert.Equal(t, "solidity.settings.optimizer.runs", shapeErr.Field)
}

func TestConfig_Validate_NoNetworks(t *testing.T) {
	cfg := &Config{Solidity: DefaultSolidity()}

	err := cfg.Validate()
	require.Error(t, err)

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "networks", shapeErr.Field)
}

func TestConfig_Network(t *testing.T) {
	cfg := validConfig()

	n, err := cfg.Network(NetworkHardhat)
	require.NoError(t, err)
	assert.Equal(t, LocalChainID, n.ChainID)
}

func TestConfig_Network_Unknown(t *testing.T) {
	cfg := validConfig()

	_, err := cfg.Network("goerli")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownNetwork)
}

func TestConfig_Names_Sorted(t *testing.T) {
	cfg := &Config{
		Networks: map[string]NetworkConfig{
			"zeta":  {ChainID: 1},
			"alpha": {ChainID: 2},
			"mid":   {ChainID: 3},
		},
	}

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, cfg.Names())
}

func TestNetworkConfig_IsLocal(t *testing.T) {
	assert.True(t, NetworkConfig{ChainID: 1337}.IsLocal())
	assert.False(t, NetworkConfig{URL: "https://rpc.example"}.IsLocal())
}

func TestConfig_Redacted(t *testing.T) {
	cfg := validConfig()
	red := cfg.Redacted()

	n := red.Networks[NetworkMumbai]
	assert.Equal(t, []string{"****"}, n.Accounts)
	assert.Equal(t, cfg.Networks[NetworkMumbai].URL, n.URL)

	// Local descriptor keeps its nil accounts slice.
	assert.Nil(t, red.Networks[NetworkHardhat].Accounts)

	// The original is untouched.
	assert.Equal(t, []string{"abc123"}, cfg.Networks[NetworkMumbai].Accounts)
}

func TestConfig_Redacted_JSONCarriesNoCredential(t *testing.T) {
	cfg := validConfig()

	data, err := json.Marshal(cfg.Redacted())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "abc123")
}

func TestNetworkConfig_LogValue_OmitsCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	n := NetworkConfig{URL: "https://rpc.example", Accounts: []string{"abc123"}}
	logger.Info("network", "descriptor", n)

	assert.NotContains(t, buf.String(), "abc123")
	assert.Contains(t, buf.String(), "https://rpc.example")
}

func TestConfig_JSONSurface(t *testing.T) {
	cfg := validConfig()

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "networks")
	assert.Contains(t, decoded, "solidity")

	// Local descriptors serialize as chainId-only objects.
	var networks map[string]map[string]any
	require.NoError(t, json.Unmarshal(decoded["networks"], &networks))
	assert.Equal(t, map[string]any{"chainId": float64(1337)}, networks[NetworkHardhat])
}
