package mintforge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSecrets creates a secrets file with the given contents and returns
// its path.
func writeSecrets(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".secret")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestLoadFrom_AttachesCredentialToRemoteNetworks(t *testing.T) {
	cfg, err := LoadFrom(writeSecrets(t, "abc123"))
	require.NoError(t, err)

	for _, name := range []string{NetworkMumbai, NetworkMainnet} {
		n, err := cfg.Network(name)
		require.NoError(t, err)
		assert.Equal(t, []string{"abc123"}, n.Accounts, "network %s", name)
	}
}

func TestLoadFrom_TrimsCredentialWhitespace(t *testing.T) {
	cfg, err := LoadFrom(writeSecrets(t, "  abc123\n"))
	require.NoError(t, err)

	n, err := cfg.Network(NetworkMumbai)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc123"}, n.Accounts)
}

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope"))

	require.Error(t, err)
	assert.Nil(t, cfg, "no partial configuration on failure")

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, ErrSecretsNotFound)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFrom_EmptyFile(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{name: "zero bytes", contents: ""},
		{name: "whitespace only", contents: "  \n\t\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(writeSecrets(t, tt.contents))

			require.Error(t, err)
			assert.Nil(t, cfg)

			var shapeErr *ShapeError
			require.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, "accounts", shapeErr.Field)
			assert.ErrorIs(t, err, ErrSecretsEmpty)
		})
	}
}

func TestLoadFrom_LocalChainIDIsFixed(t *testing.T) {
	// The local descriptor does not depend on the secrets file contents.
	for _, secret := range []string{"abc123", "deadbeef", "0x11"} {
		cfg, err := LoadFrom(writeSecrets(t, secret))
		require.NoError(t, err)

		local, err := cfg.Network(NetworkHardhat)
		require.NoError(t, err)
		assert.Equal(t, 1337, local.ChainID)
		assert.Empty(t, local.URL)
		assert.Empty(t, local.Accounts)
	}
}

func TestLoadFrom_CompilerSettingsAreFixed(t *testing.T) {
	cfg, err := LoadFrom(writeSecrets(t, "abc123"))
	require.NoError(t, err)

	assert.Equal(t, "0.8.4", cfg.Solidity.Version)
	assert.True(t, cfg.Solidity.Settings.Optimizer.Enabled)
	assert.Equal(t, 200, cfg.Solidity.Settings.Optimizer.Runs)
}

func TestLoadFrom_InterpolatesProviderURLs(t *testing.T) {
	cfg, err := LoadFrom(writeSecrets(t, "abc123"))
	require.NoError(t, err)

	mumbai, err := cfg.Network(NetworkMumbai)
	require.NoError(t, err)
	assert.Equal(t,
		"https://polygon-mumbai.infura.io/v3/3218541e3d3441acbc2090f640263689",
		mumbai.URL)

	mainnet, err := cfg.Network(NetworkMainnet)
	require.NoError(t, err)
	assert.Equal(t,
		"https://polygon-mainnet.infura.io/v3/3218541e3d3441acbc2090f640263689",
		mainnet.URL)
}

func TestLoadFrom_IsIdempotent(t *testing.T) {
	path := writeSecrets(t, "abc123")

	first, err := LoadFrom(path)
	require.NoError(t, err)
	second, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotSame(t, first, second, "each load returns a fresh object")
}

func TestLoadFrom_ValidatesAssembledShape(t *testing.T) {
	cfg, err := LoadFrom(writeSecrets(t, "abc123"))
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestProviderURL(t *testing.T) {
	url, err := ProviderURL("polygon-mumbai", InfuraProjectID)
	require.NoError(t, err)
	assert.Equal(t,
		"https://polygon-mumbai.infura.io/v3/3218541e3d3441acbc2090f640263689",
		url)
}

func TestProviderURL_EmptyProjectID(t *testing.T) {
	url, err := ProviderURL("polygon-mumbai", "")

	require.Error(t, err)
	assert.Empty(t, url)

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.ErrorIs(t, err, ErrProjectIDEmpty)
}

func TestProviderURL_EmptySlug(t *testing.T) {
	url, err := ProviderURL("", InfuraProjectID)

	require.Error(t, err)
	assert.Empty(t, url)

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "url", shapeErr.Field)
}

func TestLoadFrom_UnreadableFile(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	path := writeSecrets(t, "abc123")
	require.NoError(t, os.Chmod(path, 0000))

	cfg, err := LoadFrom(path)

	require.Error(t, err)
	assert.Nil(t, cfg)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.NotErrorIs(t, err, ErrSecretsNotFound)
}
