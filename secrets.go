package mintforge

import (
	"fmt"
	"os"
	"strings"
)

// Load reads the secrets file at DefaultSecretsPath and assembles the
// deployment configuration. See LoadFrom.
func Load() (*Config, error) {
	return LoadFrom(DefaultSecretsPath)
}

// LoadFrom reads the credential at path and assembles the deployment
// configuration: the local hardhat target, the two Polygon targets with
// the credential attached, and the pinned compiler settings.
//
// The load is all-or-nothing. Any failure aborts with a nil Config so a
// partial configuration can never reach the deploy pipeline. Loading is
// a pure function of the file contents: repeated calls yield
// structurally identical configurations.
//
// The credential is held in memory only. It is never written back to
// disk and never logged; use Redacted for any display surface.
func LoadFrom(path string) (*Config, error) {
	secret, err := readSecret(path)
	if err != nil {
		return nil, err
	}
	return assemble(secret)
}

// readSecret performs the single scoped filesystem read of the load:
// open, read, close on every path, including failures.
func readSecret(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &LoadError{Path: path, Err: err}
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", &ShapeError{
			Field:   "accounts",
			Message: fmt.Sprintf("secrets file %q holds no credential", path),
			Err:     ErrSecretsEmpty,
		}
	}
	return secret, nil
}

func assemble(secret string) (*Config, error) {
	mumbaiURL, err := ProviderURL(slugMumbai, InfuraProjectID)
	if err != nil {
		return nil, err
	}
	mainnetURL, err := ProviderURL(slugMainnet, InfuraProjectID)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Networks: map[string]NetworkConfig{
			NetworkHardhat: {ChainID: LocalChainID},
			NetworkMumbai:  {URL: mumbaiURL, Accounts: []string{secret}},
			NetworkMainnet: {URL: mainnetURL, Accounts: []string{secret}},
		},
		Solidity: DefaultSolidity(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProviderURL interpolates a provider project id into the RPC endpoint
// template for the given network slug.
func ProviderURL(slug, projectID string) (string, error) {
	if slug == "" {
		return "", NewShapeError("url", "network slug is empty")
	}
	if projectID == "" {
		return "", &ShapeError{
			Field:   "url",
			Message: "provider project id is empty",
			Err:     ErrProjectIDEmpty,
		}
	}
	return fmt.Sprintf(infuraURLTemplate, slug, projectID), nil
}
