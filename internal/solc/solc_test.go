package solc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintforge/mintforge"
)

func pinnedConfig() mintforge.SolidityConfig {
	return mintforge.DefaultSolidity()
}

// stubSolc writes an executable that mimics solc: it answers --version
// with the given version and --standard-json with the given output.
func stubSolc(t *testing.T, version, standardJSON string) *Compiler {
	t.Helper()

	script := fmt.Sprintf(`#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "solc, the solidity compiler commandline interface"
  echo "Version: %s+commit.c7e474f2.Linux.g++"
  exit 0
fi
cat >/dev/null
cat <<'EOF'
%s
EOF
`, version, standardJSON)

	path := filepath.Join(t.TempDir(), "solc")
	require.NoError(t, os.WriteFile(path, []byte(script), 0700))
	return NewWithBinary(path)
}

const goodOutput = `{
  "errors": [
    {"severity": "warning", "formattedMessage": "Warning: unused variable."}
  ],
  "contracts": {
    "contracts/Marketplace.sol": {
      "Marketplace": {
        "abi": [{"type": "constructor", "inputs": []}],
        "evm": {"bytecode": {"object": "6080604052"}}
      }
    }
  }
}`

func TestParseVersionOutput(t *testing.T) {
	v, err := parseVersionOutput("solc, the solidity compiler commandline interface\nVersion: 0.8.4+commit.c7e474f2.Linux.g++\n")
	require.NoError(t, err)
	assert.Equal(t, "0.8.4", v)
}

func TestParseVersionOutput_Unrecognized(t *testing.T) {
	_, err := parseVersionOutput("not a compiler")
	assert.Error(t, err)
}

func TestVersion_NotInstalled(t *testing.T) {
	c := NewWithBinary(filepath.Join(t.TempDir(), "no-such-solc"))
	_, err := c.Version(context.Background())
	assert.Error(t, err)
}

func TestCompile_Success(t *testing.T) {
	c := stubSolc(t, "0.8.4", goodOutput)

	arts, err := c.Compile(context.Background(), pinnedConfig(), map[string]string{
		"contracts/Marketplace.sol": "pragma solidity 0.8.4; contract Marketplace {}",
	})
	require.NoError(t, err)
	require.Len(t, arts, 1)

	a := arts[0]
	assert.Equal(t, "Marketplace", a.Name)
	assert.Equal(t, "contracts/Marketplace.sol", a.SourcePath)
	assert.Equal(t, "0x6080604052", a.Bytecode)
	assert.Equal(t, "0.8.4", a.CompilerVersion)
	assert.Equal(t, 200, a.OptimizerRuns)
	assert.JSONEq(t, `[{"type":"constructor","inputs":[]}]`, string(a.ABI))
}

func TestCompile_VersionMismatch(t *testing.T) {
	c := stubSolc(t, "0.8.19", goodOutput)

	_, err := c.Compile(context.Background(), pinnedConfig(), map[string]string{
		"contracts/Marketplace.sol": "contract Marketplace {}",
	})
	require.ErrorIs(t, err, ErrVersionMismatch)
	assert.Contains(t, err.Error(), "0.8.19")
	assert.Contains(t, err.Error(), "0.8.4")
}

func TestCompile_CompilerErrors(t *testing.T) {
	c := stubSolc(t, "0.8.4", `{
  "errors": [
    {"severity": "error", "formattedMessage": "ParserError: Expected ';' but got '}'"},
    {"severity": "warning", "formattedMessage": "Warning: ignored"}
  ]
}`)

	_, err := c.Compile(context.Background(), pinnedConfig(), map[string]string{
		"contracts/Broken.sol": "contract Broken {",
	})
	require.Error(t, err)

	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	require.Len(t, cerr.Messages, 1)
	assert.Contains(t, cerr.Messages[0], "ParserError")
}

func TestCompile_NoSources(t *testing.T) {
	c := stubSolc(t, "0.8.4", goodOutput)

	_, err := c.Compile(context.Background(), pinnedConfig(), nil)
	assert.Error(t, err)
}

func TestBuildInput_CarriesOptimizerSettings(t *testing.T) {
	data, err := buildInput(pinnedConfig(), map[string]string{
		"contracts/Marketplace.sol": "contract Marketplace {}",
	})
	require.NoError(t, err)

	var in map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &in))

	assert.JSONEq(t, `"Solidity"`, string(in["language"]))

	var settings struct {
		Optimizer struct {
			Enabled bool `json:"enabled"`
			Runs    int  `json:"runs"`
		} `json:"optimizer"`
		OutputSelection map[string]map[string][]string `json:"outputSelection"`
	}
	require.NoError(t, json.Unmarshal(in["settings"], &settings))
	assert.True(t, settings.Optimizer.Enabled)
	assert.Equal(t, 200, settings.Optimizer.Runs)
	assert.Contains(t, settings.OutputSelection["*"]["*"], "abi")
	assert.Contains(t, settings.OutputSelection["*"]["*"], "evm.bytecode.object")
}

func TestParseOutput_MultipleContractsSorted(t *testing.T) {
	arts, err := parseOutput([]byte(`{
  "contracts": {
    "contracts/All.sol": {
      "Token": {"abi": [], "evm": {"bytecode": {"object": "02"}}},
      "Auction": {"abi": [], "evm": {"bytecode": {"object": "01"}}}
    }
  }
}`), pinnedConfig())
	require.NoError(t, err)
	require.Len(t, arts, 2)
	assert.Equal(t, "Auction", arts[0].Name)
	assert.Equal(t, "Token", arts[1].Name)
}
