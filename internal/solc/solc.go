// Package solc invokes an installed Solidity compiler through its
// --standard-json interface. The compiler itself stays external; this
// package only builds its input, enforces the pinned version, and
// parses ABI and bytecode out of the result.
package solc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mintforge/mintforge"
	"github.com/mintforge/mintforge/internal/artifacts"
)

// DefaultBinary is the compiler executable looked up on PATH.
const DefaultBinary = "solc"

// Sentinel errors
var (
	ErrNotInstalled    = errors.New("solc: compiler not found")
	ErrVersionMismatch = errors.New("solc: compiler version mismatch")
)

// CompileError carries the compiler's own error messages verbatim.
type CompileError struct {
	Messages []string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("solc: compilation failed:\n%s", strings.Join(e.Messages, "\n"))
}

// Compiler shells out to a solc binary.
type Compiler struct {
	binary string
}

// New creates a Compiler using the solc binary on PATH.
func New() *Compiler {
	return &Compiler{binary: DefaultBinary}
}

// NewWithBinary creates a Compiler using an explicit executable path.
func NewWithBinary(binary string) *Compiler {
	return &Compiler{binary: binary}
}

// Version reports the installed compiler's semantic version.
func (c *Compiler) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, c.binary, "--version").Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrNotInstalled, c.binary)
		}
		return "", fmt.Errorf("solc: query version: %w", err)
	}
	return parseVersionOutput(string(out))
}

var versionRe = regexp.MustCompile(`Version:\s*(\d+\.\d+\.\d+)`)

// parseVersionOutput extracts the semantic version from solc --version.
func parseVersionOutput(out string) (string, error) {
	m := versionRe.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("solc: unrecognized version output %q", strings.TrimSpace(out))
	}
	return m[1], nil
}

// Compile runs the pinned compiler over the given sources (path ->
// content) and returns one artifact per contract. The installed
// compiler version must match the configured pin exactly; a compiler
// the configuration never asked for must not produce deployable
// bytecode.
func (c *Compiler) Compile(ctx context.Context, cfg mintforge.SolidityConfig, sources map[string]string) ([]*artifacts.Artifact, error) {
	installed, err := c.Version(ctx)
	if err != nil {
		return nil, err
	}
	if installed != cfg.Version {
		return nil, fmt.Errorf("%w: have %s, configuration pins %s", ErrVersionMismatch, installed, cfg.Version)
	}

	input, err := buildInput(cfg, sources)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, c.binary, "--standard-json")
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("solc: run compiler: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	return parseOutput(stdout.Bytes(), cfg)
}

// Standard JSON wire shapes.

type standardInput struct {
	Language string                 `json:"language"`
	Sources  map[string]sourceInput `json:"sources"`
	Settings standardSettings       `json:"settings"`
}

type sourceInput struct {
	Content string `json:"content"`
}

type standardSettings struct {
	Optimizer       optimizerInput                 `json:"optimizer"`
	OutputSelection map[string]map[string][]string `json:"outputSelection"`
}

type optimizerInput struct {
	Enabled bool `json:"enabled"`
	Runs    int  `json:"runs"`
}

type standardOutput struct {
	Errors    []compilerMessage                    `json:"errors"`
	Contracts map[string]map[string]contractOutput `json:"contracts"`
}

type compilerMessage struct {
	Severity         string `json:"severity"`
	FormattedMessage string `json:"formattedMessage"`
	Message          string `json:"message"`
}

type contractOutput struct {
	ABI json.RawMessage `json:"abi"`
	EVM struct {
		Bytecode struct {
			Object string `json:"object"`
		} `json:"bytecode"`
	} `json:"evm"`
}

// buildInput assembles the --standard-json request from the compiler
// configuration and sources.
func buildInput(cfg mintforge.SolidityConfig, sources map[string]string) ([]byte, error) {
	if len(sources) == 0 {
		return nil, errors.New("solc: no sources to compile")
	}

	in := standardInput{
		Language: "Solidity",
		Sources:  make(map[string]sourceInput, len(sources)),
		Settings: standardSettings{
			Optimizer: optimizerInput{
				Enabled: cfg.Settings.Optimizer.Enabled,
				Runs:    cfg.Settings.Optimizer.Runs,
			},
			OutputSelection: map[string]map[string][]string{
				"*": {"*": {"abi", "evm.bytecode.object"}},
			},
		},
	}
	for path, content := range sources {
		in.Sources[path] = sourceInput{Content: content}
	}

	return json.Marshal(in)
}

// parseOutput converts the compiler result into artifacts. Compiler
// errors surface verbatim; warnings are ignored here and left to the
// compiler's own stderr conventions.
func parseOutput(data []byte, cfg mintforge.SolidityConfig) ([]*artifacts.Artifact, error) {
	var out standardOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("solc: parse compiler output: %w", err)
	}

	var messages []string
	for _, msg := range out.Errors {
		if msg.Severity != "error" {
			continue
		}
		text := msg.FormattedMessage
		if text == "" {
			text = msg.Message
		}
		messages = append(messages, text)
	}
	if len(messages) > 0 {
		return nil, &CompileError{Messages: messages}
	}

	now := time.Now().UTC()
	var result []*artifacts.Artifact
	for sourcePath, contracts := range out.Contracts {
		for name, contract := range contracts {
			bytecode := contract.EVM.Bytecode.Object
			if bytecode != "" && !strings.HasPrefix(bytecode, "0x") {
				bytecode = "0x" + bytecode
			}
			result = append(result, &artifacts.Artifact{
				Name:            name,
				SourcePath:      sourcePath,
				ABI:             contract.ABI,
				Bytecode:        bytecode,
				CompilerVersion: cfg.Version,
				OptimizerRuns:   cfg.Settings.Optimizer.Runs,
				CompiledAt:      now,
			})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
