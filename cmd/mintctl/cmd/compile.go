package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mintforge/mintforge/internal/solc"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile the manifest's contracts",
	Long: `Compile every contract listed in the project manifest and save the
resulting artifacts to the store.

The installed solc version must match the configuration's pinned
compiler version exactly.

Examples:
  mintctl compile
  mintctl compile --solc /usr/local/bin/solc-0.8.4`,
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().String("solc", "", "solc binary to invoke (default: solc from PATH)")
	compileCmd.Flags().Duration("timeout", 2*time.Minute, "compile timeout")

	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m, err := loadManifest()
	if err != nil {
		return err
	}

	sources := make(map[string]string, len(m.Contracts))
	for _, c := range m.Contracts {
		content, err := os.ReadFile(c.Source)
		if err != nil {
			err = fmt.Errorf("read contract source %s: %w", c.Source, err)
			printError(err)
			return err
		}
		sources[c.Source] = string(content)
	}

	compiler := solc.New()
	if binary, _ := cmd.Flags().GetString("solc"); binary != "" {
		compiler = solc.NewWithBinary(binary)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	arts, err := compiler.Compile(ctx, cfg.Solidity, sources)
	if err != nil {
		var compileErr *solc.CompileError
		if errors.As(err, &compileErr) {
			fmt.Fprintf(os.Stderr, "%s compilation failed\n", colorRed("Error:"))
			for _, msg := range compileErr.Messages {
				fmt.Fprintf(os.Stderr, "  %s\n", msg)
			}
			return err
		}
		printError(err)
		return err
	}

	store, err := openStore()
	if err != nil {
		printError(err)
		return err
	}
	defer store.Close()

	for _, a := range arts {
		if err := store.SaveArtifact(a); err != nil {
			printError(err)
			return err
		}
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"artifacts": arts,
			"count":     len(arts),
			"store":     store.Path(),
		})
	}

	fmt.Printf("%s Compiled %d contracts with solc %s\n", colorGreen("✓"), len(arts), cfg.Solidity.Version)
	for _, a := range arts {
		fmt.Printf("  %s (%d bytes of bytecode)\n", a.Name, len(a.Bytecode)/2)
	}
	return nil
}
