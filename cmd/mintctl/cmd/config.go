package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the deployment configuration",
	Long: `Configuration commands for the assembled deployment configuration.

The configuration is built from the secrets file and the project's fixed
network targets. Signing credentials are never printed.

Examples:
  mintctl config show
  mintctl config validate
  mintctl config show --secrets /path/to/.secret`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the assembled configuration",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the secrets file and configuration shape",
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	redacted := cfg.Redacted()

	if jsonOut {
		return printJSON(redacted)
	}

	fmt.Printf("Solidity:  %s (optimizer: %v, runs: %d)\n",
		redacted.Solidity.Version,
		redacted.Solidity.Settings.Optimizer.Enabled,
		redacted.Solidity.Settings.Optimizer.Runs,
	)
	fmt.Println("Networks:")

	w := newTable()
	printTableHeader(w, "NAME", "KIND", "CHAIN ID", "URL", "ACCOUNTS")
	for _, name := range redacted.Names() {
		n := redacted.Networks[name]
		kind := "remote"
		chainID := "-"
		url := truncate(n.URL, 48)
		if n.IsLocal() {
			kind = "local"
			chainID = fmt.Sprintf("%d", n.ChainID)
			url = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", name, kind, chainID, url, len(n.Accounts))
	}
	return w.Flush()
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Load already validated; report what passed.
	names := cfg.Names()
	sort.Strings(names)

	if jsonOut {
		return printJSON(map[string]interface{}{
			"status":   "valid",
			"networks": names,
			"solidity": cfg.Solidity.Version,
		})
	}

	fmt.Printf("%s Configuration is valid\n", colorGreen("✓"))
	fmt.Printf("  Secrets:   %s\n", getSecretsPath())
	fmt.Printf("  Networks:  %v\n", names)
	fmt.Printf("  Solidity:  %s\n", cfg.Solidity.Version)
	return nil
}
