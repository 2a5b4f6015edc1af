package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mintforge/mintforge"
	"github.com/mintforge/mintforge/internal/manifest"
	"github.com/mintforge/mintforge/wallet"
)

var (
	// Version is set at build time.
	Version = "dev"

	// Global flags
	cfgFile      string
	secretsPath  string
	manifestPath string
	walletURL    string
	walletToken  string
	jsonOut      bool
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "mintctl",
	Short: "MintForge CLI - compile, deploy, and manage contracts",
	Long: `mintctl is the command-line interface for the MintForge toolchain.

Use it to compile Solidity contracts, deploy them to the configured
networks, inspect the artifact store, and drive a local wallet service.

Configuration (in order of priority):
  1. Command-line flags (--secrets, --manifest, --wallet-url, --wallet-token)
  2. Environment variables (MINTFORGE_SECRETS, MINTFORGE_MANIFEST, ...)
  3. Config file (~/.mintforge.yaml)

Get started:
  $ mintctl config show        # Inspect the deployment configuration
  $ mintctl compile            # Compile the manifest's contracts
  $ mintctl deploy hardhat     # Deploy to the local hardhat node`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mintctl version %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.mintforge.yaml)")
	rootCmd.PersistentFlags().StringVar(&secretsPath, "secrets", "", "secrets file path (or MINTFORGE_SECRETS)")
	rootCmd.PersistentFlags().StringVar(&manifestPath, "manifest", "", "project manifest path (or MINTFORGE_MANIFEST)")
	rootCmd.PersistentFlags().StringVar(&walletURL, "wallet-url", "", "wallet service URL (or MINTFORGE_WALLET_URL)")
	rootCmd.PersistentFlags().StringVar(&walletToken, "wallet-token", "", "wallet service token (or MINTFORGE_WALLET_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")

	// Add commands
	rootCmd.AddCommand(versionCmd)
}

// initConfig initializes viper configuration.
func initConfig() {
	// Set defaults
	viper.SetDefault("secrets", mintforge.DefaultSecretsPath)
	viper.SetDefault("manifest", manifest.DefaultPath)
	viper.SetDefault("wallet_url", wallet.DefaultBaseURL)

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".mintforge")
		}
	}

	// Environment variables
	viper.SetEnvPrefix("MINTFORGE")
	viper.AutomaticEnv()
	_ = viper.BindEnv("secrets", "MINTFORGE_SECRETS")
	_ = viper.BindEnv("manifest", "MINTFORGE_MANIFEST")
	_ = viper.BindEnv("wallet_url", "MINTFORGE_WALLET_URL")
	_ = viper.BindEnv("wallet_token", "MINTFORGE_WALLET_TOKEN")
	_ = viper.BindEnv("admin_url", "MINTFORGE_ADMIN_URL")

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// getSecretsPath returns the secrets file path from flags, env, or config.
func getSecretsPath() string {
	if secretsPath != "" {
		return secretsPath
	}
	return viper.GetString("secrets")
}

// getManifestPath returns the manifest path from flags, env, or config.
func getManifestPath() string {
	if manifestPath != "" {
		return manifestPath
	}
	return viper.GetString("manifest")
}

// getWalletURL returns the wallet service URL from flags, env, or config.
func getWalletURL() string {
	if walletURL != "" {
		return walletURL
	}
	return viper.GetString("wallet_url")
}

// getWalletToken returns the wallet token from flags, env, or config.
func getWalletToken() (string, error) {
	if walletToken != "" {
		return walletToken, nil
	}
	token := viper.GetString("wallet_token")
	if token == "" {
		return "", fmt.Errorf("wallet token required. Set via --wallet-token, MINTFORGE_WALLET_TOKEN, or ~/.mintforge.yaml")
	}
	return token, nil
}

// loadConfig assembles the deployment configuration from the secrets
// file resolved by the current flags.
func loadConfig() (*mintforge.Config, error) {
	cfg, err := mintforge.LoadFrom(getSecretsPath())
	if err != nil {
		printError(err)
		return nil, err
	}
	return cfg, nil
}

// loadManifest loads and validates the project manifest.
func loadManifest() (*manifest.Manifest, error) {
	m, err := manifest.Load(getManifestPath())
	if err != nil {
		printError(err)
		return nil, err
	}
	return m, nil
}

// Output helpers

// printJSON outputs data as formatted JSON.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printError prints an error message.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s %s\n", colorRed("Error:"), err.Error())
}

// newTable creates a new tabwriter for formatted output.
func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

// printTableHeader prints a bold header row.
func printTableHeader(w *tabwriter.Writer, columns ...string) {
	for i, col := range columns {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, colorBold(col))
	}
	fmt.Fprintln(w)
}

// Terminal colors

func colorRed(s string) string {
	if !isTTY() {
		return s
	}
	return "\033[31m" + s + "\033[0m"
}

func colorGreen(s string) string {
	if !isTTY() {
		return s
	}
	return "\033[32m" + s + "\033[0m"
}

func colorYellow(s string) string {
	if !isTTY() {
		return s
	}
	return "\033[33m" + s + "\033[0m"
}

func colorBold(s string) string {
	if !isTTY() {
		return s
	}
	return "\033[1m" + s + "\033[0m"
}

func isTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
