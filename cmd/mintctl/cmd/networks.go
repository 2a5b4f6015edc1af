package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mintforge/mintforge"
	"github.com/mintforge/mintforge/internal/artifacts"
	"github.com/mintforge/mintforge/internal/deployer"
)

// localRPCURL is where a local hardhat or anvil node listens.
const localRPCURL = "http://localhost:8545"

// localDeployKey is the first deterministic hardhat dev account. It is
// publicly known and funded only on local development chains.
const localDeployKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "Inspect and check the configured networks",
	Long: `Network commands for the configured deployment targets.

Examples:
  mintctl networks list
  mintctl networks check hardhat
  mintctl networks check mumbai`,
}

var networksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured networks",
	RunE:  runNetworksList,
}

var networksCheckCmd = &cobra.Command{
	Use:   "check <network>",
	Short: "Run preflight checks against a network",
	Long: `Verify a network is ready for deployment: the RPC endpoint answers,
its chain id matches the configuration, and the deployer account holds
funds.`,
	Args: cobra.ExactArgs(1),
	RunE: runNetworksCheck,
}

func init() {
	networksCheckCmd.Flags().Duration("timeout", 30*time.Second, "check timeout")

	networksCmd.AddCommand(networksListCmd)
	networksCmd.AddCommand(networksCheckCmd)

	rootCmd.AddCommand(networksCmd)
}

func runNetworksList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"networks": cfg.Names(),
		})
	}

	w := newTable()
	printTableHeader(w, "NAME", "KIND", "ENDPOINT")
	for _, name := range cfg.Names() {
		n := cfg.Networks[name]
		if n.IsLocal() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", name, "local", localRPCURL)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, "remote", truncate(n.URL, 60))
	}
	return w.Flush()
}

func runNetworksCheck(cmd *cobra.Command, args []string) error {
	network := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	store, err := openStore()
	if err != nil {
		printError(err)
		return err
	}
	defer store.Close()

	d, closeFn, err := newDeployer(ctx, cfg, network, store)
	if err != nil {
		printError(err)
		return err
	}
	defer closeFn()

	if err := d.Preflight(ctx); err != nil {
		printError(err)
		return err
	}

	if jsonOut {
		return printJSON(map[string]string{
			"network": network,
			"status":  "ready",
		})
	}

	fmt.Printf("%s Network %s is ready for deployment\n", colorGreen("✓"), network)
	return nil
}

// newDeployer builds a Deployer for the named network: RPC client,
// signing key, and the given artifact store. The returned func releases
// the RPC connection; the store stays open for the caller.
func newDeployer(ctx context.Context, cfg *mintforge.Config, network string, store *artifacts.Store) (*deployer.Deployer, func(), error) {
	desc, err := cfg.Network(network)
	if err != nil {
		return nil, nil, err
	}

	rpcURL := desc.URL
	keyHex := localDeployKey
	if !desc.IsLocal() {
		if len(desc.Accounts) == 0 {
			return nil, nil, fmt.Errorf("network %s has no signing accounts configured", network)
		}
		keyHex = desc.Accounts[0]
	} else {
		rpcURL = localRPCURL
	}

	client, err := deployer.Dial(ctx, rpcURL)
	if err != nil {
		return nil, nil, err
	}

	signer, err := deployer.NewKeySigner(keyHex)
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	d, err := deployer.New(deployer.Config{
		Network:    network,
		Descriptor: desc,
		Client:     client,
		Signer:     signer,
		Store:      store,
	})
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	return d, client.Close, nil
}
