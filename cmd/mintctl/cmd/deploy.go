package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var deployCmd = &cobra.Command{
	Use:   "deploy <network>",
	Short: "Deploy contracts to a network",
	Long: `Deploy the manifest's planned contracts to a configured network.

The network is preflight-checked first: the RPC endpoint must answer,
its chain id must match the configuration, and the deployer account
must hold funds. Contracts deploy in the order the manifest lists them,
and every deployment is recorded in the artifact store.

Examples:
  mintctl deploy hardhat
  mintctl deploy mumbai --contract MintForgeToken
  mintctl deploy mainnet --timeout 10m`,
	Args: cobra.ExactArgs(1),
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().String("contract", "", "deploy only this contract from the plan")
	deployCmd.Flags().Duration("timeout", 5*time.Minute, "overall deploy timeout")

	rootCmd.AddCommand(deployCmd)
}

func runDeploy(cmd *cobra.Command, args []string) error {
	network := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m, err := loadManifest()
	if err != nil {
		return err
	}

	plan, err := m.Plan(network)
	if err != nil {
		printError(err)
		return err
	}

	if only, _ := cmd.Flags().GetString("contract"); only != "" {
		filtered := plan[:0]
		for _, step := range plan {
			if step.Contract == only {
				filtered = append(filtered, step)
			}
		}
		if len(filtered) == 0 {
			err := fmt.Errorf("contract %s is not planned for network %s", only, network)
			printError(err)
			return err
		}
		plan = filtered
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

	type deployResult struct {
		Contract string `json:"contract"`
		Address  string `json:"address"`
		TxHash   string `json:"txHash"`
		Block    uint64 `json:"block"`
		GasUsed  uint64 `json:"gasUsed"`
	}
	results := make([]deployResult, 0, len(plan))

	for _, step := range plan {
		artifact, err := store.Artifact(step.Contract)
		if err != nil {
			err = fmt.Errorf("artifact for %s not found, run 'mintctl compile' first: %w", step.Contract, err)
			printError(err)
			return err
		}

		if !jsonOut {
			fmt.Printf("Deploying %s to %s...\n", step.Contract, network)
		}

		dep, err := d.Deploy(ctx, artifact, step.Args)
		if err != nil {
			printError(err)
			return err
		}

		results = append(results, deployResult{
			Contract: dep.Record.Contract,
			Address:  dep.Record.Address,
			TxHash:   dep.Record.TxHash,
			Block:    dep.Record.BlockNumber,
			GasUsed:  dep.GasUsed,
		})

		if !jsonOut {
			fmt.Printf("%s %s deployed\n", colorGreen("✓"), dep.Record.Contract)
			fmt.Printf("  Address:  %s\n", dep.Record.Address)
			fmt.Printf("  TxHash:   %s\n", dep.Record.TxHash)
			fmt.Printf("  Block:    %d\n", dep.Record.BlockNumber)
			fmt.Printf("  Gas used: %d\n", dep.GasUsed)
		}
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"network":     network,
			"deployments": results,
			"count":       len(results),
		})
	}

	fmt.Printf("\n%s Deployed %d contracts to %s\n", colorGreen("✓"), len(results), network)
	return nil
}
