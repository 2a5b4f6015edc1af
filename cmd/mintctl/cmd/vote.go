package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mintforge/mintforge/wallet"
)

var voteCmd = &cobra.Command{
	Use:   "vote <proposal-id>",
	Short: "Cast a governance vote",
	Long: `Cast a governance vote on a proposal through the wallet service.

Examples:
  mintctl vote 01HXYZ... --pubkey <hex> --value yes
  mintctl vote 01HXYZ... --pubkey <hex> --value no`,
	Args: cobra.ExactArgs(1),
	RunE: runVote,
}

func init() {
	voteCmd.Flags().String("pubkey", "", "signing key's public key (required)")
	voteCmd.Flags().String("value", "", "vote value: yes or no (required)")
	_ = voteCmd.MarkFlagRequired("pubkey")
	_ = voteCmd.MarkFlagRequired("value")

	rootCmd.AddCommand(voteCmd)
}

func runVote(cmd *cobra.Command, args []string) error {
	proposalID := args[0]
	pubKey, _ := cmd.Flags().GetString("pubkey")
	valueStr, _ := cmd.Flags().GetString("value")

	var value wallet.VoteValue
	switch strings.ToLower(valueStr) {
	case "yes":
		value = wallet.VoteValueYes
	case "no":
		value = wallet.VoteValueNo
	default:
		return fmt.Errorf("invalid vote value %q: want yes or no", valueStr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := walletClient(ctx)
	if err != nil {
		printError(err)
		return err
	}

	sent, err := client.SendTransaction(ctx, pubKey, wallet.VoteSubmission{
		ProposalID: proposalID,
		Value:      value,
	})
	if err != nil {
		printError(err)
		return err
	}

	if jsonOut {
		return printJSON(sent)
	}

	fmt.Printf("%s Vote submitted\n", colorGreen("✓"))
	fmt.Printf("  Proposal: %s\n", proposalID)
	fmt.Printf("  Value:    %s\n", strings.ToLower(valueStr))
	fmt.Printf("  TxHash:   %s\n", sent.TransactionHash)
	return nil
}
