package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mintforge/mintforge/wallet"
)

// defaultAdminURL is the wallet daemon's admin REST endpoint.
const defaultAdminURL = "http://localhost:3000"

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage wallet service keys",
	Long: `Key commands for the connected wallet service.

Listing goes through the wallet protocol; key creation goes through the
daemon's admin API.

Examples:
  mintctl keys list
  mintctl keys create my-key
  mintctl keys list --wallet-url http://localhost:1789`,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the wallet's keys",
	RunE:  runKeysList,
}

var keysCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new key in the wallet daemon",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysCreate,
}

func init() {
	keysCreateCmd.Flags().String("admin-url", "", "wallet daemon admin URL (or MINTFORGE_ADMIN_URL)")

	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysCreateCmd)

	rootCmd.AddCommand(keysCmd)
}

// walletClient connects to the wallet service using the current
// configuration, verifying it is reachable.
func walletClient(ctx context.Context) (*wallet.Client, error) {
	token, err := getWalletToken()
	if err != nil {
		return nil, err
	}
	return wallet.Connect(ctx, getWalletURL(), token)
}

func runKeysList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := walletClient(ctx)
	if err != nil {
		printError(err)
		return err
	}

	keys, err := client.ListKeys(ctx)
	if err != nil {
		printError(err)
		return err
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"keys":  keys,
			"count": len(keys),
		})
	}

	if len(keys) == 0 {
		fmt.Println("No keys found")
		return nil
	}

	w := newTable()
	printTableHeader(w, "NAME", "PUBLIC KEY")
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%s\n", k.Name, k.PublicKey)
	}
	return w.Flush()
}

func runKeysCreate(cmd *cobra.Command, args []string) error {
	name := args[0]

	adminURL, _ := cmd.Flags().GetString("admin-url")
	if adminURL == "" {
		adminURL = viper.GetString("admin_url")
	}
	if adminURL == "" {
		adminURL = defaultAdminURL
	}

	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, adminURL+"/v1/keys", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		printError(err)
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		printError(err)
		return err
	}

	if resp.StatusCode != http.StatusCreated {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := string(data)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		err := fmt.Errorf("create key failed (%d): %s", resp.StatusCode, msg)
		printError(err)
		return err
	}

	var created struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Address   string `json:"address"`
		PublicKey string `json:"public_key"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		printError(err)
		return err
	}

	if jsonOut {
		return printJSON(created)
	}

	fmt.Printf("%s Created key: %s\n", colorGreen("✓"), created.Name)
	fmt.Printf("  ID:        %s\n", created.ID)
	fmt.Printf("  Address:   %s\n", created.Address)
	fmt.Printf("  PublicKey: %s\n", truncate(created.PublicKey, 40))
	return nil
}
