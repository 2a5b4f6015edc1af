package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mintforge/mintforge/wallet"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Submit and cancel marketplace orders",
	Long: `Order commands sent through the connected wallet service.

Examples:
  mintctl orders submit --pubkey <hex> --market <id> --side buy --size 10 --price 123456
  mintctl orders submit --pubkey <hex> --market <id> --side sell --size 5 --type market
  mintctl orders cancel --pubkey <hex> --market <id> --order <id>`,
}

var ordersSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit an order",
	RunE:  runOrdersSubmit,
}

var ordersCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel an order",
	RunE:  runOrdersCancel,
}

func init() {
	ordersSubmitCmd.Flags().String("pubkey", "", "signing key's public key (required)")
	ordersSubmitCmd.Flags().String("market", "", "market ID (required)")
	ordersSubmitCmd.Flags().String("side", "", "order side: buy or sell (required)")
	ordersSubmitCmd.Flags().Uint64("size", 0, "order size (required)")
	ordersSubmitCmd.Flags().String("price", "", "limit price, scaled to market decimals")
	ordersSubmitCmd.Flags().String("type", "limit", "order type: limit or market")
	ordersSubmitCmd.Flags().String("tif", "", "time in force (default GTC for limit, IOC for market)")
	ordersSubmitCmd.Flags().String("reference", "", "optional order reference")
	_ = ordersSubmitCmd.MarkFlagRequired("pubkey")
	_ = ordersSubmitCmd.MarkFlagRequired("market")
	_ = ordersSubmitCmd.MarkFlagRequired("side")
	_ = ordersSubmitCmd.MarkFlagRequired("size")

	ordersCancelCmd.Flags().String("pubkey", "", "signing key's public key (required)")
	ordersCancelCmd.Flags().String("market", "", "market ID (required)")
	ordersCancelCmd.Flags().String("order", "", "order ID (required)")
	_ = ordersCancelCmd.MarkFlagRequired("pubkey")
	_ = ordersCancelCmd.MarkFlagRequired("market")
	_ = ordersCancelCmd.MarkFlagRequired("order")

	ordersCmd.AddCommand(ordersSubmitCmd)
	ordersCmd.AddCommand(ordersCancelCmd)

	rootCmd.AddCommand(ordersCmd)
}

func parseSide(s string) (wallet.Side, error) {
	switch strings.ToLower(s) {
	case "buy":
		return wallet.SideBuy, nil
	case "sell":
		return wallet.SideSell, nil
	default:
		return wallet.SideUnspecified, fmt.Errorf("invalid side %q: want buy or sell", s)
	}
}

func parseOrderType(s string) (wallet.OrderType, error) {
	switch strings.ToLower(s) {
	case "limit":
		return wallet.OrderTypeLimit, nil
	case "market":
		return wallet.OrderTypeMarket, nil
	default:
		return wallet.OrderTypeUnspecified, fmt.Errorf("invalid order type %q: want limit or market", s)
	}
}

func parseTimeInForce(s string, orderType wallet.OrderType) (wallet.TimeInForce, error) {
	if s == "" {
		if orderType == wallet.OrderTypeMarket {
			return wallet.TimeInForceIOC, nil
		}
		return wallet.TimeInForceGTC, nil
	}
	tif := wallet.TimeInForce("TIME_IN_FORCE_" + strings.ToUpper(s))
	switch tif {
	case wallet.TimeInForceGTC, wallet.TimeInForceGTT, wallet.TimeInForceIOC,
		wallet.TimeInForceFOK, wallet.TimeInForceGFA, wallet.TimeInForceGFN:
		return tif, nil
	default:
		return wallet.TimeInForceUnspecified, fmt.Errorf("invalid time in force %q", s)
	}
}

func runOrdersSubmit(cmd *cobra.Command, args []string) error {
	pubKey, _ := cmd.Flags().GetString("pubkey")
	market, _ := cmd.Flags().GetString("market")
	sideStr, _ := cmd.Flags().GetString("side")
	size, _ := cmd.Flags().GetUint64("size")
	price, _ := cmd.Flags().GetString("price")
	typeStr, _ := cmd.Flags().GetString("type")
	tifStr, _ := cmd.Flags().GetString("tif")
	reference, _ := cmd.Flags().GetString("reference")

	side, err := parseSide(sideStr)
	if err != nil {
		return err
	}
	orderType, err := parseOrderType(typeStr)
	if err != nil {
		return err
	}
	tif, err := parseTimeInForce(tifStr, orderType)
	if err != nil {
		return err
	}
	if orderType == wallet.OrderTypeLimit && price == "" {
		return fmt.Errorf("--price is required for limit orders")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := walletClient(ctx)
	if err != nil {
		printError(err)
		return err
	}

	sent, err := client.SendTransaction(ctx, pubKey, wallet.OrderSubmission{
		MarketID:    market,
		Price:       price,
		Size:        size,
		Side:        side,
		TimeInForce: tif,
		Type:        orderType,
		Reference:   reference,
	})
	if err != nil {
		printError(err)
		return err
	}

	if jsonOut {
		return printJSON(sent)
	}

	fmt.Printf("%s Order submitted\n", colorGreen("✓"))
	fmt.Printf("  TxHash:  %s\n", sent.TransactionHash)
	fmt.Printf("  Sent at: %s\n", sent.SentAt)
	return nil
}

func runOrdersCancel(cmd *cobra.Command, args []string) error {
	pubKey, _ := cmd.Flags().GetString("pubkey")
	market, _ := cmd.Flags().GetString("market")
	orderID, _ := cmd.Flags().GetString("order")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := walletClient(ctx)
	if err != nil {
		printError(err)
		return err
	}

	sent, err := client.SendTransaction(ctx, pubKey, wallet.OrderCancellation{
		OrderID:  orderID,
		MarketID: market,
	})
	if err != nil {
		printError(err)
		return err
	}

	if jsonOut {
		return printJSON(sent)
	}

	fmt.Printf("%s Cancellation submitted\n", colorGreen("✓"))
	fmt.Printf("  TxHash: %s\n", sent.TransactionHash)
	return nil
}
