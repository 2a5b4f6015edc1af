// mintwallet-lite is a self-contained development wallet daemon. It
// serves the wallet service protocol (JSON-RPC over HTTP) backed by the
// 10 deterministic hardhat dev accounts, plus a REST admin API.
//
// Development use only: the preloaded keys are publicly known.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mintforge/mintforge/cmd/mintwallet-lite/internal/api"
	"github.com/mintforge/mintforge/cmd/mintwallet-lite/internal/jsonrpc"
	"github.com/mintforge/mintforge/cmd/mintwallet-lite/internal/keystore"
	"github.com/mintforge/mintforge/cmd/mintwallet-lite/internal/signer"
)

const (
	defaultWalletPort = "1789"
	defaultAdminPort  = "3000"
	defaultToken      = "dev-token"
	version           = "1.0.0"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("starting mintwallet-lite",
		slog.String("version", version),
	)

	ks := keystore.New()
	devKeys, err := keystore.LoadDevKeys()
	if err != nil {
		logger.Error("failed to load dev keys", slog.String("error", err.Error()))
		os.Exit(1)
	}
	for _, key := range devKeys {
		if err := ks.Add(key); err != nil {
			logger.Error("failed to add key to keystore",
				slog.String("key", key.Name),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	addresses := make([]string, 0, ks.Count())
	for _, key := range ks.List() {
		addresses = append(addresses, key.Address)
	}
	logger.Info("loaded dev keys",
		slog.Int("count", len(addresses)),
		slog.Any("addresses", addresses),
	)

	walletPort := getEnv("MINTWALLET_RPC_PORT", defaultWalletPort)
	adminPort := getEnv("MINTWALLET_ADMIN_PORT", defaultAdminPort)
	token := getEnv("MINTWALLET_TOKEN", defaultToken)

	sgn := signer.New()

	rpcServer := jsonrpc.NewServer(jsonrpc.ServerConfig{
		Keystore: ks,
		Signer:   sgn,
		Logger:   logger,
		Token:    token,
	})

	adminRouter, adminCleanup := api.SetupRouter(api.RouterConfig{
		Keystore: ks,
		Signer:   sgn,
		Logger:   logger,
		Version:  version,
	})
	defer adminCleanup()

	rpcHTTPServer := &http.Server{
		Addr:         ":" + walletPort,
		Handler:      rpcServer,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	adminHTTPServer := &http.Server{
		Addr:         ":" + adminPort,
		Handler:      adminRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting wallet RPC server", slog.String("address", rpcHTTPServer.Addr))
		if err := rpcHTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("wallet RPC server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	go func() {
		logger.Info("starting admin API server", slog.String("address", adminHTTPServer.Addr))
		if err := adminHTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin API server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	logger.Info("mintwallet-lite is ready",
		slog.String("wallet_url", fmt.Sprintf("http://localhost:%s", walletPort)),
		slog.String("admin_url", fmt.Sprintf("http://localhost:%s", adminPort)),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down servers")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rpcHTTPServer.Shutdown(ctx); err != nil {
		logger.Error("wallet RPC server shutdown failed", slog.String("error", err.Error()))
	} else {
		logger.Info("wallet RPC server stopped")
	}

	if err := adminHTTPServer.Shutdown(ctx); err != nil {
		logger.Error("admin API server shutdown failed", slog.String("error", err.Error()))
	} else {
		logger.Info("admin API server stopped")
	}

	logger.Info("mintwallet-lite stopped")
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
