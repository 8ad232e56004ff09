package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/invest-payout-engine/config"
	"github.com/oksasatya/invest-payout-engine/internal/container"
	"github.com/oksasatya/invest-payout-engine/pkg/helpers"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the investment ledger from the command line",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(quoteCmd())
	rootCmd.AddCommand(payoutCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(setStatusCmd())
	rootCmd.AddCommand(createAdminCmd())
	return rootCmd
}

// connect loads configuration and wires the services the way the API does.
func connect(ctx context.Context) (func(), error) {
	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.LedgerBackend == "memory" {
		return nil, fmt.Errorf("LEDGER_BACKEND=memory: nothing to operate on, set LEDGER_BACKEND=postgres")
	}
	logger := helpers.NewLogger(cfg.AppName+"-ledgerctl", cfg.Env)
	if cfg.Env != "development" {
		logger.SetLevel(logrus.WarnLevel)
	}
	cleanup, err := container.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := container.Bootstrap(); err != nil {
		cleanup()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return cleanup, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
