package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/raykavin/vwapbands/internal/config"
	"github.com/raykavin/vwapbands/pkg/logger"
)

// Settings shared by every command, filled before the command runs
var (
	configPath string
	logLevel   string

	cfg *config.Config
	log logger.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "vwapbands",
		Short:             "VWAP deviation bands over candle files",
		Version:           "1.0.0",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (e.g. ./vwapbands.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (trace, debug, info, warn, error)")

	rootCmd.AddCommand(buildBandsCmd(), buildImportCmd(), buildReplayCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		loaded.Log.Level = logLevel
	}

	adapter, err := loaded.Log.Logger()
	if err != nil {
		return err
	}

	cfg, log = loaded, adapter
	return nil
}
