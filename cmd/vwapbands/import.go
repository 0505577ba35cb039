package main

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/raykavin/vwapbands/pkg/exchange"
	"github.com/raykavin/vwapbands/pkg/storage"
)

const importBatch = 1000

// Import command flags
var (
	importFile       string
	importPair       string
	importHeikinAshi bool
)

func buildImportCmd() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import a CSV file of candles into the candle store",
		RunE:  runImport,
	}

	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "CSV file of candles")
	importCmd.Flags().StringVarP(&importPair, "pair", "p", "", "Trading pair (e.g. BTCUSDT)")
	importCmd.Flags().BoolVar(&importHeikinAshi, "heikin-ashi", false, "Convert candles to Heikin-Ashi")

	importCmd.MarkFlagRequired("file")
	importCmd.MarkFlagRequired("pair")

	return importCmd
}

func runImport(_ *cobra.Command, _ []string) error {
	file, err := os.Open(importFile)
	if err != nil {
		return err
	}
	defer file.Close()

	candles, err := exchange.ReadCandles(file, importPair, importHeikinAshi)
	if err != nil {
		return err
	}

	store, err := storage.FromFile(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	log.Infof("Importing %d candles of %s into %s", len(candles), importPair, cfg.Storage.Path)

	progressBar := progressbar.Default(int64(len(candles)))
	for start := 0; start < len(candles); start += importBatch {
		end := min(start+importBatch, len(candles))
		if err := store.SaveCandles(candles[start:end]...); err != nil {
			return fmt.Errorf("save candles: %w", err)
		}
		if err := progressBar.Add(end - start); err != nil {
			log.Warnf("Failed to update progress bar: %s", err.Error())
		}
	}

	if err := progressBar.Close(); err != nil {
		log.Warnf("Failed to close progress bar: %s", err.Error())
	}

	last, err := store.Last(importPair)
	if err != nil {
		return err
	}
	log.WithFields(map[string]any{
		"pair": importPair,
		"last": last.Time.UTC().Format(time.DateTime),
	}).Info("import finished")

	return nil
}
