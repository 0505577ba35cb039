package main

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/raykavin/vwapbands/pkg/core"
	"github.com/raykavin/vwapbands/pkg/exchange"
	"github.com/raykavin/vwapbands/pkg/indicator"
	"github.com/raykavin/vwapbands/pkg/metric"
	"github.com/raykavin/vwapbands/pkg/storage"
)

// Bands command flags
var (
	bandsFile        string
	bandsPair        string
	bandsTimeframe   string
	bandsResample    string
	bandsInterval    string
	bandsSource      string
	bandsMultipliers []float64
	bandsRows        int
	bandsSequential  bool
	bandsHeikinAshi  bool
	bandsRejectZero  bool
)

func buildBandsCmd() *cobra.Command {
	bandsCmd := &cobra.Command{
		Use:   "bands",
		Short: "Compute VWAP bands of a candle file or of the candle store",
		RunE:  runBands,
	}

	bandsCmd.Flags().StringVarP(&bandsFile, "file", "f", "", "CSV file of candles, the candle store is read when empty")
	bandsCmd.Flags().StringVarP(&bandsPair, "pair", "p", "BTCUSDT", "Trading pair")
	bandsCmd.Flags().StringVarP(&bandsTimeframe, "timeframe", "t", "1m", "Timeframe of the file")
	bandsCmd.Flags().StringVar(&bandsResample, "resample", "", "Resample the file to this timeframe (e.g. 15m)")
	bandsCmd.Flags().StringVarP(&bandsInterval, "interval", "i", "", "Reset interval: Day, Week or Month")
	bandsCmd.Flags().StringVarP(&bandsSource, "source", "s", "", "Price source (e.g. ohlc4, hlc3, close)")
	bandsCmd.Flags().Float64SliceVarP(&bandsMultipliers, "multipliers", "m", nil, "Deviation multipliers (e.g. 1,2,3)")
	bandsCmd.Flags().IntVarP(&bandsRows, "rows", "n", 10, "Number of rows to print")
	bandsCmd.Flags().BoolVar(&bandsSequential, "sequential", true, "Compute every candle, otherwise only the last one")
	bandsCmd.Flags().BoolVar(&bandsHeikinAshi, "heikin-ashi", false, "Convert candles to Heikin-Ashi")
	bandsCmd.Flags().BoolVar(&bandsRejectZero, "reject-zero-volume", false, "Fail on windows without volume")

	return bandsCmd
}

// bandsConfig merges the config file section with the flags that were set
func bandsConfig(cmd *cobra.Command) (indicator.VWAPBandsConfig, error) {
	section := cfg.Bands
	if cmd.Flags().Changed("interval") {
		section.Interval = bandsInterval
	}
	if cmd.Flags().Changed("source") {
		section.Source = bandsSource
	}
	if cmd.Flags().Changed("multipliers") {
		section.Multipliers = bandsMultipliers
	}
	if cmd.Flags().Changed("reject-zero-volume") {
		section.RejectZeroVolume = bandsRejectZero
	}
	return section.Indicator()
}

func loadCandles(pair, file, timeframe, resample string, heikinAshi bool) ([]core.Candle, error) {
	if file == "" {
		store, err := storage.FromFile(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		return store.Candles(pair, time.Unix(0, 0), time.Now())
	}

	feed, err := exchange.NewCSVFeed(resample, exchange.PairFeed{
		Pair:       pair,
		File:       file,
		Timeframe:  timeframe,
		HeikinAshi: heikinAshi,
	})
	if err != nil {
		return nil, err
	}

	if resample != "" {
		timeframe = resample
	}
	return feed.Candles(pair, timeframe), nil
}

func runBands(cmd *cobra.Command, _ []string) error {
	if bandsRows < 0 {
		return fmt.Errorf("invalid --rows %d: must not be negative", bandsRows)
	}

	bandsCfg, err := bandsConfig(cmd)
	if err != nil {
		return err
	}

	candles, err := loadCandles(bandsPair, bandsFile, bandsTimeframe, bandsResample, bandsHeikinAshi)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candles for %s", bandsPair)
	}

	df := core.NewDataframe(bandsPair, candles)

	log.WithFields(map[string]any{
		"pair":     bandsPair,
		"candles":  df.Len(),
		"interval": bandsCfg.Interval,
		"source":   bandsCfg.Source,
	}).Info("computing vwap bands")

	if !bandsSequential {
		value, err := indicator.VWAPBandsLast(df, bandsCfg)
		if err != nil {
			return err
		}
		printBands(bandsCfg.DevMultipliers, []indicator.VWAPBandsValue{value})
		return nil
	}

	series, err := indicator.VWAPBands(df, bandsCfg)
	if err != nil {
		return err
	}

	printBands(bandsCfg.DevMultipliers, tailRows(series, bandsRows))
	printBandStats(bandsCfg.DevMultipliers, series, df.Close)

	return nil
}

// tailRows returns up to n of the most recent values of the series
func tailRows(series indicator.VWAPBandsSeries, n int) []indicator.VWAPBandsValue {
	n = min(max(n, 0), series.Len())
	rows := make([]indicator.VWAPBandsValue, 0, n)
	for i := series.Len() - n; i < series.Len(); i++ {
		rows = append(rows, series.At(i))
	}
	return rows
}

func bandHeaders(multipliers []float64) []string {
	headers := []string{"Time", "VWAP", "Dev"}
	for _, m := range multipliers {
		headers = append(headers, fmt.Sprintf("+%gσ", m), fmt.Sprintf("-%gσ", m))
	}
	return headers
}

func printBands(multipliers []float64, rows []indicator.VWAPBandsValue) {
	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetHeader(bandHeaders(multipliers))
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, row := range rows {
		line := []string{row.Time.UTC().Format(time.DateTime), formatPrice(row.VWAP), formatPrice(row.Deviation)}
		for k := range row.Upper {
			line = append(line, formatPrice(row.Upper[k]), formatPrice(row.Lower[k]))
		}
		table.Append(line)
	}
	table.Render()

	fmt.Println(buffer.String())
}

func printBandStats(multipliers []float64, series indicator.VWAPBandsSeries, closes []float64) {
	stats := metric.DeviationSummary(series)
	fmt.Println("------ DEVIATION -------")
	fmt.Printf("CANDLES: %d  MEAN: %s  STDDEV: %s  P95: %s  MAX: %s\n\n",
		stats.Count, formatPrice(stats.Mean), formatPrice(stats.StdDev), formatPrice(stats.P95), formatPrice(stats.Max))

	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetHeader([]string{"Band", "Above", "Below", "Candles"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})
	for _, touch := range metric.BandTouches(series, closes) {
		table.Append([]string{
			fmt.Sprintf("%gσ", multipliers[touch.Band]),
			fmt.Sprintf("%.2f %%", touch.Above*100),
			fmt.Sprintf("%.2f %%", touch.Below*100),
			fmt.Sprint(touch.Candles),
		})
	}
	table.Render()
	fmt.Println(buffer.String())

	scores := zScores(series, closes)
	if len(scores) == 0 {
		return
	}

	fmt.Println("------ DISTANCE TO VWAP (σ) -------")
	hist := histogram.Hist(15, scores)
	histogram.Fprint(os.Stdout, hist, histogram.Linear(10))
	fmt.Println()

	interval := metric.Bootstrap(scores, metric.Mean, 1000, 0.95)
	fmt.Printf("MEAN DISTANCE (95%%): %.3fσ (%.3fσ ~ %.3fσ)\n", interval.Mean, interval.Lower, interval.Upper)
}

// zScores is the distance of every close to VWAP in deviations
func zScores(series indicator.VWAPBandsSeries, closes []float64) []float64 {
	scores := make([]float64, 0, len(closes))
	for i := 0; i < len(closes) && i < series.Len(); i++ {
		dev := series.Deviation[i]
		if math.IsNaN(dev) || dev == 0 {
			continue
		}
		scores = append(scores, (closes[i]-series.VWAP[i])/dev)
	}
	return scores
}

func formatPrice(value float64) string {
	if math.IsNaN(value) {
		return "-"
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", value), "0"), ".")
}
