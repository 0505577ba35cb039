package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/raykavin/vwapbands/pkg/core"
	"github.com/raykavin/vwapbands/pkg/exchange"
	"github.com/raykavin/vwapbands/pkg/metric"
	"github.com/raykavin/vwapbands/pkg/strategy"
	"github.com/raykavin/vwapbands/strategies"
)

// Replay command flags
var (
	replayFile              string
	replayPair              string
	replayTimeframe         string
	replayStrategy          string
	replayStrategyTimeframe string
	replayBalance           float64
	replayFee               float64
)

func buildReplayCmd() *cobra.Command {
	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a candle file through a strategy with the dry run broker",
		RunE:  runReplay,
	}

	replayCmd.Flags().StringVarP(&replayFile, "file", "f", "", "CSV file of candles")
	replayCmd.Flags().StringVarP(&replayPair, "pair", "p", "BTCUSDT", "Trading pair")
	replayCmd.Flags().StringVarP(&replayTimeframe, "timeframe", "t", "1m", "Timeframe of the file")
	replayCmd.Flags().StringVarP(&replayStrategy, "strategy", "s", "", "Strategy name, one of "+fmt.Sprint(strategies.Names()))
	replayCmd.Flags().StringVar(&replayStrategyTimeframe, "strategy-timeframe", "", "Override the strategy timeframe")
	replayCmd.Flags().Float64Var(&replayBalance, "balance", 0, "Starting quote balance")
	replayCmd.Flags().Float64Var(&replayFee, "fee", 0, "Fee rate of every fill")

	replayCmd.MarkFlagRequired("file")

	return replayCmd
}

func runReplay(cmd *cobra.Command, _ []string) error {
	settings := cfg.Replay
	if cmd.Flags().Changed("strategy") {
		settings.Strategy = replayStrategy
	}
	if cmd.Flags().Changed("strategy-timeframe") {
		settings.Timeframe = replayStrategyTimeframe
	}
	if cmd.Flags().Changed("balance") {
		settings.Balance = replayBalance
	}
	if cmd.Flags().Changed("fee") {
		settings.Fee = replayFee
	}

	strat, err := strategies.ByName(settings.Strategy, strategies.Options{
		Timeframe: settings.Timeframe,
		FeeRate:   settings.Fee,
	}, log)
	if err != nil {
		return err
	}

	feed, err := exchange.NewCSVFeed(strat.Timeframe(), exchange.PairFeed{
		Pair:      replayPair,
		File:      replayFile,
		Timeframe: replayTimeframe,
	})
	if err != nil {
		return err
	}

	_, quote := exchange.SplitAssetQuote(replayPair)
	broker := exchange.NewDryRunBroker(quote, log,
		exchange.WithBalance(quote, settings.Balance),
		exchange.WithFee(settings.Fee),
	)

	controller := strategy.NewStrategyController(replayPair, strat, broker, log)
	controller.Start()

	ctx := cmd.Context()
	dataFeed := exchange.NewDataFeed(feed, log)
	dataFeed.Subscribe(replayPair, strat.Timeframe(), func(candle core.Candle) {
		broker.OnCandle(candle)
		controller.OnCandle(ctx, candle)
	}, true)

	log.WithFields(map[string]any{
		"pair":      replayPair,
		"strategy":  settings.Strategy,
		"timeframe": strat.Timeframe(),
		"balance":   settings.Balance,
	}).Info("replay started")

	dataFeed.Start(ctx, true)

	printReplaySummary(replayPair, quote, broker.Summary(), broker.EquityValues())
	return nil
}

func printReplaySummary(pair, quote string, summary exchange.DryRunSummary, equity []float64) {
	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.AppendBulk([][]string{
		{"Pair", pair},
		{"Orders", fmt.Sprint(summary.Orders)},
		{"Fills", fmt.Sprint(summary.Fills)},
		{"Initial equity", fmt.Sprintf("%.2f %s", summary.InitialEquity, quote)},
		{"Final equity", fmt.Sprintf("%.2f %s", summary.Equity, quote)},
		{"Profit", fmt.Sprintf("%.2f %s", summary.Profit, quote)},
		{"Max drawdown", fmt.Sprintf("%.2f %%", summary.MaxDrawdown*100)},
	})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.Render()
	fmt.Println(buffer.String())

	returns := equityReturns(equity)
	if len(returns) == 0 {
		return
	}

	fmt.Println("------ RETURN PER CANDLE (%) -------")
	hist := histogram.Hist(15, returns)
	histogram.Fprint(os.Stdout, hist, histogram.Linear(10))
	fmt.Println()

	interval := metric.Bootstrap(returns, metric.Mean, 1000, 0.95)
	fmt.Printf("MEAN RETURN (95%%): %.4f%% (%.4f%% ~ %.4f%%)\n", interval.Mean, interval.Lower, interval.Upper)
}

// equityReturns converts equity snapshots into percent changes, skipping flat candles
func equityReturns(equity []float64) []float64 {
	var returns []float64
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 || equity[i] == equity[i-1] {
			continue
		}
		returns = append(returns, (equity[i]/equity[i-1]-1)*100)
	}
	return returns
}
