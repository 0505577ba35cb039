package strategy

import (
	"context"

	"github.com/raykavin/vwapbands/pkg/core"
)

// Strategy decides on orders from a window of closed candles
type Strategy interface {
	// Timeframe of the candles the strategy runs on, eg: 1m, 1h, 1d
	Timeframe() string
	// WarmupPeriod is the number of candles kept in the dataframe handed to
	// Indicators and OnCandle. Nothing runs until that many candles arrived.
	WarmupPeriod() int
	// Indicators fills the dataframe metadata and returns what should be charted
	Indicators(df *core.Dataframe) []core.ChartIndicator
	// OnCandle runs the trading logic after Indicators, on every closed candle
	OnCandle(ctx context.Context, df *core.Dataframe, broker core.Broker)
}
