package strategies

import (
	"context"

	"github.com/raykavin/vwapbands/pkg/core"
	"github.com/raykavin/vwapbands/pkg/indicator"
	"github.com/raykavin/vwapbands/pkg/logger"
	"github.com/raykavin/vwapbands/pkg/sizing"
)

// VillianConfig configures the moving average stack strategies
type VillianConfig struct {
	Timeframe    string
	FastPeriod   int
	MediumPeriod int
	SlowPeriod   int
	ADXPeriod    int
	ADXThreshold float64
	ATRPeriod    int
	StopATR      float64
	TakeATR      float64
	BalanceShare float64 // fraction of the quote balance put in every trade
	FeeRate      float64
}

func DefaultVillianConfig() VillianConfig {
	return VillianConfig{
		Timeframe:    "4h",
		FastPeriod:   7,
		MediumPeriod: 25,
		SlowPeriod:   52,
		ADXPeriod:    14,
		ADXThreshold: 25,
		ATRPeriod:    14,
		StopATR:      2,
		TakeATR:      3,
		BalanceShare: 0.1,
	}
}

// entryFilter confirms the direction picked by the moving average stack
type entryFilter func(df *core.Dataframe, side core.SideType) bool

// Villian follows a stacked SMA trend confirmed by a strong ADX, and leaves
// when the close crosses back over the medium average
type Villian struct {
	config VillianConfig
	log    logger.Logger
	filter entryFilter
	trade  trade
}

func NewVillian(config VillianConfig, log logger.Logger) *Villian {
	v := &Villian{config: config, log: log}
	v.filter = func(df *core.Dataframe, _ core.SideType) bool {
		return lastValue(df, "adx") > v.config.ADXThreshold
	}
	return v
}

func (v *Villian) Timeframe() string {
	return v.config.Timeframe
}

func (v *Villian) WarmupPeriod() int {
	return max(v.config.SlowPeriod, 2*v.config.ADXPeriod, v.config.ATRPeriod+1) + 1
}

func (v *Villian) Indicators(df *core.Dataframe) []core.ChartIndicator {
	df.Metadata["sma_fast"] = indicator.SMA(df.Close, v.config.FastPeriod)
	df.Metadata["sma_medium"] = indicator.SMA(df.Close, v.config.MediumPeriod)
	df.Metadata["sma_slow"] = indicator.SMA(df.Close, v.config.SlowPeriod)
	df.Metadata["adx"] = indicator.ADX(df.High, df.Low, df.Close, v.config.ADXPeriod)
	df.Metadata["atr"] = indicator.ATR(df.High, df.Low, df.Close, v.config.ATRPeriod)

	return []core.ChartIndicator{
		{
			Overlay:   true,
			GroupName: "Moving Averages",
			Time:      df.Time,
			Warmup:    v.config.SlowPeriod,
			Metrics: []core.IndicatorMetric{
				{Name: "SMA Fast", Style: core.StyleLine, Values: df.Metadata["sma_fast"]},
				{Name: "SMA Medium", Style: core.StyleLine, Values: df.Metadata["sma_medium"]},
				{Name: "SMA Slow", Style: core.StyleLine, Values: df.Metadata["sma_slow"]},
			},
		},
		{
			GroupName: "ADX",
			Time:      df.Time,
			Warmup:    2 * v.config.ADXPeriod,
			Metrics:   []core.IndicatorMetric{{Name: "ADX", Style: core.StyleLine, Values: df.Metadata["adx"]}},
		},
	}
}

func (v *Villian) OnCandle(ctx context.Context, df *core.Dataframe, broker core.Broker) {
	runStack(ctx, df, broker, &v.trade, v.config, v.filter, v.log)
}

// stackSide returns the side of a fully ordered fast > medium > slow stack
func stackSide(df *core.Dataframe) (core.SideType, bool) {
	fast, medium, slow := lastValue(df, "sma_fast"), lastValue(df, "sma_medium"), lastValue(df, "sma_slow")
	switch {
	case fast > medium && medium > slow:
		return core.SideTypeBuy, true
	case fast < medium && medium < slow:
		return core.SideTypeSell, true
	}
	return "", false
}

// runStack is the trade loop shared by Villian and FirstStrategy
func runStack(ctx context.Context, df *core.Dataframe, broker core.Broker, t *trade,
	config VillianConfig, filter entryFilter, log logger.Logger) {

	price := df.Close.Last(0)
	asset, quote, err := broker.Position(ctx, df.Pair)
	if err != nil {
		log.WithError(err).WithField("pair", df.Pair).Error("position")
		return
	}

	if t.closedByStop(asset) {
		log.WithFields(map[string]any{"pair": df.Pair, "price": price}).Info("stopped out")
		t.reset()
	}

	if !isFlat(asset) {
		medium := lastValue(df, "sma_medium")
		crossed := (asset > 0 && price < medium) || (asset < 0 && price > medium)
		if crossed || t.takeProfitHit(price) {
			if err := t.exit(ctx, broker, df.Pair, asset); err != nil {
				log.WithField("pair", df.Pair).Error(err)
			}
		}
		return
	}

	side, ok := stackSide(df)
	if !ok || !filter(df, side) {
		return
	}

	atr := lastValue(df, "atr")
	stop, take := price-config.StopATR*atr, price+config.TakeATR*atr
	if side == core.SideTypeSell {
		stop, take = price+config.StopATR*atr, price-config.TakeATR*atr
	}

	fields := map[string]any{"pair": df.Pair, "side": side, "price": price, "stop": stop, "take": take}

	qty, err := sizing.SizeToQty(quote*config.BalanceShare, price, 3, config.FeeRate)
	if err != nil || qty <= 0 {
		log.WithFields(fields).WithError(err).Warn("entry skipped")
		return
	}

	if err := t.enter(ctx, broker, df.Pair, side, qty, stop, take); err != nil {
		log.WithFields(fields).Error(err)
		return
	}
	log.WithFields(fields).Info("entry")
}
