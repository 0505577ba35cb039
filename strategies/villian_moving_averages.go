package strategies

import (
	"context"

	"github.com/raykavin/vwapbands/pkg/core"
	"github.com/raykavin/vwapbands/pkg/indicator"
	"github.com/raykavin/vwapbands/pkg/logger"
	"github.com/raykavin/vwapbands/pkg/sizing"
)

type VillianMovingAveragesConfig struct {
	Timeframe        string
	FastPeriod       int
	MediumPeriod     int
	SlowPeriod       int
	SuperTrendPeriod int
	SuperTrendFactor float64
	ATRPeriod        int
	StopATR          float64
	TakeATR          float64
	RiskPercent      float64
	CooldownCandles  int // candles to wait after a close before entering again
	FeeRate          float64
}

func DefaultVillianMovingAveragesConfig() VillianMovingAveragesConfig {
	return VillianMovingAveragesConfig{
		Timeframe:        "1h",
		FastPeriod:       7,
		MediumPeriod:     25,
		SlowPeriod:       52,
		SuperTrendPeriod: 10,
		SuperTrendFactor: 3,
		ATRPeriod:        14,
		StopATR:          2.5,
		TakeATR:          10,
		RiskPercent:      3,
		CooldownCandles:  1,
	}
}

// VillianMovingAverages enters on a fast/medium SMA cross in the direction
// of the medium/slow trend when both the intraday and the daily supertrend agree
type VillianMovingAverages struct {
	config VillianMovingAveragesConfig
	log    logger.Logger
	warmup int

	index      int
	lastClosed int
	trade      trade
}

func NewVillianMovingAverages(config VillianMovingAveragesConfig, log logger.Logger) (*VillianMovingAverages, error) {
	perDay, err := candlesPerDay(config.Timeframe)
	if err != nil {
		return nil, err
	}

	// the daily supertrend needs its ATR period plus the current day
	warmup := max((config.SuperTrendPeriod+2)*perDay, config.SlowPeriod+1)

	return &VillianMovingAverages{
		config:     config,
		log:        log,
		warmup:     warmup,
		lastClosed: -config.CooldownCandles - 1,
	}, nil
}

func (v *VillianMovingAverages) Timeframe() string {
	return v.config.Timeframe
}

func (v *VillianMovingAverages) WarmupPeriod() int {
	return v.warmup
}

func (v *VillianMovingAverages) Indicators(df *core.Dataframe) []core.ChartIndicator {
	df.Metadata["sma_fast"] = indicator.SMA(df.Close, v.config.FastPeriod)
	df.Metadata["sma_medium"] = indicator.SMA(df.Close, v.config.MediumPeriod)
	df.Metadata["sma_slow"] = indicator.SMA(df.Close, v.config.SlowPeriod)
	df.Metadata["atr"] = indicator.ATR(df.High, df.Low, df.Close, v.config.ATRPeriod)
	df.Metadata["supertrend"] = indicator.SuperTrend(df.High, df.Low, df.Close,
		v.config.SuperTrendPeriod, v.config.SuperTrendFactor)

	return []core.ChartIndicator{{
		Overlay:   true,
		GroupName: "Trend",
		Time:      df.Time,
		Warmup:    v.config.SlowPeriod,
		Metrics: []core.IndicatorMetric{
			{Name: "SMA Fast", Style: core.StyleLine, Values: df.Metadata["sma_fast"]},
			{Name: "SMA Medium", Style: core.StyleLine, Values: df.Metadata["sma_medium"]},
			{Name: "SMA Slow", Style: core.StyleLine, Values: df.Metadata["sma_slow"]},
			{Name: "SuperTrend", Style: core.StyleScatter, Values: df.Metadata["supertrend"]},
		},
	}}
}

// dailyDirection is the supertrend direction of the UTC day candles
func (v *VillianMovingAverages) dailyDirection(df *core.Dataframe) int {
	highs, lows, closes := dailyCandles(df)
	trend := indicator.SuperTrend(highs, lows, closes, v.config.SuperTrendPeriod, v.config.SuperTrendFactor)
	return indicator.SuperTrendDirection(closes, trend)
}

func (v *VillianMovingAverages) OnCandle(ctx context.Context, df *core.Dataframe, broker core.Broker) {
	v.index++
	price := df.Close.Last(0)

	asset, quote, err := broker.Position(ctx, df.Pair)
	if err != nil {
		v.log.WithError(err).WithField("pair", df.Pair).Error("position")
		return
	}

	if v.trade.closedByStop(asset) {
		v.log.WithFields(map[string]any{"pair": df.Pair, "price": price}).Info("stopped out")
		v.trade.reset()
		v.lastClosed = v.index
	}

	fast, medium := df.Metadata["sma_fast"], df.Metadata["sma_medium"]

	if !isFlat(asset) {
		crossed := (asset > 0 && fast.Crossunder(medium)) || (asset < 0 && fast.Crossover(medium))
		if crossed || v.trade.takeProfitHit(price) {
			if err := v.trade.exit(ctx, broker, df.Pair, asset); err != nil {
				v.log.WithField("pair", df.Pair).Error(err)
				return
			}
			v.lastClosed = v.index
		}
		return
	}

	if v.index-v.lastClosed <= v.config.CooldownCandles {
		return
	}

	var side core.SideType
	trend := medium.Last(0) - lastValue(df, "sma_slow")
	direction := indicator.SuperTrendDirection(df.Close, df.Metadata["supertrend"])
	switch {
	case trend > 0 && fast.Crossover(medium) && direction == 1:
		side = core.SideTypeBuy
	case trend < 0 && fast.Crossunder(medium) && direction == -1:
		side = core.SideTypeSell
	default:
		return
	}

	daily := v.dailyDirection(df)
	if (side == core.SideTypeBuy && daily != 1) || (side == core.SideTypeSell && daily != -1) {
		return
	}

	atr := lastValue(df, "atr")
	stop, take := price-v.config.StopATR*atr, price+v.config.TakeATR*atr
	if side == core.SideTypeSell {
		stop, take = price+v.config.StopATR*atr, price-v.config.TakeATR*atr
	}

	fields := map[string]any{"pair": df.Pair, "side": side, "price": price, "stop": stop, "take": take}

	qty, err := sizing.RiskToQty(quote, v.config.RiskPercent, price, stop, 3, v.config.FeeRate)
	if err != nil || qty <= 0 {
		v.log.WithFields(fields).WithError(err).Warn("entry skipped")
		return
	}

	if err := v.trade.enter(ctx, broker, df.Pair, side, qty, stop, take); err != nil {
		v.log.WithFields(fields).Error(err)
		return
	}
	v.log.WithFields(fields).Info("entry")
}
