package strategies

import (
	"context"
	"math"

	"github.com/raykavin/vwapbands/pkg/core"
	"github.com/raykavin/vwapbands/pkg/indicator"
	"github.com/raykavin/vwapbands/pkg/logger"
	"github.com/raykavin/vwapbands/pkg/sizing"
)

type TurtlesConfig struct {
	Timeframe     string
	ChannelPeriod int
	ATRPeriod     int
	StopATR       float64
	RiskPercent   float64
	FeeRate       float64
}

func DefaultTurtlesConfig() TurtlesConfig {
	return TurtlesConfig{
		Timeframe:     "4h",
		ChannelPeriod: 20,
		ATRPeriod:     14,
		StopATR:       2.5,
		RiskPercent:   3,
	}
}

// Turtles trades breakouts of the Donchian channel of the previous candles
// and trails an ATR stop behind the position
type Turtles struct {
	config TurtlesConfig
	log    logger.Logger
	trade  trade
}

func NewTurtles(config TurtlesConfig, log logger.Logger) *Turtles {
	return &Turtles{config: config, log: log}
}

func (t *Turtles) Timeframe() string {
	return t.config.Timeframe
}

func (t *Turtles) WarmupPeriod() int {
	return max(t.config.ChannelPeriod, t.config.ATRPeriod) + 2
}

func (t *Turtles) Indicators(df *core.Dataframe) []core.ChartIndicator {
	n := df.Len()
	upper, middle, lower := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := range upper {
		upper[i], middle[i], lower[i] = math.NaN(), math.NaN(), math.NaN()
	}

	// the channel at i covers candles before i
	if n > 1 {
		u, m, l := indicator.Donchian(df.High[:n-1], df.Low[:n-1], t.config.ChannelPeriod)
		for i := t.config.ChannelPeriod; i < n; i++ {
			upper[i], middle[i], lower[i] = u[i-1], m[i-1], l[i-1]
		}
	}

	df.Metadata["donchian_upper"] = upper
	df.Metadata["donchian_middle"] = middle
	df.Metadata["donchian_lower"] = lower
	df.Metadata["atr"] = indicator.ATR(df.High, df.Low, df.Close, t.config.ATRPeriod)

	return []core.ChartIndicator{{
		Overlay:   true,
		GroupName: "Donchian",
		Time:      df.Time,
		Warmup:    t.config.ChannelPeriod,
		Metrics: []core.IndicatorMetric{
			{Name: "Upper", Style: core.StyleLine, Values: upper},
			{Name: "Middle", Style: core.StyleLine, Values: middle},
			{Name: "Lower", Style: core.StyleLine, Values: lower},
		},
	}}
}

func (t *Turtles) OnCandle(ctx context.Context, df *core.Dataframe, broker core.Broker) {
	price := df.Close.Last(0)
	atr := lastValue(df, "atr")

	asset, quote, err := broker.Position(ctx, df.Pair)
	if err != nil {
		t.log.WithError(err).WithField("pair", df.Pair).Error("position")
		return
	}

	if t.trade.closedByStop(asset) {
		t.log.WithFields(map[string]any{"pair": df.Pair, "price": price}).Info("stopped out")
		t.trade.reset()
	}

	if !isFlat(asset) {
		t.trail(ctx, df.Pair, broker, price, atr, asset)
		return
	}

	var side core.SideType
	var stop float64
	switch {
	case price > lastValue(df, "donchian_upper"):
		side, stop = core.SideTypeBuy, price-t.config.StopATR*atr
	case price < lastValue(df, "donchian_lower"):
		side, stop = core.SideTypeSell, price+t.config.StopATR*atr
	default:
		return
	}

	fields := map[string]any{"pair": df.Pair, "side": side, "price": price, "stop": stop}

	qty, err := sizing.RiskToQty(quote, t.config.RiskPercent, price, stop, 3, t.config.FeeRate)
	if err != nil || qty <= 0 {
		t.log.WithFields(fields).WithError(err).Warn("entry skipped")
		return
	}

	if err := t.trade.enter(ctx, broker, df.Pair, side, qty, stop, 0); err != nil {
		t.log.WithFields(fields).Error(err)
		return
	}
	t.log.WithFields(fields).Info("breakout")
}

// trail moves the stop toward price, never away from it
func (t *Turtles) trail(ctx context.Context, pair string, broker core.Broker, price, atr, asset float64) {
	if !t.trade.isOpen() || math.IsNaN(atr) {
		return
	}

	stop := price - t.config.StopATR*atr
	improved := stop > t.trade.stopPrice
	if asset < 0 {
		stop = price + t.config.StopATR*atr
		improved = stop < t.trade.stopPrice
	}
	if !improved {
		return
	}

	if err := t.trade.placeStop(ctx, broker, pair, math.Abs(asset), stop); err != nil {
		t.log.WithField("pair", pair).Error(err)
		return
	}
	t.log.WithFields(map[string]any{"pair": pair, "stop": stop}).Debug("trailing stop")
}
