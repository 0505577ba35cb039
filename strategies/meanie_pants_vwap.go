package strategies

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/raykavin/vwapbands/pkg/core"
	"github.com/raykavin/vwapbands/pkg/indicator"
	"github.com/raykavin/vwapbands/pkg/logger"
	"github.com/raykavin/vwapbands/pkg/sizing"
)

// MeaniePantsVWAPConfig configures the VWAP band mean reversion strategy.
// Band indexes point into Bands.DevMultipliers.
type MeaniePantsVWAPConfig struct {
	Timeframe     string
	Bands         indicator.VWAPBandsConfig
	EntryBand     int
	ScaleBands    []int
	StopBand      int
	ScaleFraction float64 // added to the position at every scale band
	RiskPercent   float64
	SkipCandles   int // candles ignored after the daily reset
	SkipHour      int // UTC hour without new entries
	FeeRate       float64
}

func DefaultMeaniePantsVWAPConfig() MeaniePantsVWAPConfig {
	return MeaniePantsVWAPConfig{
		Timeframe:     "1m",
		Bands:         indicator.DefaultVWAPBandsConfig(),
		EntryBand:     1,
		ScaleBands:    []int{2, 3},
		StopBand:      4,
		ScaleFraction: 0.2,
		RiskPercent:   1,
		SkipCandles:   60,
		SkipHour:      23,
	}
}

// MeaniePantsVWAP fades moves to the outer daily VWAP bands. It enters at
// the second band, adds at the third and fourth, stops out beyond the fifth
// and takes profit when price reverts to VWAP. Every band triggers at most
// once per day.
type MeaniePantsVWAP struct {
	config MeaniePantsVWAPConfig
	log    logger.Logger
	warmup int

	day         int64
	candleIndex int
	triggered   map[int]bool
	trade       trade
}

func NewMeaniePantsVWAP(config MeaniePantsVWAPConfig, log logger.Logger) (*MeaniePantsVWAP, error) {
	perDay, err := candlesPerDay(config.Timeframe)
	if err != nil {
		return nil, err
	}

	bands := len(config.Bands.DevMultipliers)
	for _, band := range append([]int{config.EntryBand, config.StopBand}, config.ScaleBands...) {
		if band < 0 || band >= bands {
			return nil, fmt.Errorf("band %d outside the %d configured multipliers", band, bands)
		}
	}

	return &MeaniePantsVWAP{
		config:    config,
		log:       log,
		warmup:    perDay,
		triggered: make(map[int]bool),
	}, nil
}

func (m *MeaniePantsVWAP) Timeframe() string {
	return m.config.Timeframe
}

// WarmupPeriod keeps one full day of candles so the current window is complete
func (m *MeaniePantsVWAP) WarmupPeriod() int {
	return m.warmup
}

func (m *MeaniePantsVWAP) Indicators(df *core.Dataframe) []core.ChartIndicator {
	bands, err := indicator.VWAPBands(df, m.config.Bands)
	if err != nil {
		m.log.WithError(err).WithField("pair", df.Pair).Error("vwap bands")
		return nil
	}

	metrics := []core.IndicatorMetric{{Name: "VWAP", Style: core.StyleLine, Values: bands.VWAP}}
	df.Metadata["vwap"] = bands.VWAP
	for k := range bands.Upper {
		upper, lower := bandKey("upper", k), bandKey("lower", k)
		df.Metadata[upper] = bands.Upper[k]
		df.Metadata[lower] = bands.Lower[k]
		metrics = append(metrics,
			core.IndicatorMetric{Name: fmt.Sprintf("Upper Band %d", k+1), Style: core.StyleLine, Values: bands.Upper[k]},
			core.IndicatorMetric{Name: fmt.Sprintf("Lower Band %d", k+1), Style: core.StyleLine, Values: bands.Lower[k]},
		)
	}

	return []core.ChartIndicator{{
		Overlay:   true,
		GroupName: "VWAP Bands",
		Time:      df.Time,
		Metrics:   metrics,
	}}
}

func bandKey(side string, band int) string {
	return fmt.Sprintf("vwap_%s_%d", side, band)
}

func (m *MeaniePantsVWAP) OnCandle(ctx context.Context, df *core.Dataframe, broker core.Broker) {
	now := df.Time[len(df.Time)-1].UTC()
	m.advanceDay(now)

	vwap := lastValue(df, "vwap")
	if math.IsNaN(vwap) {
		return
	}

	price := df.Close.Last(0)
	asset, quote, err := broker.Position(ctx, df.Pair)
	if err != nil {
		m.log.WithError(err).WithField("pair", df.Pair).Error("position")
		return
	}

	if m.trade.closedByStop(asset) {
		m.log.WithFields(map[string]any{"pair": df.Pair, "price": price}).Info("stopped out")
		m.trade.reset()
	}

	if isFlat(asset) {
		if m.candleIndex < m.config.SkipCandles || now.Hour() == m.config.SkipHour {
			return
		}
		m.tryEntry(ctx, df, broker, price, quote)
		return
	}

	m.updatePosition(ctx, df, broker, price, vwap, asset)
}

// advanceDay resets the band ladder on the first candle of every UTC day
func (m *MeaniePantsVWAP) advanceDay(now time.Time) {
	key, _ := indicator.WindowKey(now, indicator.IntervalDay)
	if key != m.day {
		m.day = key
		m.candleIndex = 0
		m.resetLadder()
		return
	}
	m.candleIndex++
}

func (m *MeaniePantsVWAP) resetLadder() {
	clear(m.triggered)
}

func (m *MeaniePantsVWAP) tryEntry(ctx context.Context, df *core.Dataframe, broker core.Broker, price, quote float64) {
	entry := m.config.EntryBand
	if m.triggered[entry] {
		return
	}

	var side core.SideType
	var stop float64
	switch {
	case price <= lastValue(df, bandKey("lower", entry)):
		side, stop = core.SideTypeBuy, lastValue(df, bandKey("lower", m.config.StopBand))
	case price >= lastValue(df, bandKey("upper", entry)):
		side, stop = core.SideTypeSell, lastValue(df, bandKey("upper", m.config.StopBand))
	default:
		return
	}

	fields := map[string]any{"pair": df.Pair, "side": side, "price": price, "stop": stop, "candle": m.candleIndex}

	qty, err := sizing.RiskToQty(quote, m.config.RiskPercent, price, stop, 8, m.config.FeeRate)
	if err != nil || qty <= 0 {
		m.log.WithFields(fields).WithError(err).Warn("entry skipped")
		return
	}
	m.triggered[entry] = true

	if err := m.trade.enter(ctx, broker, df.Pair, side, qty, stop, 0); err != nil {
		m.log.WithFields(fields).Error(err)
		return
	}
	m.log.WithFields(fields).Infof("band %d entry", entry+1)
}

func (m *MeaniePantsVWAP) updatePosition(ctx context.Context, df *core.Dataframe, broker core.Broker,
	price, vwap, asset float64) {

	long := asset > 0
	if !m.trade.isOpen() {
		m.trade.side = core.SideTypeSell
		if long {
			m.trade.side = core.SideTypeBuy
		}
	}

	for _, band := range m.config.ScaleBands {
		if m.triggered[band] {
			continue
		}

		reached := price >= lastValue(df, bandKey("upper", band))
		if long {
			reached = price <= lastValue(df, bandKey("lower", band))
		}
		if !reached {
			continue
		}

		m.triggered[band] = true
		if err := m.scaleIn(ctx, df.Pair, broker, asset); err != nil {
			m.log.WithFields(map[string]any{"pair": df.Pair, "band": band + 1}).Error(err)
			return
		}
		asset += math.Copysign(math.Abs(asset)*m.config.ScaleFraction, asset)
		break
	}

	if (long && price >= vwap) || (!long && price <= vwap) {
		if err := m.trade.exit(ctx, broker, df.Pair, asset); err != nil {
			m.log.WithField("pair", df.Pair).Error(err)
			return
		}
		m.resetLadder()
		m.log.WithFields(map[string]any{"pair": df.Pair, "price": price}).Info("reverted to vwap")
	}
}

// scaleIn grows the position by ScaleFraction and resizes the stop
func (m *MeaniePantsVWAP) scaleIn(ctx context.Context, pair string, broker core.Broker, asset float64) error {
	extra := math.Abs(asset) * m.config.ScaleFraction
	if extra <= 0 {
		return nil
	}

	if _, err := broker.CreateOrderMarket(ctx, m.trade.side, pair, extra); err != nil {
		return fmt.Errorf("scale order: %w", err)
	}

	return m.trade.placeStop(ctx, broker, pair, math.Abs(asset)+extra, m.trade.stopPrice)
}
