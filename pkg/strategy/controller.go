package strategy

import (
	"context"

	"github.com/raykavin/vwapbands/pkg/core"
	"github.com/raykavin/vwapbands/pkg/logger"
)

// Controller feeds the candles of one pair to a strategy
type Controller struct {
	strategy         Strategy
	dataframeManager *DataframeManager
	broker           core.Broker
	log              logger.Logger
	started          bool
	indicators       []core.ChartIndicator
}

func NewStrategyController(pair string, strategy Strategy, broker core.Broker, log logger.Logger) *Controller {
	return &Controller{
		dataframeManager: NewDataframeManager(pair),
		strategy:         strategy,
		broker:           broker,
		log:              log.WithField("pair", pair),
	}
}

// Start enables order placement; candles received before only warm the dataframe
func (c *Controller) Start() {
	c.started = true
}

// OnCandle runs the strategy on a closed candle once the warmup is filled
func (c *Controller) OnCandle(ctx context.Context, candle core.Candle) {
	if !candle.Complete {
		return
	}

	if c.dataframeManager.IsLateCandle(candle) {
		c.log.WithField("time", candle.Time).Warn("late candle ignored")
		return
	}

	c.dataframeManager.Update(candle)

	warmup := c.strategy.WarmupPeriod()
	if !c.dataframeManager.HasSufficientData(warmup) {
		return
	}

	sample := c.dataframeManager.Sample(warmup)
	c.indicators = c.strategy.Indicators(&sample)

	if c.started {
		c.strategy.OnCandle(ctx, &sample, c.broker)
	}
}

// Indicators returns the chart indicators of the last evaluated candle
func (c *Controller) Indicators() []core.ChartIndicator {
	return c.indicators
}

// Dataframe exposes the full candle history
func (c *Controller) Dataframe() *core.Dataframe {
	return c.dataframeManager.Dataframe()
}
