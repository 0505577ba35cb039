package strategies

import (
	"context"
	"time"

	"github.com/raykavin/vwapbands/pkg/core"
	"github.com/raykavin/vwapbands/pkg/exchange"
	"github.com/raykavin/vwapbands/pkg/logger/zerolog"
)

const testPair = "BTCUSDT"

var day0 = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

// replay drives a strategy and a dry run broker candle by candle
type replay struct {
	broker  *exchange.DryRunBroker
	candles []core.Candle
}

func newReplay(quote float64) *replay {
	return &replay{broker: exchange.NewDryRunBroker("USDT", zerolog.Nop(), exchange.WithBalance("USDT", quote))}
}

func flatCandle(at time.Time, price float64) core.Candle {
	return core.Candle{Pair: testPair, Time: at, Open: price, High: price, Low: price, Close: price, Volume: 1, Complete: true}
}

// push feeds candle to the broker and returns the dataframe of every candle so far
func (r *replay) push(candle core.Candle) *core.Dataframe {
	r.candles = append(r.candles, candle)
	r.broker.OnCandle(candle)
	return core.NewDataframe(testPair, r.candles)
}

func (r *replay) position() float64 {
	asset, _, _ := r.broker.Position(context.Background(), testPair)
	return asset
}

// openStops returns the resting stop orders
func (r *replay) openStops() []core.Order {
	var stops []core.Order
	for _, order := range r.broker.Orders() {
		if order.Type == core.OrderTypeStopLoss && order.IsOpen() {
			stops = append(stops, order)
		}
	}
	return stops
}

func constant(n int, value float64) core.Series[float64] {
	series := make(core.Series[float64], n)
	for i := range series {
		series[i] = value
	}
	return series
}

// withLast returns a constant series whose newest values are replaced by last
func withLast(n int, value float64, last ...float64) core.Series[float64] {
	series := constant(n, value)
	copy(series[n-len(last):], last)
	return series
}
