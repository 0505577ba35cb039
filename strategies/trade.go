package strategies

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/xhit/go-str2duration/v2"

	"github.com/raykavin/vwapbands/pkg/core"
	"github.com/raykavin/vwapbands/pkg/indicator"
)

// positions smaller than this are treated as closed
const dust = 1e-9

func isFlat(asset float64) bool {
	return math.Abs(asset) < dust
}

// trade tracks the protective stop and take profit of an open position.
// Take profits are checked on candle close and exit at market.
type trade struct {
	side       core.SideType
	stop       core.Order
	hasStop    bool
	stopPrice  float64
	takeProfit float64
}

func (t *trade) isOpen() bool {
	return t.side != ""
}

func (t *trade) reset() {
	*t = trade{}
}

// closedByStop reports a trade whose position was flattened by its stop order
func (t *trade) closedByStop(asset float64) bool {
	return t.isOpen() && isFlat(asset)
}

func (t *trade) takeProfitHit(price float64) bool {
	switch {
	case t.takeProfit == 0:
		return false
	case t.side == core.SideTypeBuy:
		return price >= t.takeProfit
	default:
		return price <= t.takeProfit
	}
}

// enter opens a position at market and protects it with a stop order.
// A zero take disables the take profit.
func (t *trade) enter(ctx context.Context, broker core.Broker, pair string, side core.SideType,
	qty, stop, take float64) error {

	if _, err := broker.CreateOrderMarket(ctx, side, pair, qty); err != nil {
		return fmt.Errorf("entry order: %w", err)
	}

	t.side = side
	t.takeProfit = take
	return t.placeStop(ctx, broker, pair, qty, stop)
}

// placeStop replaces the current stop order with one covering qty at price
func (t *trade) placeStop(ctx context.Context, broker core.Broker, pair string, qty, price float64) error {
	if err := t.cancelStop(ctx, broker); err != nil {
		return err
	}

	order, err := broker.CreateOrderStop(ctx, t.side.Opposite(), pair, qty, price)
	if err != nil {
		return fmt.Errorf("stop order: %w", err)
	}

	t.stop, t.hasStop, t.stopPrice = order, true, price
	return nil
}

func (t *trade) cancelStop(ctx context.Context, broker core.Broker) error {
	if !t.hasStop {
		return nil
	}

	order, err := broker.Order(ctx, t.stop.Pair, t.stop.ID)
	if err == nil && order.IsOpen() {
		if err := broker.Cancel(ctx, order); err != nil {
			return fmt.Errorf("cancel stop: %w", err)
		}
	}

	t.hasStop = false
	return nil
}

// exit cancels the stop and closes the signed position at market
func (t *trade) exit(ctx context.Context, broker core.Broker, pair string, asset float64) error {
	if err := t.cancelStop(ctx, broker); err != nil {
		return err
	}
	t.reset()

	if isFlat(asset) {
		return nil
	}

	side := core.SideTypeSell
	if asset < 0 {
		side = core.SideTypeBuy
	}

	if _, err := broker.CreateOrderMarket(ctx, side, pair, math.Abs(asset)); err != nil {
		return fmt.Errorf("exit order: %w", err)
	}
	return nil
}

// candlesPerDay returns how many candles of timeframe fit in a UTC day
func candlesPerDay(timeframe string) (int, error) {
	duration, err := str2duration.ParseDuration(timeframe)
	if err != nil {
		return 0, err
	}
	if duration <= 0 || duration > 24*time.Hour {
		return 0, fmt.Errorf("timeframe %q is not intraday", timeframe)
	}
	return int((24 * time.Hour) / duration), nil
}

// dailyCandles groups the dataframe by UTC day. The last day may be partial.
func dailyCandles(df *core.Dataframe) (highs, lows, closes []float64) {
	var lastKey int64 = -1
	for i := 0; i < df.Len(); i++ {
		key, _ := indicator.WindowKey(df.Time[i], indicator.IntervalDay)
		if key != lastKey {
			highs = append(highs, df.High[i])
			lows = append(lows, df.Low[i])
			closes = append(closes, df.Close[i])
			lastKey = key
			continue
		}

		last := len(closes) - 1
		highs[last] = math.Max(highs[last], df.High[i])
		lows[last] = math.Min(lows[last], df.Low[i])
		closes[last] = df.Close[i]
	}
	return highs, lows, closes
}

// lastValue returns the newest value of a metadata series, NaN when missing
func lastValue(df *core.Dataframe, key string) float64 {
	series, ok := df.Metadata[key]
	if !ok || len(series) == 0 {
		return math.NaN()
	}
	return series.Last(0)
}
