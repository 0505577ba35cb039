package strategies

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/vwapbands/pkg/core"
	"github.com/raykavin/vwapbands/pkg/logger/zerolog"
)

func turtleCandle(i int, open, high, low, close float64) core.Candle {
	return core.Candle{Pair: testPair, Time: day0.Add(time.Duration(i) * 4 * time.Hour),
		Open: open, High: high, Low: low, Close: close, Volume: 1, Complete: true}
}

func turtleStep(tt *Turtles, r *replay, candle core.Candle) *core.Dataframe {
	df := r.push(candle)
	if df.Len() >= tt.WarmupPeriod() {
		tt.Indicators(df)
		tt.OnCandle(context.Background(), df, r.broker)
	}
	return df
}

func TestTurtles_ChannelExcludesCurrentCandle(t *testing.T) {
	tt := NewTurtles(DefaultTurtlesConfig(), zerolog.Nop())

	candles := make([]core.Candle, 25)
	for i := range candles {
		candles[i] = turtleCandle(i, 100, 101, 99, 100)
	}
	candles[24] = turtleCandle(24, 100, 150, 50, 100)
	df := core.NewDataframe(testPair, candles)
	tt.Indicators(df)

	upper, lower := df.Metadata["donchian_upper"], df.Metadata["donchian_lower"]
	assert.True(t, math.IsNaN(upper[19]))
	assert.Equal(t, 101.0, upper[20])
	assert.Equal(t, 101.0, upper.Last(0))
	assert.Equal(t, 99.0, lower.Last(0))
	assert.Equal(t, 100.0, df.Metadata["donchian_middle"].Last(0))
}

func TestTurtles_BreakoutAndTrail(t *testing.T) {
	tt := NewTurtles(DefaultTurtlesConfig(), zerolog.Nop())
	r := newReplay(10000)

	for i := 0; i < 22; i++ {
		turtleStep(tt, r, turtleCandle(i, 100, 101, 99, 100))
	}
	assert.Zero(t, r.position())

	turtleStep(tt, r, turtleCandle(22, 100, 106, 100, 105))
	require.Greater(t, r.position(), 0.0)
	stops := r.openStops()
	require.Len(t, stops, 1)
	first := *stops[0].Stop
	assert.Less(t, first, 105.0)

	// a new high pulls the stop up
	turtleStep(tt, r, turtleCandle(23, 105, 111, 105, 110))
	stops = r.openStops()
	require.Len(t, stops, 1)
	raised := *stops[0].Stop
	assert.Greater(t, raised, first)
	assert.InDelta(t, r.position(), stops[0].Quantity, 1e-9)

	// a pullback never lowers it
	turtleStep(tt, r, turtleCandle(24, 110, 110, 107, 107))
	stops = r.openStops()
	require.Len(t, stops, 1)
	assert.Equal(t, raised, *stops[0].Stop)

	// falling through the stop closes the trade, still inside the channel
	turtleStep(tt, r, turtleCandle(25, 104, 104, 100, 101))
	assert.Zero(t, r.position())
	assert.Empty(t, r.openStops())
}

func TestTurtles_ShortBreakout(t *testing.T) {
	tt := NewTurtles(DefaultTurtlesConfig(), zerolog.Nop())
	r := newReplay(10000)

	for i := 0; i < 22; i++ {
		turtleStep(tt, r, turtleCandle(i, 100, 101, 99, 100))
	}

	turtleStep(tt, r, turtleCandle(22, 100, 100, 94, 95))
	require.Less(t, r.position(), 0.0)
	stops := r.openStops()
	require.Len(t, stops, 1)
	assert.Equal(t, core.SideTypeBuy, stops[0].Side)
	first := *stops[0].Stop
	assert.Greater(t, first, 95.0)

	turtleStep(tt, r, turtleCandle(23, 95, 95, 89, 90))
	stops = r.openStops()
	require.Len(t, stops, 1)
	assert.Less(t, *stops[0].Stop, first)
}
