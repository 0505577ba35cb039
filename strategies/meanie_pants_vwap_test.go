package strategies

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/vwapbands/pkg/core"
	"github.com/raykavin/vwapbands/pkg/indicator"
	"github.com/raykavin/vwapbands/pkg/logger/zerolog"
)

func testMeanieConfig() MeaniePantsVWAPConfig {
	config := DefaultMeaniePantsVWAPConfig()
	config.Timeframe = "1h"
	config.SkipCandles = 0
	config.SkipHour = -1
	return config
}

// meanieStep sets VWAP at 100 with band k at 100 ± (k+1)
func meanieStep(t *testing.T, m *MeaniePantsVWAP, r *replay, at time.Time, price float64) {
	t.Helper()

	df := r.push(flatCandle(at, price))
	n := df.Len()
	df.Metadata["vwap"] = constant(n, 100)
	for k := 0; k < 5; k++ {
		df.Metadata[bandKey("upper", k)] = constant(n, 100+float64(k+1))
		df.Metadata[bandKey("lower", k)] = constant(n, 100-float64(k+1))
	}
	m.OnCandle(context.Background(), df, r.broker)
}

func TestNewMeaniePantsVWAP(t *testing.T) {
	m, err := NewMeaniePantsVWAP(testMeanieConfig(), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 24, m.WarmupPeriod())
	assert.Equal(t, "1h", m.Timeframe())

	config := testMeanieConfig()
	config.StopBand = 5
	_, err = NewMeaniePantsVWAP(config, zerolog.Nop())
	assert.Error(t, err)

	config = testMeanieConfig()
	config.Timeframe = "1w"
	_, err = NewMeaniePantsVWAP(config, zerolog.Nop())
	assert.Error(t, err)
}

func TestMeaniePantsVWAP_Ladder(t *testing.T) {
	m, err := NewMeaniePantsVWAP(testMeanieConfig(), zerolog.Nop())
	require.NoError(t, err)
	r := newReplay(10000)

	meanieStep(t, m, r, day0, 99)
	assert.Zero(t, r.position())

	// band 2 below: long with the stop at band 5
	meanieStep(t, m, r, day0.Add(time.Hour), 98)
	entry := r.position()
	assert.InDelta(t, 3.33333333, entry, 1e-8)
	stops := r.openStops()
	require.Len(t, stops, 1)
	assert.Equal(t, core.SideTypeSell, stops[0].Side)
	assert.Equal(t, 95.0, *stops[0].Stop)

	meanieStep(t, m, r, day0.Add(2*time.Hour), 97)
	assert.InDelta(t, entry*1.2, r.position(), 1e-8)

	// band 3 already used
	meanieStep(t, m, r, day0.Add(3*time.Hour), 97)
	assert.InDelta(t, entry*1.2, r.position(), 1e-8)

	meanieStep(t, m, r, day0.Add(4*time.Hour), 96)
	assert.InDelta(t, entry*1.44, r.position(), 1e-8)
	stops = r.openStops()
	require.Len(t, stops, 1)
	assert.InDelta(t, entry*1.44, stops[0].Quantity, 1e-8)
	assert.Equal(t, 95.0, *stops[0].Stop)

	// back to vwap: flat, stop canceled and ladder reset
	meanieStep(t, m, r, day0.Add(5*time.Hour), 100)
	assert.Zero(t, r.position())
	assert.Empty(t, r.openStops())

	meanieStep(t, m, r, day0.Add(6*time.Hour), 98)
	assert.Greater(t, r.position(), 0.0)
}

func TestMeaniePantsVWAP_Short(t *testing.T) {
	m, err := NewMeaniePantsVWAP(testMeanieConfig(), zerolog.Nop())
	require.NoError(t, err)
	r := newReplay(10000)

	meanieStep(t, m, r, day0, 102)
	assert.Less(t, r.position(), 0.0)
	stops := r.openStops()
	require.Len(t, stops, 1)
	assert.Equal(t, core.SideTypeBuy, stops[0].Side)
	assert.Equal(t, 105.0, *stops[0].Stop)

	meanieStep(t, m, r, day0.Add(time.Hour), 99.5)
	assert.Zero(t, r.position())
}

func TestMeaniePantsVWAP_StopOut(t *testing.T) {
	m, err := NewMeaniePantsVWAP(testMeanieConfig(), zerolog.Nop())
	require.NoError(t, err)
	r := newReplay(10000)

	meanieStep(t, m, r, day0, 98)
	require.Greater(t, r.position(), 0.0)

	// the stop fills at 95, the entry band stays used for the day
	meanieStep(t, m, r, day0.Add(time.Hour), 94)
	assert.Zero(t, r.position())
	meanieStep(t, m, r, day0.Add(2*time.Hour), 98)
	assert.Zero(t, r.position())

	meanieStep(t, m, r, day0.Add(24*time.Hour), 98)
	assert.Greater(t, r.position(), 0.0)
}

func TestMeaniePantsVWAP_SkipCandles(t *testing.T) {
	config := testMeanieConfig()
	config.SkipCandles = 2
	m, err := NewMeaniePantsVWAP(config, zerolog.Nop())
	require.NoError(t, err)
	r := newReplay(10000)

	meanieStep(t, m, r, day0, 98)
	meanieStep(t, m, r, day0.Add(time.Hour), 98)
	assert.Zero(t, r.position())

	meanieStep(t, m, r, day0.Add(2*time.Hour), 98)
	assert.Greater(t, r.position(), 0.0)
}

func TestMeaniePantsVWAP_SkipHour(t *testing.T) {
	config := testMeanieConfig()
	config.SkipHour = 23
	m, err := NewMeaniePantsVWAP(config, zerolog.Nop())
	require.NoError(t, err)
	r := newReplay(10000)

	meanieStep(t, m, r, day0.Add(-time.Hour), 98)
	assert.Zero(t, r.position())

	meanieStep(t, m, r, day0, 98)
	assert.Greater(t, r.position(), 0.0)
}

func TestMeaniePantsVWAP_Indicators(t *testing.T) {
	m, err := NewMeaniePantsVWAP(testMeanieConfig(), zerolog.Nop())
	require.NoError(t, err)

	candles := make([]core.Candle, 30)
	for i := range candles {
		price := 100 + float64(i%5)
		candles[i] = core.Candle{Pair: testPair, Time: day0.Add(time.Duration(i) * time.Hour),
			Open: price, High: price + 1, Low: price - 1, Close: price, Volume: float64(i + 1), Complete: true}
	}
	df := core.NewDataframe(testPair, candles)

	charts := m.Indicators(df)
	require.Len(t, charts, 1)
	assert.Len(t, charts[0].Metrics, 11)

	bands, err := indicator.VWAPBands(df, m.config.Bands)
	require.NoError(t, err)
	assert.Equal(t, bands.VWAP, df.Metadata["vwap"])
	for k := 0; k < 5; k++ {
		assert.Equal(t, bands.Upper[k], df.Metadata[bandKey("upper", k)])
		assert.Equal(t, bands.Lower[k], df.Metadata[bandKey("lower", k)])
	}
}
