package main

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/raykavin/vwapbands/pkg/core"
	"github.com/raykavin/vwapbands/pkg/indicator"
)

func TestBandHeaders(t *testing.T) {
	assert.Equal(t, []string{"Time", "VWAP", "Dev", "+1σ", "-1σ", "+2.5σ", "-2.5σ"}, bandHeaders([]float64{1, 2.5}))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "-", formatPrice(math.NaN()))
	assert.Equal(t, "100", formatPrice(100))
	assert.Equal(t, "0", formatPrice(0))
	assert.Equal(t, "1.2346", formatPrice(1.23456))
}

func TestEquityReturns(t *testing.T) {
	returns := equityReturns([]float64{100, 100, 110, 99})
	assert.InDeltaSlice(t, []float64{10, -10}, returns, 1e-9)
	assert.Empty(t, equityReturns([]float64{100}))
}

func TestZScores(t *testing.T) {
	series := indicator.VWAPBandsSeries{
		VWAP:      core.Series[float64]{math.NaN(), 100, 100},
		Deviation: core.Series[float64]{math.NaN(), 0, 2},
	}
	assert.Equal(t, []float64{1.5}, zScores(series, []float64{1, 100, 103}))
}

func TestTailRows(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	series := indicator.VWAPBandsSeries{
		Time:      []time.Time{start, start.Add(time.Minute), start.Add(2 * time.Minute)},
		VWAP:      core.Series[float64]{100, 101, 102},
		Deviation: core.Series[float64]{0, 1, 2},
	}

	rows := tailRows(series, 2)
	if assert.Len(t, rows, 2) {
		assert.Equal(t, 101.0, rows[0].VWAP)
		assert.Equal(t, 102.0, rows[1].VWAP)
	}

	assert.Len(t, tailRows(series, 10), 3)
	assert.Empty(t, tailRows(series, 0))
	assert.Empty(t, tailRows(series, -1))
}
