package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandleFromRow(t *testing.T) {
	row := []float64{1704067200000, 100, 110, 95, 105, 12.5}

	candle, err := CandleFromRow("BTCUSDT", row)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", candle.Pair)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), candle.Time)
	assert.Equal(t, time.UTC, candle.Time.Location())
	assert.Equal(t, 100.0, candle.Open)
	assert.Equal(t, 110.0, candle.High)
	assert.Equal(t, 95.0, candle.Low)
	assert.Equal(t, 105.0, candle.Close)
	assert.Equal(t, 12.5, candle.Volume)
	assert.True(t, candle.Complete)

	assert.Equal(t, row, candle.Row())
	assert.Equal(t, int64(1704067200000), candle.UnixMilli())

	_, err = CandleFromRow("BTCUSDT", row[:5])
	require.ErrorIs(t, err, ErrInvalidRow)
}

func TestCandle_ToSlice(t *testing.T) {
	candle := Candle{Time: time.UnixMilli(1704067200000), Open: 1.5, High: 2.25, Low: 1, Close: 2, Volume: 10}
	assert.Equal(t, []string{"1704067200000", "1.50", "2.25", "1.00", "2.00", "10.00"}, candle.ToSlice(2))
}

func TestCandle_ToHeikinAshi(t *testing.T) {
	ha := NewHeikinAshi()

	first := Candle{Pair: "BTCUSDT", Open: 10, High: 14, Low: 8, Close: 12, Volume: 3}
	smoothed := first.ToHeikinAshi(ha)
	assert.Equal(t, 11.0, smoothed.Open)
	assert.Equal(t, 11.0, smoothed.Close)
	assert.Equal(t, 14.0, smoothed.High)
	assert.Equal(t, 8.0, smoothed.Low)
	assert.Equal(t, 3.0, smoothed.Volume)
	assert.Equal(t, "BTCUSDT", smoothed.Pair)

	second := Candle{Pair: "BTCUSDT", Open: 12, High: 16, Low: 12, Close: 16, Volume: 1}
	smoothed = second.ToHeikinAshi(ha)
	assert.Equal(t, 11.0, smoothed.Open)
	assert.Equal(t, 14.0, smoothed.Close)
	assert.Equal(t, 16.0, smoothed.High)
	assert.Equal(t, 11.0, smoothed.Low)
}
