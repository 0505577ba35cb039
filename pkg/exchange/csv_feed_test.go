package exchange

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()

	file := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(file, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return file
}

func TestReadCandles_Headerless(t *testing.T) {
	candles, err := ReadCandles(strings.NewReader(
		"1704067200000,100,110,90,105,10\n"+
			"1704067260000,105,106,104,104.5,2.5\n"), "BTCUSDT", false)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), candles[0].Time)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 110.0, candles[0].High)
	assert.Equal(t, 90.0, candles[0].Low)
	assert.Equal(t, 105.0, candles[0].Close)
	assert.Equal(t, 10.0, candles[0].Volume)
	assert.Equal(t, "BTCUSDT", candles[1].Pair)
	assert.True(t, candles[1].Complete)
}

func TestReadCandles_Header(t *testing.T) {
	candles, err := ReadCandles(strings.NewReader(
		"time,close,open,high,low,volume,trades\n"+
			"1704067200,105,100,110,90,10,42\n"), "BTCUSDT", false)
	require.NoError(t, err)
	require.Len(t, candles, 1)

	// seconds are promoted to milliseconds
	assert.Equal(t, int64(1704067200000), candles[0].UnixMilli())
	assert.Equal(t, 105.0, candles[0].Close)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, map[string]float64{"trades": 42}, candles[0].Metadata)
}

func TestReadCandles_Errors(t *testing.T) {
	_, err := ReadCandles(strings.NewReader("timestamp,open,high,low,close\n1,1,1,1,1\n"), "BTCUSDT", false)
	require.ErrorIs(t, err, ErrInvalidCSV)

	_, err = ReadCandles(strings.NewReader("1704067200000,1,1,1,1\n"), "BTCUSDT", false)
	require.ErrorIs(t, err, ErrInvalidCSV)

	_, err = ReadCandles(strings.NewReader("1704067200000,1,1,1,1,abc\n"), "BTCUSDT", false)
	require.Error(t, err)

	_, err = ReadCandles(strings.NewReader("1704067260000,1,1,1,1,1\n1704067200000,1,1,1,1,1\n"), "BTCUSDT", false)
	require.ErrorIs(t, err, ErrInvalidCSV)
}

func TestReadCandles_HeikinAshi(t *testing.T) {
	candles, err := ReadCandles(strings.NewReader("1704067200000,10,14,8,12,3\n"), "BTCUSDT", true)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, 11.0, candles[0].Open)
	assert.Equal(t, 11.0, candles[0].Close)
}

func TestNewCSVFeed_Resample(t *testing.T) {
	// 23:30 is a partial hour, then two complete hours and a partial one
	file := writeCSV(t,
		"timestamp,open,high,low,close,volume",
		"1704065400000,1,1,1,1,1",
		"1704067200000,10,12,9,11,1",
		"1704069000000,11,15,10,14,2",
		"1704070800000,14,14,7,8,3",
		"1704072600000,8,9,6,9,4",
		"1704074400000,9,9,9,9,5",
	)

	feed, err := NewCSVFeed("1h", PairFeed{Pair: "BTCUSDT", File: file, Timeframe: "30m"})
	require.NoError(t, err)

	ctx := context.Background()
	hourly, err := feed.CandlesByPeriod(ctx, "BTCUSDT", "1h", time.Time{}, time.Now())
	require.NoError(t, err)
	require.Len(t, hourly, 2)

	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), hourly[0].Time)
	assert.Equal(t, 10.0, hourly[0].Open)
	assert.Equal(t, 15.0, hourly[0].High)
	assert.Equal(t, 9.0, hourly[0].Low)
	assert.Equal(t, 14.0, hourly[0].Close)
	assert.Equal(t, 3.0, hourly[0].Volume)
	assert.True(t, hourly[0].Complete)

	assert.Equal(t, 6.0, hourly[1].Low)
	assert.Equal(t, 7.0, hourly[1].Volume)

	source, err := feed.CandlesByPeriod(ctx, "BTCUSDT", "30m", time.Time{}, time.Now())
	require.NoError(t, err)
	assert.Len(t, source, 6)
	assert.Equal(t, source, feed.Candles("BTCUSDT", "30m"))
	assert.Empty(t, feed.Candles("BTCUSDT", "4h"))

	assert.Equal(t, []string{"BTCUSDT"}, feed.Pairs())
}

func TestNewCSVFeed_Weekly(t *testing.T) {
	var lines []string
	// Monday 2024-01-01 through Monday 2024-01-08, daily candles
	for day := 0; day < 8; day++ {
		ts := time.Date(2024, time.January, 1+day, 0, 0, 0, 0, time.UTC).UnixMilli()
		lines = append(lines, strings.Join([]string{
			strconv.FormatInt(ts, 10), "1", "2", "1", "2", "1",
		}, ","))
	}

	feed, err := NewCSVFeed("1w", PairFeed{Pair: "ETHUSDT", File: writeCSV(t, lines...), Timeframe: "1d"})
	require.NoError(t, err)

	weekly, err := feed.CandlesByPeriod(context.Background(), "ETHUSDT", "1w", time.Time{}, time.Now())
	require.NoError(t, err)
	require.Len(t, weekly, 1)
	assert.Equal(t, 7.0, weekly[0].Volume)
	assert.Equal(t, time.Monday, weekly[0].Time.Weekday())

	_, err = NewCSVFeed("7m", PairFeed{Pair: "ETHUSDT", File: writeCSV(t, lines...), Timeframe: "1d"})
	require.ErrorIs(t, err, ErrInvalidTimeframe)
}

func TestCSVFeed_LimitAndSubscription(t *testing.T) {
	file := writeCSV(t,
		"1704067200000,1,1,1,1,1",
		"1704070800000,2,2,2,2,1",
		"1704074400000,3,3,3,3,1",
	)

	feed, err := NewCSVFeed("", PairFeed{Pair: "BTCUSDT", File: file, Timeframe: "1h"})
	require.NoError(t, err)

	feed.Limit(90 * time.Minute)

	ccandle, cerr := feed.CandlesSubscription(context.Background(), "BTCUSDT", "1h")
	var closes []float64
	for candle := range ccandle {
		closes = append(closes, candle.Close)
	}
	assert.Equal(t, []float64{2, 3}, closes)
	_, open := <-cerr
	assert.False(t, open)

	first, err := feed.CandlesByLimit(context.Background(), "BTCUSDT", "1h", 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, first[0].Close)

	_, err = feed.CandlesByLimit(context.Background(), "BTCUSDT", "1h", 5)
	require.ErrorIs(t, err, ErrInsufficientData)

	info := feed.AssetsInfo("BTCUSDT")
	assert.Equal(t, "BTC", info.BaseAsset)
	assert.Equal(t, "USDT", info.QuoteAsset)
}
