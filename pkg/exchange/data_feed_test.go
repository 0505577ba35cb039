package exchange

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/vwapbands/pkg/core"
	"github.com/raykavin/vwapbands/pkg/logger/zerolog"
)

func TestDataFeedSubscription(t *testing.T) {
	file := writeCSV(t,
		"1704067200000,1,1,1,1,1",
		"1704070800000,2,2,2,2,1",
		"1704074400000,3,3,3,3,1",
	)
	feed, err := NewCSVFeed("", PairFeed{Pair: "BTCUSDT", File: file, Timeframe: "1h"})
	require.NoError(t, err)

	dataFeed := NewDataFeed(feed, zerolog.Nop())

	var (
		mu     sync.Mutex
		closes []float64
		all    int
	)
	dataFeed.Subscribe("BTCUSDT", "1h", func(candle core.Candle) {
		mu.Lock()
		defer mu.Unlock()
		closes = append(closes, candle.Close)
	}, true)
	dataFeed.Subscribe("BTCUSDT", "1h", func(core.Candle) {
		mu.Lock()
		defer mu.Unlock()
		all++
	}, false)

	dataFeed.Start(context.Background(), true)

	assert.Equal(t, []float64{1, 2, 3}, closes)
	assert.Equal(t, 3, all)
}

func TestDataFeedSubscription_Preload(t *testing.T) {
	dataFeed := NewDataFeed(&CSVFeed{}, zerolog.Nop())

	var received []float64
	dataFeed.Subscribe("ETHUSDT", "1d", func(candle core.Candle) {
		received = append(received, candle.Close)
	}, true)

	dataFeed.Preload("ETHUSDT", "1d", []core.Candle{
		{Pair: "ETHUSDT", Close: 1, Complete: true},
		{Pair: "ETHUSDT", Close: 2, Complete: false},
		{Pair: "ETHUSDT", Close: 3, Complete: true},
	})

	assert.Equal(t, []float64{1, 3}, received)
}
