package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/vwapbands/pkg/core"
)

var start = time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

func candleAt(minute int, close float64) core.Candle {
	return core.Candle{
		Pair:     "ETHUSDT",
		Time:     start.Add(time.Duration(minute) * time.Minute),
		Open:     close,
		High:     close,
		Low:      close,
		Close:    close,
		Volume:   1,
		Complete: true,
	}
}

func TestDataframeManager_Update(t *testing.T) {
	dm := NewDataframeManager("ETHUSDT")
	dm.Update(candleAt(0, 10))
	dm.Update(candleAt(1, 11))

	replacement := candleAt(1, 12)
	replacement.Volume = 5
	dm.Update(replacement)

	df := dm.Dataframe()
	require.Equal(t, 2, df.Len())
	assert.Equal(t, 12.0, df.Close.Last(0))
	assert.Equal(t, 5.0, df.Volume.Last(0))
	assert.Equal(t, "ETHUSDT", df.Pair)
}

func TestDataframeManager_Metadata(t *testing.T) {
	dm := NewDataframeManager("ETHUSDT")

	first := candleAt(0, 10)
	first.Metadata = map[string]float64{"trades": 3}
	dm.Update(first)

	second := candleAt(0, 11)
	second.Metadata = map[string]float64{"trades": 7}
	dm.Update(second)

	assert.Equal(t, core.Series[float64]{7}, dm.Dataframe().Metadata["trades"])
}

func TestDataframeManager_LateCandle(t *testing.T) {
	dm := NewDataframeManager("ETHUSDT")
	assert.False(t, dm.IsLateCandle(candleAt(0, 10)))

	dm.Update(candleAt(5, 10))
	assert.True(t, dm.IsLateCandle(candleAt(4, 10)))
	assert.False(t, dm.IsLateCandle(candleAt(5, 10)))
	assert.False(t, dm.IsLateCandle(candleAt(6, 10)))
}

func TestDataframeManager_Sample(t *testing.T) {
	dm := NewDataframeManager("ETHUSDT")
	for i := 0; i < 5; i++ {
		dm.Update(candleAt(i, float64(i)))
	}

	assert.False(t, dm.HasSufficientData(6))
	assert.True(t, dm.HasSufficientData(5))

	sample := dm.Sample(3)
	assert.Equal(t, core.Series[float64]{2, 3, 4}, sample.Close)
	assert.Len(t, sample.Time, 3)

	sample.Metadata["sma"] = core.Series[float64]{1, 2, 3}
	assert.NotContains(t, dm.Dataframe().Metadata, "sma")
}
