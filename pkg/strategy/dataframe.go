package strategy

import "github.com/raykavin/vwapbands/pkg/core"

// DataframeManager keeps the growing candle history of one pair
type DataframeManager struct {
	dataframe *core.Dataframe
}

func NewDataframeManager(pair string) *DataframeManager {
	return &DataframeManager{dataframe: core.NewDataframe(pair, nil)}
}

func (dm *DataframeManager) Dataframe() *core.Dataframe {
	return dm.dataframe
}

// Sample returns the last size candles
func (dm *DataframeManager) Sample(size int) core.Dataframe {
	return dm.dataframe.Sample(size)
}

// Update appends candle, or replaces the newest row when the open time matches
func (dm *DataframeManager) Update(candle core.Candle) {
	last := dm.dataframe.Len() - 1
	if last < 0 || !candle.Time.Equal(dm.dataframe.Time[last]) {
		dm.dataframe.Append(candle)
		return
	}

	dm.dataframe.Open[last] = candle.Open
	dm.dataframe.High[last] = candle.High
	dm.dataframe.Low[last] = candle.Low
	dm.dataframe.Close[last] = candle.Close
	dm.dataframe.Volume[last] = candle.Volume
	for key, value := range candle.Metadata {
		if series := dm.dataframe.Metadata[key]; len(series) > last {
			series[last] = value
		}
	}
}

func (dm *DataframeManager) HasSufficientData(warmupPeriod int) bool {
	return dm.dataframe.Len() >= warmupPeriod
}

// IsLateCandle reports a candle older than the newest row
func (dm *DataframeManager) IsLateCandle(candle core.Candle) bool {
	last := dm.dataframe.Len() - 1
	return last >= 0 && candle.Time.Before(dm.dataframe.Time[last])
}
