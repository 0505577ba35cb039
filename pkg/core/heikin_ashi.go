package core

import "math"

// HeikinAshi keeps the previous smoothed candle needed to build the next one
type HeikinAshi struct {
	previous Candle
}

func NewHeikinAshi() *HeikinAshi {
	return &HeikinAshi{}
}

// CalculateHeikinAshi smooths a standard candle:
//   - close = (open + high + low + close) / 4
//   - open  = (previous open + previous close) / 2
//   - high  = max(high, open, close), low = min(low, open, close)
func (ha *HeikinAshi) CalculateHeikinAshi(c Candle) Candle {
	var smoothed Candle

	openValue, closeValue := ha.previous.Open, ha.previous.Close
	if ha.previous.IsEmpty() {
		openValue, closeValue = c.Open, c.Close
	}

	smoothed.Open = (openValue + closeValue) / 2
	smoothed.Close = (c.Open + c.High + c.Low + c.Close) / 4
	smoothed.High = math.Max(c.High, math.Max(smoothed.Open, smoothed.Close))
	smoothed.Low = math.Min(c.Low, math.Min(smoothed.Open, smoothed.Close))

	ha.previous = smoothed

	return smoothed
}
