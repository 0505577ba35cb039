package indicator

import "github.com/markcheno/go-talib"

// SMA calculates Simple Moving Average
func SMA(input []float64, period int) []float64 {
	return talib.Sma(input, period)
}

// EMA calculates Exponential Moving Average
func EMA(input []float64, period int) []float64 {
	return talib.Ema(input, period)
}

// ATR calculates Average True Range. Inputs not longer than period give zeros.
func ATR(high, low, close []float64, period int) []float64 {
	if len(close) <= period {
		return make([]float64, len(close))
	}
	return talib.Atr(high, low, close, period)
}

// ADX calculates Average Directional Movement Index. Inputs shorter than
// its 2*period lookback give zeros.
func ADX(high, low, close []float64, period int) []float64 {
	if len(close) < 2*period {
		return make([]float64, len(close))
	}
	return talib.Adx(high, low, close, period)
}

// Max returns the highest value over a rolling period
func Max(input []float64, period int) []float64 {
	return talib.Max(input, period)
}

// Min returns the lowest value over a rolling period
func Min(input []float64, period int) []float64 {
	return talib.Min(input, period)
}

// ------------------------------------------
// Price Transform
// ------------------------------------------

// AvgPrice calculates (open + high + low + close) / 4
func AvgPrice(open, high, low, close []float64) []float64 {
	return talib.AvgPrice(open, high, low, close)
}

// MedPrice calculates (high + low) / 2
func MedPrice(high, low []float64) []float64 {
	return talib.MedPrice(high, low)
}

// TypPrice calculates (high + low + close) / 3
func TypPrice(high, low, close []float64) []float64 {
	return talib.TypPrice(high, low, close)
}

// WCLPrice calculates (high + low + 2*close) / 4
func WCLPrice(high, low, close []float64) []float64 {
	return talib.WclPrice(high, low, close)
}
