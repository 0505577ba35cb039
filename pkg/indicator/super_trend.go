package indicator

import "math"

// SuperTrend follows price with an ATR channel around the median price.
// The returned line sits on the lower band during an up trend and on the
// upper band during a down trend. Values before the ATR warmup are NaN.
func SuperTrend(high, low, close []float64, atrPeriod int, factor float64) []float64 {
	length := len(close)
	trend := make([]float64, length)
	if length == 0 {
		return trend
	}

	for i := range trend {
		trend[i] = math.NaN()
	}
	if length <= atrPeriod {
		return trend
	}

	atr := ATR(high, low, close, atrPeriod)

	var upper, lower float64
	up := true
	for i := atrPeriod; i < length; i++ {
		median := (high[i] + low[i]) / 2.0
		basicUpper := median + atr[i]*factor
		basicLower := median - atr[i]*factor

		if i == atrPeriod {
			upper, lower = basicUpper, basicLower
			up = close[i] >= median
		} else {
			// bands only tighten while price stays inside them
			if basicUpper < upper || close[i-1] > upper {
				upper = basicUpper
			}
			if basicLower > lower || close[i-1] < lower {
				lower = basicLower
			}

			switch {
			case up && close[i] < lower:
				up = false
			case !up && close[i] > upper:
				up = true
			}
		}

		if up {
			trend[i] = lower
		} else {
			trend[i] = upper
		}
	}

	return trend
}

// SuperTrendDirection returns 1 when price closes above the trend line,
// -1 below it and 0 on a tie or while the line is undefined
func SuperTrendDirection(close, trend []float64) int {
	if len(close) == 0 || len(trend) == 0 {
		return 0
	}

	last, line := close[len(close)-1], trend[len(trend)-1]
	switch {
	case math.IsNaN(line):
		return 0
	case last > line:
		return 1
	case last < line:
		return -1
	}
	return 0
}
