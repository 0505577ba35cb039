package indicator

// Donchian returns the highest high, the lowest low and their midpoint over
// the trailing period, current candle included. The first period-1 values are zero.
func Donchian(high, low []float64, period int) (upper, middle, lower []float64) {
	upper = Max(high, period)
	lower = Min(low, period)
	middle = make([]float64, len(upper))
	for i := max(period-1, 0); i < len(upper) && i < len(lower); i++ {
		middle[i] = (upper[i] + lower[i]) / 2
	}
	return upper, middle, lower
}
