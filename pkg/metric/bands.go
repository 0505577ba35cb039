package metric

import (
	"math"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/raykavin/vwapbands/pkg/indicator"
)

// BandTouch counts how often closes reached beyond one band pair
type BandTouch struct {
	Band    int     // index into the multipliers
	Above   float64 // fraction of candles closing at or above the upper band
	Below   float64 // fraction of candles closing at or below the lower band
	Candles int     // candles with a defined band
}

// BandTouches measures every band of series against closes. Candles whose
// band is undefined or flat (zero deviation) are not counted.
func BandTouches(series indicator.VWAPBandsSeries, closes []float64) []BandTouch {
	touches := make([]BandTouch, len(series.Upper))

	for k := range series.Upper {
		touches[k].Band = k

		var above, below []float64
		for i := 0; i < len(closes) && i < series.Len(); i++ {
			if math.IsNaN(series.Deviation[i]) || series.Deviation[i] == 0 {
				continue
			}
			above = append(above, lo.Ternary(closes[i] >= series.Upper[k][i], 1.0, 0.0))
			below = append(below, lo.Ternary(closes[i] <= series.Lower[k][i], 1.0, 0.0))
		}

		touches[k].Candles = len(above)
		if len(above) > 0 {
			touches[k].Above = stat.Mean(above, nil)
			touches[k].Below = stat.Mean(below, nil)
		}
	}

	return touches
}

// DeviationStats summarizes the finite deviations of a series
type DeviationStats struct {
	Count  int
	Mean   float64
	StdDev float64
	P95    float64
	Max    float64
}

func DeviationSummary(series indicator.VWAPBandsSeries) DeviationStats {
	values := lo.Filter([]float64(series.Deviation), func(v float64, _ int) bool {
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	})
	if len(values) == 0 {
		return DeviationStats{}
	}
	sort.Float64s(values)

	summary := DeviationStats{
		Count: len(values),
		P95:   stat.Quantile(0.95, stat.Empirical, values, nil),
		Max:   values[len(values)-1],
	}
	if len(values) > 1 {
		summary.Mean, summary.StdDev = stat.MeanStdDev(values, nil)
	} else {
		summary.Mean = values[0]
	}

	return summary
}
