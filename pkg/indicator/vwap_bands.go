package indicator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/raykavin/vwapbands/pkg/core"
)

var (
	ErrInvalidInput = errors.New("invalid vwap input")
	ErrZeroVolume   = errors.New("zero cumulative volume in window")
)

// DefaultDevMultipliers are the deviation multipliers of the five default bands
var DefaultDevMultipliers = []float64{1, 2, 3, 4, 5}

// VWAPBandsConfig configures a VWAP band computation
type VWAPBandsConfig struct {
	// DevMultipliers gives one upper and one lower band per entry, in order.
	// Duplicates are kept and an empty list yields VWAP and deviation only.
	DevMultipliers []float64
	Source         SourceType
	Interval       Interval

	// RejectZeroVolume turns a window that has seen no volume yet into
	// ErrZeroVolume. When false those candles report NaN.
	RejectZeroVolume bool
}

// DefaultVWAPBandsConfig resets daily on ohlc4 prices with bands at 1..5 deviations
func DefaultVWAPBandsConfig() VWAPBandsConfig {
	return VWAPBandsConfig{
		DevMultipliers: append([]float64(nil), DefaultDevMultipliers...),
		Source:         SourceOHLC4,
		Interval:       IntervalDay,
	}
}

// VWAPBandsSeries holds VWAP, deviation and band levels for every candle.
// Upper[k][i] is the band built with DevMultipliers[k] at candle i.
type VWAPBandsSeries struct {
	Time      []time.Time
	VWAP      core.Series[float64]
	Deviation core.Series[float64]
	Upper     []core.Series[float64]
	Lower     []core.Series[float64]
}

// VWAPBandsValue holds the statistics of a single candle
type VWAPBandsValue struct {
	Time      time.Time
	VWAP      float64
	Deviation float64
	Upper     []float64
	Lower     []float64
}

// Len returns the number of candles in the series
func (s VWAPBandsSeries) Len() int {
	return len(s.VWAP)
}

// At returns the statistics of candle i
func (s VWAPBandsSeries) At(i int) VWAPBandsValue {
	value := VWAPBandsValue{
		VWAP:      s.VWAP[i],
		Deviation: s.Deviation[i],
		Upper:     make([]float64, len(s.Upper)),
		Lower:     make([]float64, len(s.Lower)),
	}
	if i < len(s.Time) {
		value.Time = s.Time[i]
	}
	for k := range s.Upper {
		value.Upper[k] = s.Upper[k][i]
		value.Lower[k] = s.Lower[k][i]
	}
	return value
}

// Last returns the statistics of the most recent candle
func (s VWAPBandsSeries) Last() VWAPBandsValue {
	return s.At(s.Len() - 1)
}

// VWAPBands computes the full VWAP band series over the dataframe
func VWAPBands(df *core.Dataframe, cfg VWAPBandsConfig) (VWAPBandsSeries, error) {
	if df == nil || df.Len() == 0 {
		return VWAPBandsSeries{}, fmt.Errorf("%w: no candles", ErrInvalidInput)
	}

	source, err := Source(df, cfg.Source)
	if err != nil {
		return VWAPBandsSeries{}, err
	}

	return VWAPBandsFromSource(df.Time, source, df.Volume, cfg.DevMultipliers, cfg.Interval, cfg.RejectZeroVolume)
}

// VWAPBandsLast computes the statistics of the most recent candle only.
// Time order, volume and, when RejectZeroVolume is set, the volume of every
// window are checked over the whole input. Windows never share state, so
// only the last window is accumulated.
func VWAPBandsLast(df *core.Dataframe, cfg VWAPBandsConfig) (VWAPBandsValue, error) {
	if df == nil || df.Len() == 0 {
		return VWAPBandsValue{}, fmt.Errorf("%w: no candles", ErrInvalidInput)
	}

	if err := cfg.Interval.Validate(); err != nil {
		return VWAPBandsValue{}, err
	}

	keys, err := windowKeys(df.Time, df.Volume, cfg.Interval)
	if err != nil {
		return VWAPBandsValue{}, err
	}

	if cfg.RejectZeroVolume {
		if i, found := firstZeroVolume(keys, df.Volume); found {
			return VWAPBandsValue{}, zeroVolumeError(i, df.Time[i])
		}
	}

	start := len(keys) - 1
	for start > 0 && keys[start-1] == keys[len(keys)-1] {
		start--
	}

	window := df.Sample(df.Len() - start)
	series, err := VWAPBands(&window, cfg)
	if err != nil {
		return VWAPBandsValue{}, err
	}

	return series.Last(), nil
}

// VWAPBandsFromSource runs the cumulative computation over aligned time,
// price and volume columns. Running sums of price*volume, volume and
// volume*price^2 restart at the first candle of every window.
func VWAPBandsFromSource(times []time.Time, source, volume, multipliers []float64,
	interval Interval, rejectZeroVolume bool) (VWAPBandsSeries, error) {

	if err := interval.Validate(); err != nil {
		return VWAPBandsSeries{}, err
	}

	if len(source) != len(times) {
		return VWAPBandsSeries{}, fmt.Errorf("%w: misaligned columns (time=%d, source=%d)",
			ErrInvalidInput, len(times), len(source))
	}

	keys, err := windowKeys(times, volume, interval)
	if err != nil {
		return VWAPBandsSeries{}, err
	}

	size := len(times)
	result := VWAPBandsSeries{
		Time:      times,
		VWAP:      make(core.Series[float64], size),
		Deviation: make(core.Series[float64], size),
		Upper:     make([]core.Series[float64], len(multipliers)),
		Lower:     make([]core.Series[float64], len(multipliers)),
	}
	for k := range multipliers {
		result.Upper[k] = make(core.Series[float64], size)
		result.Lower[k] = make(core.Series[float64], size)
	}

	var acc accumulator
	for i := 0; i < size; i++ {
		if i == 0 || keys[i] != keys[i-1] {
			acc.reset()
		}
		acc.add(source[i], volume[i])

		vwap, deviation, ok := acc.stats()
		if !ok && rejectZeroVolume {
			return VWAPBandsSeries{}, zeroVolumeError(i, times[i])
		}

		result.VWAP[i] = vwap
		result.Deviation[i] = deviation
		for k, multiplier := range multipliers {
			result.Upper[k][i] = vwap + multiplier*deviation
			result.Lower[k][i] = vwap - multiplier*deviation
		}
	}

	return result, nil
}

// windowKeys validates time and volume columns and derives one window key per candle
func windowKeys(times []time.Time, volume []float64, interval Interval) ([]int64, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: no candles", ErrInvalidInput)
	}

	if len(volume) != len(times) {
		return nil, fmt.Errorf("%w: misaligned columns (time=%d, volume=%d)",
			ErrInvalidInput, len(times), len(volume))
	}

	keys := make([]int64, len(times))
	for i, t := range times {
		if volume[i] < 0 || math.IsNaN(volume[i]) {
			return nil, fmt.Errorf("%w: invalid volume %v at candle %d", ErrInvalidInput, volume[i], i)
		}

		if i > 0 && t.Before(times[i-1]) {
			return nil, fmt.Errorf("%w: candle %d is older than its predecessor", ErrInvalidInput, i)
		}

		key, err := WindowKey(t, interval)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}

	return keys, nil
}

// firstZeroVolume finds the first candle whose window has no cumulative
// volume yet. Volume is non-negative, so that is a window opening with zero.
func firstZeroVolume(keys []int64, volume []float64) (int, bool) {
	for i := range keys {
		if (i == 0 || keys[i] != keys[i-1]) && volume[i] == 0 {
			return i, true
		}
	}
	return 0, false
}

func zeroVolumeError(i int, t time.Time) error {
	return fmt.Errorf("%w: candle %d at %s", ErrZeroVolume, i, t.UTC().Format(time.RFC3339))
}

// accumulator keeps the running sums of the current window
type accumulator struct {
	pv  float64 // sum of price * volume
	v   float64 // sum of volume
	pv2 float64 // sum of volume * price^2
}

func (a *accumulator) reset() {
	*a = accumulator{}
}

func (a *accumulator) add(price, volume float64) {
	a.pv += price * volume
	a.v += volume
	a.pv2 += volume * price * price
}

// stats returns NaN values and false while the window has no volume
func (a *accumulator) stats() (vwap, deviation float64, ok bool) {
	if a.v == 0 {
		return math.NaN(), math.NaN(), false
	}

	vwap = a.pv / a.v
	variance := math.Max(0, a.pv2/a.v-vwap*vwap)
	return vwap, math.Sqrt(variance), true
}
