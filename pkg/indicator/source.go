package indicator

import (
	"errors"
	"fmt"

	"github.com/raykavin/vwapbands/pkg/core"
)

var ErrInvalidSource = errors.New("invalid source type")

// SourceType selects the per-candle price derived from OHLC
type SourceType string

const (
	SourceOpen   SourceType = "open"
	SourceHigh   SourceType = "high"
	SourceLow    SourceType = "low"
	SourceClose  SourceType = "close"
	SourceVolume SourceType = "volume"
	SourceHL2    SourceType = "hl2"   // (high + low) / 2
	SourceHLC3   SourceType = "hlc3"  // (high + low + close) / 3
	SourceOHLC4  SourceType = "ohlc4" // (open + high + low + close) / 4
	SourceHLCC4  SourceType = "hlcc4" // (high + low + 2 * close) / 4
)

// Validate returns ErrInvalidSource for unknown source names
func (s SourceType) Validate() error {
	switch s {
	case SourceOpen, SourceHigh, SourceLow, SourceClose, SourceVolume,
		SourceHL2, SourceHLC3, SourceOHLC4, SourceHLCC4:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidSource, string(s))
}

// Source extracts the configured price from every row of the dataframe.
// The returned slice is never aliased to the dataframe columns.
func Source(df *core.Dataframe, source SourceType) ([]float64, error) {
	switch source {
	case SourceOpen:
		return clone(df.Open), nil
	case SourceHigh:
		return clone(df.High), nil
	case SourceLow:
		return clone(df.Low), nil
	case SourceClose:
		return clone(df.Close), nil
	case SourceVolume:
		return clone(df.Volume), nil
	case SourceHL2:
		return MedPrice(df.High, df.Low), nil
	case SourceHLC3:
		return TypPrice(df.High, df.Low, df.Close), nil
	case SourceOHLC4:
		return AvgPrice(df.Open, df.High, df.Low, df.Close), nil
	case SourceHLCC4:
		return WCLPrice(df.High, df.Low, df.Close), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidSource, string(source))
}

func clone(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	return out
}
