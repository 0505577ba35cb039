package core

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Column positions of the fixed candle row contract:
// [timestamp_ms, open, high, low, close, volume]
const (
	ColTimestamp = iota
	ColOpen
	ColHigh
	ColLow
	ColClose
	ColVolume

	RowWidth
)

var ErrInvalidRow = errors.New("invalid candle row")

type CandleSubscriber interface {
	OnCandle(Candle)
}

// Candle represents a trading candle with OHLCV data
type Candle struct {
	Pair      string
	Time      time.Time
	UpdatedAt time.Time
	Open      float64
	Close     float64
	Low       float64
	High      float64
	Volume    float64
	Complete  bool

	// Additional columns from CSV inputs
	Metadata map[string]float64
}

// CandleFromRow builds a complete candle from a
// [timestamp_ms, open, high, low, close, volume] row
func CandleFromRow(pair string, row []float64) (Candle, error) {
	if len(row) < RowWidth {
		return Candle{}, fmt.Errorf("%w: expected %d columns, got %d", ErrInvalidRow, RowWidth, len(row))
	}

	ts := time.UnixMilli(int64(row[ColTimestamp])).UTC()
	return Candle{
		Pair:      pair,
		Time:      ts,
		UpdatedAt: ts,
		Open:      row[ColOpen],
		High:      row[ColHigh],
		Low:       row[ColLow],
		Close:     row[ColClose],
		Volume:    row[ColVolume],
		Complete:  true,
	}, nil
}

// Row converts the candle back to the fixed column contract
func (c Candle) Row() []float64 {
	return []float64{float64(c.UnixMilli()), c.Open, c.High, c.Low, c.Close, c.Volume}
}

// UnixMilli returns the candle open time in milliseconds since epoch
func (c Candle) UnixMilli() int64 { return c.Time.UnixMilli() }

// IsEmpty checks if the candle contains no significant data
func (c Candle) IsEmpty() bool { return c.Pair == "" && c.Close == 0 && c.Open == 0 && c.Volume == 0 }

// ToSlice converts a candle to a string slice for serialization
// with the specified decimal precision
func (c Candle) ToSlice(precision int) []string {
	return []string{
		strconv.FormatInt(c.UnixMilli(), 10),
		strconv.FormatFloat(c.Open, 'f', precision, 64),
		strconv.FormatFloat(c.High, 'f', precision, 64),
		strconv.FormatFloat(c.Low, 'f', precision, 64),
		strconv.FormatFloat(c.Close, 'f', precision, 64),
		strconv.FormatFloat(c.Volume, 'f', precision, 64),
	}
}

// ToHeikinAshi transforms a regular candle into a Heikin-Ashi candle
func (c Candle) ToHeikinAshi(ha *HeikinAshi) Candle {
	haCandle := ha.CalculateHeikinAshi(c)

	return Candle{
		Pair:      c.Pair,
		Open:      haCandle.Open,
		High:      haCandle.High,
		Low:       haCandle.Low,
		Close:     haCandle.Close,
		Volume:    c.Volume,
		Complete:  c.Complete,
		Time:      c.Time,
		UpdatedAt: c.UpdatedAt,
		Metadata:  c.Metadata,
	}
}
