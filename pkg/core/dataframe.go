package core

import (
	"time"
)

// Dataframe is the column-oriented candle history handed to indicators and strategies
type Dataframe struct {
	Pair string

	Close  Series[float64]
	Open   Series[float64]
	High   Series[float64]
	Low    Series[float64]
	Volume Series[float64]

	Time       []time.Time
	LastUpdate time.Time

	// Custom user metadata for indicators
	Metadata map[string]Series[float64]
}

// NewDataframe builds a dataframe from time ordered candles
func NewDataframe(pair string, candles []Candle) *Dataframe {
	df := &Dataframe{
		Pair:     pair,
		Close:    make(Series[float64], 0, len(candles)),
		Open:     make(Series[float64], 0, len(candles)),
		High:     make(Series[float64], 0, len(candles)),
		Low:      make(Series[float64], 0, len(candles)),
		Volume:   make(Series[float64], 0, len(candles)),
		Time:     make([]time.Time, 0, len(candles)),
		Metadata: make(map[string]Series[float64]),
	}

	for _, candle := range candles {
		df.Append(candle)
	}

	return df
}

// Append adds a candle as the newest row
func (df *Dataframe) Append(candle Candle) {
	df.Close = append(df.Close, candle.Close)
	df.Open = append(df.Open, candle.Open)
	df.High = append(df.High, candle.High)
	df.Low = append(df.Low, candle.Low)
	df.Volume = append(df.Volume, candle.Volume)
	df.Time = append(df.Time, candle.Time)
	df.LastUpdate = candle.Time

	if df.Metadata == nil && len(candle.Metadata) > 0 {
		df.Metadata = make(map[string]Series[float64])
	}
	for key, value := range candle.Metadata {
		df.Metadata[key] = append(df.Metadata[key], value)
	}
}

// Len returns the number of rows
func (df Dataframe) Len() int {
	return len(df.Time)
}

// Candle rebuilds the candle stored at row i
func (df Dataframe) Candle(i int) Candle {
	return Candle{
		Pair:      df.Pair,
		Time:      df.Time[i],
		UpdatedAt: df.Time[i],
		Open:      df.Open[i],
		High:      df.High[i],
		Low:       df.Low[i],
		Close:     df.Close[i],
		Volume:    df.Volume[i],
		Complete:  true,
	}
}

// Sample returns the last 'positions' rows. Columns share memory with df
// but the sample gets its own metadata map.
func (df Dataframe) Sample(positions int) Dataframe {
	size := len(df.Time)
	start := size - positions

	if start <= 0 {
		start, positions = 0, size
	}

	sample := Dataframe{
		Pair:       df.Pair,
		Close:      df.Close.LastValues(positions),
		Open:       df.Open.LastValues(positions),
		High:       df.High.LastValues(positions),
		Low:        df.Low.LastValues(positions),
		Volume:     df.Volume.LastValues(positions),
		Time:       df.Time[start:],
		LastUpdate: df.LastUpdate,
		Metadata:   make(map[string]Series[float64]),
	}

	for key := range df.Metadata {
		sample.Metadata[key] = df.Metadata[key].LastValues(positions)
	}

	return sample
}
