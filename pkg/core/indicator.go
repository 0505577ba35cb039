package core

import (
	"time"
)

// MetricStyle is a rendering hint for an indicator metric
type MetricStyle string

const (
	StyleBar       = "bar"
	StyleScatter   = "scatter"
	StyleLine      = "line"
	StyleHistogram = "histogram"
	StyleWaterfall = "waterfall"
)

// IndicatorMetric is one named line of a chart annotation
type IndicatorMetric struct {
	Name   string
	Style  MetricStyle // default: line
	Values Series[float64]
}

// ChartIndicator groups metrics a strategy wants drawn next to the candles
type ChartIndicator struct {
	Time      []time.Time
	Metrics   []IndicatorMetric
	Overlay   bool
	GroupName string
	Warmup    int
}
