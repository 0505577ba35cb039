package exchange

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/StudioSol/set"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/xhit/go-str2duration/v2"

	"github.com/raykavin/vwapbands/pkg/core"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidTimeframe = errors.New("invalid timeframe")
	ErrInvalidCSV       = errors.New("invalid candle csv")
)

// Timestamps below this value are read as seconds and promoted to milliseconds
const secondsThreshold = 1e11

// headerless files follow the [timestamp_ms, open, high, low, close, volume] contract
var defaultHeaderMap = map[string]int{
	"timestamp": core.ColTimestamp,
	"open":      core.ColOpen,
	"high":      core.ColHigh,
	"low":       core.ColLow,
	"close":     core.ColClose,
	"volume":    core.ColVolume,
}

// PairFeed describes one CSV file of candles
type PairFeed struct {
	Pair       string
	File       string
	Timeframe  string
	HeikinAshi bool
}

// CSVFeed serves candles loaded from CSV files, optionally resampled
type CSVFeed struct {
	Feeds               map[string]PairFeed
	CandlePairTimeFrame map[string][]core.Candle
}

var _ core.Feeder = (*CSVFeed)(nil)

// NewCSVFeed loads every feed and resamples it to targetTimeframe.
// An empty target keeps the source timeframe only.
func NewCSVFeed(targetTimeframe string, feeds ...PairFeed) (*CSVFeed, error) {
	csvFeed := &CSVFeed{
		Feeds:               make(map[string]PairFeed),
		CandlePairTimeFrame: make(map[string][]core.Candle),
	}

	for _, feed := range feeds {
		csvFeed.Feeds[feed.Pair] = feed

		candles, err := readCandlesFromCSV(feed)
		if err != nil {
			return nil, err
		}

		csvFeed.CandlePairTimeFrame[feedTimeframeKey(feed.Pair, feed.Timeframe)] = candles

		if targetTimeframe == "" || targetTimeframe == feed.Timeframe {
			continue
		}

		if err := csvFeed.resample(feed.Pair, feed.Timeframe, targetTimeframe); err != nil {
			return nil, err
		}
	}

	return csvFeed, nil
}

// ReadCandles parses candles of pair from r
func ReadCandles(r io.Reader, pair string, heikinAshi bool) ([]core.Candle, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	lines, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "read csv of %s", pair)
	}

	if len(lines) == 0 {
		return nil, nil
	}

	headerMap, additional, hasHeader, err := parseHeaders(lines[0])
	if err != nil {
		return nil, err
	}
	if hasHeader {
		lines = lines[1:]
	}

	ha := core.NewHeikinAshi()
	candles := make([]core.Candle, 0, len(lines))
	for i, line := range lines {
		candle, err := parseCandleFromLine(line, headerMap, additional, pair)
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d", pair, i+1)
		}

		if len(candles) > 0 && candle.Time.Before(candles[len(candles)-1].Time) {
			return nil, errors.Wrapf(ErrInvalidCSV, "%s line %d: candles out of order", pair, i+1)
		}

		if heikinAshi {
			candle = candle.ToHeikinAshi(ha)
		}

		candles = append(candles, candle)
	}

	return candles, nil
}

func readCandlesFromCSV(feed PairFeed) ([]core.Candle, error) {
	file, err := os.Open(feed.File)
	if err != nil {
		return nil, errors.Wrapf(err, "open candles of %s", feed.Pair)
	}
	defer file.Close()

	return ReadCandles(file, feed.Pair, feed.HeikinAshi)
}

// parseHeaders detects an optional header row. "time" is accepted as an
// alias of "timestamp"; unknown columns are kept as candle metadata.
func parseHeaders(headers []string) (headerMap map[string]int, additional []string, hasHeader bool, err error) {
	if _, err := strconv.ParseFloat(strings.TrimSpace(headers[0]), 64); err == nil {
		return defaultHeaderMap, nil, false, nil
	}

	headerMap = make(map[string]int, len(headers))
	for index, header := range headers {
		header = strings.ToLower(strings.TrimSpace(header))
		if header == "time" {
			header = "timestamp"
		}

		headerMap[header] = index
		if _, known := defaultHeaderMap[header]; !known {
			additional = append(additional, header)
		}
	}

	for column := range defaultHeaderMap {
		if _, ok := headerMap[column]; !ok {
			return nil, nil, false, errors.Wrapf(ErrInvalidCSV, "missing column %q", column)
		}
	}

	return headerMap, additional, true, nil
}

func parseCandleFromLine(line []string, headerMap map[string]int, additional []string, pair string) (core.Candle, error) {
	row := make([]float64, core.RowWidth)
	for column, index := range defaultHeaderMap {
		value, err := parseField(line, headerMap[column])
		if err != nil {
			return core.Candle{}, errors.Wrapf(err, "column %s", column)
		}
		row[index] = value
	}

	if row[core.ColTimestamp] < secondsThreshold {
		row[core.ColTimestamp] *= 1000
	}

	candle, err := core.CandleFromRow(pair, row)
	if err != nil {
		return core.Candle{}, err
	}

	if len(additional) > 0 {
		candle.Metadata = make(map[string]float64, len(additional))
		for _, header := range additional {
			value, err := parseField(line, headerMap[header])
			if err != nil {
				return core.Candle{}, errors.Wrapf(err, "column %s", header)
			}
			candle.Metadata[header] = value
		}
	}

	return candle, nil
}

func parseField(line []string, index int) (float64, error) {
	if index >= len(line) {
		return 0, errors.Wrapf(ErrInvalidCSV, "expected at least %d fields, got %d", index+1, len(line))
	}
	return strconv.ParseFloat(strings.TrimSpace(line[index]), 64)
}

func feedTimeframeKey(pair, timeframe string) string {
	return fmt.Sprintf("%s--%s", pair, timeframe)
}

// Pairs lists the loaded pairs in alphabetical order
func (c CSVFeed) Pairs() []string {
	pairs := set.NewLinkedHashSetString()
	for key := range c.CandlePairTimeFrame {
		pair, _, _ := strings.Cut(key, "--")
		pairs.Add(pair)
	}

	result := make([]string, 0, pairs.Length())
	for pair := range pairs.Iter() {
		result = append(result, pair)
	}
	sort.Strings(result)
	return result
}

func (c CSVFeed) AssetsInfo(pair string) core.AssetInfo {
	asset, quote := SplitAssetQuote(pair)
	return core.AssetInfo{
		BaseAsset:          asset,
		QuoteAsset:         quote,
		MaxPrice:           math.MaxFloat64,
		MaxQuantity:        math.MaxFloat64,
		StepSize:           0.00000001,
		TickSize:           0.00000001,
		QuotePrecision:     8,
		BaseAssetPrecision: 8,
	}
}

// LastQuote is not available for files
func (c CSVFeed) LastQuote(_ context.Context, _ string) (float64, error) {
	return 0, errors.New("invalid operation")
}

// Limit keeps only the candles within duration of each series' last candle
func (c *CSVFeed) Limit(duration time.Duration) *CSVFeed {
	for key, candles := range c.CandlePairTimeFrame {
		if len(candles) == 0 {
			continue
		}

		start := candles[len(candles)-1].Time.Add(-duration)
		c.CandlePairTimeFrame[key] = lo.Filter(candles, func(candle core.Candle, _ int) bool {
			return candle.Time.After(start)
		})
	}
	return c
}

// periodStart returns the opening time of the target period containing t.
// Weekly periods open on Monday 00:00 UTC so they line up with ISO weeks.
func periodStart(t time.Time, targetTimeframe string) (time.Time, time.Duration, error) {
	duration, err := str2duration.ParseDuration(targetTimeframe)
	if err != nil || duration <= 0 {
		return time.Time{}, 0, errors.Wrapf(ErrInvalidTimeframe, "%q", targetTimeframe)
	}

	t = t.UTC()
	switch {
	case duration == 7*24*time.Hour:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset), duration, nil
	case (24*time.Hour)%duration == 0:
		return t.Truncate(duration), duration, nil
	}

	return time.Time{}, 0, errors.Wrapf(ErrInvalidTimeframe, "%q does not divide a day", targetTimeframe)
}

func (c *CSVFeed) resample(pair, sourceTimeframe, targetTimeframe string) error {
	sourceDuration, err := str2duration.ParseDuration(sourceTimeframe)
	if err != nil {
		return errors.Wrapf(ErrInvalidTimeframe, "%q", sourceTimeframe)
	}

	source := c.CandlePairTimeFrame[feedTimeframeKey(pair, sourceTimeframe)]
	target, err := resampleCandles(source, sourceDuration, targetTimeframe)
	if err != nil {
		return err
	}

	c.CandlePairTimeFrame[feedTimeframeKey(pair, targetTimeframe)] = target
	return nil
}

// resampleCandles merges candles sharing a target period. The leading and
// trailing periods are dropped when the source does not cover them fully.
func resampleCandles(source []core.Candle, sourceDuration time.Duration, targetTimeframe string) ([]core.Candle, error) {
	var (
		result  []core.Candle
		current core.Candle
		open    bool
		end     time.Time
	)

	flush := func(last core.Candle) {
		if open && !last.Time.Add(sourceDuration).Before(end) {
			current.Complete = true
			result = append(result, current)
		}
		open = false
	}

	var previous core.Candle
	for _, candle := range source {
		start, duration, err := periodStart(candle.Time, targetTimeframe)
		if err != nil {
			return nil, err
		}

		if open && !start.Equal(current.Time) {
			flush(previous)
		}

		if !open {
			if !candle.Time.Equal(start) {
				// partial leading period
				previous = candle
				continue
			}
			current = candle
			current.Time = start
			current.UpdatedAt = start
			end = start.Add(duration)
			open = true
		} else {
			current.High = math.Max(current.High, candle.High)
			current.Low = math.Min(current.Low, candle.Low)
			current.Close = candle.Close
			current.Volume += candle.Volume
			current.UpdatedAt = candle.Time
		}
		previous = candle
	}
	flush(previous)

	return result, nil
}

// Candles returns every loaded candle of pair at timeframe
func (c CSVFeed) Candles(pair, timeframe string) []core.Candle {
	return c.CandlePairTimeFrame[feedTimeframeKey(pair, timeframe)]
}

// CandlesByPeriod returns the candles opened within [start, end]
func (c CSVFeed) CandlesByPeriod(_ context.Context, pair, timeframe string, start, end time.Time) ([]core.Candle, error) {
	return lo.Filter(c.CandlePairTimeFrame[feedTimeframeKey(pair, timeframe)], func(candle core.Candle, _ int) bool {
		return !candle.Time.Before(start) && !candle.Time.After(end)
	}), nil
}

// CandlesByLimit pops the first limit candles from the feed
func (c *CSVFeed) CandlesByLimit(_ context.Context, pair, timeframe string, limit int) ([]core.Candle, error) {
	key := feedTimeframeKey(pair, timeframe)

	if len(c.CandlePairTimeFrame[key]) < limit {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientData, pair)
	}

	result := c.CandlePairTimeFrame[key][:limit]
	c.CandlePairTimeFrame[key] = c.CandlePairTimeFrame[key][limit:]

	return result, nil
}

// CandlesSubscription streams the stored candles until they end or ctx is done
func (c CSVFeed) CandlesSubscription(ctx context.Context, pair, timeframe string) (chan core.Candle, chan error) {
	ccandle := make(chan core.Candle)
	cerr := make(chan error)
	candles := c.CandlePairTimeFrame[feedTimeframeKey(pair, timeframe)]

	go func() {
		defer close(ccandle)
		defer close(cerr)

		for _, candle := range candles {
			select {
			case <-ctx.Done():
				return
			case ccandle <- candle:
			}
		}
	}()

	return ccandle, cerr
}
