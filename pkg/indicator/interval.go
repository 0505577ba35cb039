package indicator

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidInterval = errors.New("invalid reset interval")

// Interval is the calendar period after which VWAP statistics restart
type Interval string

const (
	IntervalDay   Interval = "Day"
	IntervalWeek  Interval = "Week"
	IntervalMonth Interval = "Month"
)

// ParseInterval accepts Day, Week and Month (any case) or the 1d, 1w and 1M shorthands
func ParseInterval(value string) (Interval, error) {
	switch value {
	case "1d":
		return IntervalDay, nil
	case "1w":
		return IntervalWeek, nil
	case "1M":
		return IntervalMonth, nil
	}

	switch strings.ToLower(value) {
	case "day":
		return IntervalDay, nil
	case "week":
		return IntervalWeek, nil
	case "month":
		return IntervalMonth, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidInterval, value)
}

// Validate returns ErrInvalidInterval for values outside Day, Week and Month
func (i Interval) Validate() error {
	switch i {
	case IntervalDay, IntervalWeek, IntervalMonth:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidInterval, string(i))
}

// WindowKey returns the accumulation window identifier of t. Keys are
// derived from the UTC calendar and never decrease while t increases:
//   - Day: yyyymmdd
//   - Week: ISO year * 100 + ISO week
//   - Month: yyyymm
func WindowKey(t time.Time, interval Interval) (int64, error) {
	t = t.UTC()

	switch interval {
	case IntervalDay:
		year, month, day := t.Date()
		return int64(year)*10000 + int64(month)*100 + int64(day), nil
	case IntervalWeek:
		year, week := t.ISOWeek()
		return int64(year)*100 + int64(week), nil
	case IntervalMonth:
		year, month, _ := t.Date()
		return int64(year)*100 + int64(month), nil
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, string(interval))
}
