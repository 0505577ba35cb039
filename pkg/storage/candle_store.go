package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/raykavin/vwapbands/pkg/core"
)

var ErrNotFound = errors.New("candle not found")

const keyPrefix = "candle:"

// candleRecord is the stored JSON form, time in milliseconds
type candleRecord struct {
	Pair     string             `json:"pair"`
	Time     int64              `json:"time"`
	Open     float64            `json:"open"`
	High     float64            `json:"high"`
	Low      float64            `json:"low"`
	Close    float64            `json:"close"`
	Volume   float64            `json:"volume"`
	Metadata map[string]float64 `json:"metadata,omitempty"`
}

// CandleStore persists candles in BuntDB. Keys embed the zero padded
// timestamp so key order is time order within a pair.
type CandleStore struct {
	db *buntdb.DB
}

// FromMemory creates an in-memory store
func FromMemory() (*CandleStore, error) {
	return NewCandleStore(":memory:")
}

// FromFile creates a store persisted to file
func FromFile(file string) (*CandleStore, error) {
	return NewCandleStore(file)
}

func NewCandleStore(source string) (*CandleStore, error) {
	db, err := buntdb.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if err := db.CreateIndex("pair_index", keyPrefix+"*", buntdb.IndexJSON("pair")); err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &CandleStore{db: db}, nil
}

func candleKey(pair string, ms int64) string {
	return fmt.Sprintf("%s%s:%016d", keyPrefix, pair, ms)
}

// SaveCandles upserts candles in a single transaction
func (s *CandleStore) SaveCandles(candles ...core.Candle) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		for _, candle := range candles {
			content, err := json.Marshal(candleRecord{
				Pair:     candle.Pair,
				Time:     candle.UnixMilli(),
				Open:     candle.Open,
				High:     candle.High,
				Low:      candle.Low,
				Close:    candle.Close,
				Volume:   candle.Volume,
				Metadata: candle.Metadata,
			})
			if err != nil {
				return fmt.Errorf("failed to marshal candle: %w", err)
			}

			if _, _, err := tx.Set(candleKey(candle.Pair, candle.UnixMilli()), string(content), nil); err != nil {
				return fmt.Errorf("failed to store candle: %w", err)
			}
		}
		return nil
	})
}

// Candles returns the candles of pair opened within [start, end], oldest first
func (s *CandleStore) Candles(pair string, start, end time.Time) ([]core.Candle, error) {
	candles := make([]core.Candle, 0)

	err := s.db.View(func(tx *buntdb.Tx) error {
		var decodeErr error
		err := tx.AscendRange("", candleKey(pair, start.UnixMilli()), candleKey(pair, end.UnixMilli()+1),
			func(_, value string) bool {
				candle, err := decodeCandle(value)
				if err != nil {
					decodeErr = err
					return false
				}
				candles = append(candles, candle)
				return true
			})
		if err != nil {
			return fmt.Errorf("failed to iterate over candles: %w", err)
		}
		return decodeErr
	})
	if err != nil {
		return nil, err
	}

	return candles, nil
}

// Last returns the most recent candle of pair
func (s *CandleStore) Last(pair string) (core.Candle, error) {
	var (
		last  core.Candle
		found bool
	)

	err := s.db.View(func(tx *buntdb.Tx) error {
		var decodeErr error
		prefix := keyPrefix + pair + ":"
		err := tx.DescendLessOrEqual("", prefix+"~", func(key, value string) bool {
			if !strings.HasPrefix(key, prefix) {
				return false
			}
			last, decodeErr = decodeCandle(value)
			found = decodeErr == nil
			return false
		})
		if err != nil {
			return err
		}
		return decodeErr
	})
	if err != nil {
		return core.Candle{}, err
	}

	if !found {
		return core.Candle{}, fmt.Errorf("%w: %s", ErrNotFound, pair)
	}
	return last, nil
}

// Pairs lists the stored pairs
func (s *CandleStore) Pairs() ([]string, error) {
	var pairs []string

	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("pair_index", func(_, value string) bool {
			var record candleRecord
			if err := json.Unmarshal([]byte(value), &record); err == nil {
				if len(pairs) == 0 || pairs[len(pairs)-1] != record.Pair {
					pairs = append(pairs, record.Pair)
				}
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}

	return pairs, nil
}

func decodeCandle(value string) (core.Candle, error) {
	var record candleRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return core.Candle{}, fmt.Errorf("failed to unmarshal candle: %w", err)
	}

	candle, err := core.CandleFromRow(record.Pair, []float64{
		float64(record.Time), record.Open, record.High, record.Low, record.Close, record.Volume,
	})
	if err != nil {
		return core.Candle{}, err
	}
	candle.Metadata = record.Metadata

	return candle, nil
}

// Close closes the database
func (s *CandleStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
