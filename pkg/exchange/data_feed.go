package exchange

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/StudioSol/set"

	"github.com/raykavin/vwapbands/pkg/core"
	"github.com/raykavin/vwapbands/pkg/logger"
)

// DataFeedConsumer receives candles of a subscribed pair and timeframe
type DataFeedConsumer func(core.Candle)

// DataFeed is a connected candle stream
type DataFeed struct {
	Data chan core.Candle
	Err  chan error
}

type subscription struct {
	onCandleClose bool
	consumer      DataFeedConsumer
}

// DataFeedSubscription fans candles of a feeder out to subscribers per pair and timeframe
type DataFeedSubscription struct {
	feeder        core.Feeder
	log           logger.Logger
	mu            sync.RWMutex
	feeds         *set.LinkedHashSetString
	dataFeeds     map[string]*DataFeed
	subscriptions map[string][]subscription
}

func NewDataFeed(feeder core.Feeder, log logger.Logger) *DataFeedSubscription {
	return &DataFeedSubscription{
		feeder:        feeder,
		log:           log,
		feeds:         set.NewLinkedHashSetString(),
		dataFeeds:     make(map[string]*DataFeed),
		subscriptions: make(map[string][]subscription),
	}
}

func (d *DataFeedSubscription) feedKey(pair, timeframe string) string {
	return fmt.Sprintf("%s--%s", pair, timeframe)
}

func (d *DataFeedSubscription) pairTimeframeFromKey(key string) (pair, timeframe string) {
	pair, timeframe, _ = strings.Cut(key, "--")
	return pair, timeframe
}

// Subscribe registers consumer for pair candles. With onCandleClose only
// complete candles are delivered.
func (d *DataFeedSubscription) Subscribe(pair, timeframe string, consumer DataFeedConsumer, onCandleClose bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := d.feedKey(pair, timeframe)
	d.feeds.Add(key)
	d.subscriptions[key] = append(d.subscriptions[key], subscription{
		onCandleClose: onCandleClose,
		consumer:      consumer,
	})
}

// Preload delivers historical complete candles to the current subscribers
func (d *DataFeedSubscription) Preload(pair, timeframe string, candles []core.Candle) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	d.log.WithFields(map[string]any{"pair": pair, "timeframe": timeframe}).
		Debugf("preloading %d candles", len(candles))

	for _, candle := range candles {
		if !candle.Complete {
			continue
		}
		for _, sub := range d.subscriptions[d.feedKey(pair, timeframe)] {
			sub.consumer(candle)
		}
	}
}

func (d *DataFeedSubscription) connect(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key := range d.feeds.Iter() {
		if _, ok := d.dataFeeds[key]; ok {
			continue
		}
		pair, timeframe := d.pairTimeframeFromKey(key)
		ccandle, cerr := d.feeder.CandlesSubscription(ctx, pair, timeframe)
		d.dataFeeds[key] = &DataFeed{Data: ccandle, Err: cerr}
	}
}

// Start connects every subscribed feed. With wait it blocks until all
// feeds are drained or ctx is done.
func (d *DataFeedSubscription) Start(ctx context.Context, wait bool) {
	d.connect(ctx)

	var wg sync.WaitGroup
	d.mu.RLock()
	for key, feed := range d.dataFeeds {
		wg.Add(1)
		go d.processFeed(ctx, key, feed, &wg)
	}
	d.mu.RUnlock()

	d.log.Debug("data feed connected")

	if wait {
		wg.Wait()
	}
}

func (d *DataFeedSubscription) processFeed(ctx context.Context, key string, feed *DataFeed, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case candle, ok := <-feed.Data:
			if !ok {
				return
			}

			d.mu.RLock()
			subs := d.subscriptions[key]
			d.mu.RUnlock()

			for _, sub := range subs {
				if sub.onCandleClose && !candle.Complete {
					continue
				}
				sub.consumer(candle)
			}

		case err, ok := <-feed.Err:
			if !ok {
				// data may still be pending
				feed.Err = nil
				continue
			}
			if err != nil {
				d.log.WithError(err).WithField("feed", key).Error("data feed error")
			}
		}
	}
}
