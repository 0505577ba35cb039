package exchange

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/raykavin/vwapbands/pkg/core"
	"github.com/raykavin/vwapbands/pkg/logger"
)

var (
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoQuote           = errors.New("no candle received for pair")
	ErrOrderNotFound     = errors.New("order not found")
)

// DryRunBroker records the orders a strategy places and fills them against
// replayed candles. Positions are signed so strategies may go short.
type DryRunBroker struct {
	mu  sync.Mutex
	log logger.Logger

	baseCoin   string
	fee        float64
	balances   map[string]float64
	lastCandle map[string]core.Candle
	orders     []core.Order
	nextID     int64

	initialEquity float64
	started       bool
	equity        []float64
	fills         int
}

var (
	_ core.Broker           = (*DryRunBroker)(nil)
	_ core.CandleSubscriber = (*DryRunBroker)(nil)
)

type DryRunOption func(*DryRunBroker)

// WithBalance sets the starting amount of asset
func WithBalance(asset string, amount float64) DryRunOption {
	return func(b *DryRunBroker) {
		b.balances[asset] = amount
	}
}

// WithFee charges rate of every fill value in the quote coin
func WithFee(rate float64) DryRunOption {
	return func(b *DryRunBroker) {
		b.fee = rate
	}
}

// NewDryRunBroker creates a broker valuing positions in baseCoin
func NewDryRunBroker(baseCoin string, log logger.Logger, options ...DryRunOption) *DryRunBroker {
	broker := &DryRunBroker{
		log:        log,
		baseCoin:   baseCoin,
		balances:   make(map[string]float64),
		lastCandle: make(map[string]core.Candle),
		nextID:     1,
	}

	for _, option := range options {
		option(broker)
	}

	return broker
}

// OnCandle fills pending orders touched by candle and records equity.
// Orders created while candle is being processed wait for the next one.
func (b *DryRunBroker) OnCandle(candle core.Candle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastCandle[candle.Pair] = candle
	if !b.started {
		b.started = true
		b.initialEquity = b.equityValue()
	}

	for i := range b.orders {
		order := &b.orders[i]
		if order.Pair != candle.Pair || !order.IsOpen() || !order.CreatedAt.Before(candle.Time) {
			continue
		}

		price, ok := triggerPrice(*order, candle)
		if !ok {
			continue
		}

		if err := b.fill(order, price, candle.Time); err != nil {
			order.Status = core.OrderStatusTypeRejected
			order.UpdatedAt = candle.Time
			b.log.WithError(err).WithField("order", order.ID).Warn("dry run order rejected")
		}
	}

	if candle.Complete {
		b.equity = append(b.equity, b.equityValue())
	}
}

// triggerPrice reports whether candle reaches the order and the fill price.
// A gap through the trigger fills at the candle open.
func triggerPrice(order core.Order, candle core.Candle) (float64, bool) {
	switch order.Type {
	case core.OrderTypeLimit:
		if order.Side == core.SideTypeBuy && candle.Low <= order.Price {
			return math.Min(order.Price, candle.Open), true
		}
		if order.Side == core.SideTypeSell && candle.High >= order.Price {
			return math.Max(order.Price, candle.Open), true
		}
	case core.OrderTypeStopLoss:
		stop := order.Price
		if order.Stop != nil {
			stop = *order.Stop
		}
		if order.Side == core.SideTypeBuy && candle.High >= stop {
			return math.Max(stop, candle.Open), true
		}
		if order.Side == core.SideTypeSell && candle.Low <= stop {
			return math.Min(stop, candle.Open), true
		}
	}
	return 0, false
}

func (b *DryRunBroker) fill(order *core.Order, price float64, at time.Time) error {
	asset, quote := SplitAssetQuote(order.Pair)
	filled := *order
	filled.Price = price
	value := filled.Value()
	fee := value * b.fee

	if order.Side == core.SideTypeBuy {
		if value+fee > b.balances[quote] {
			return fmt.Errorf("%w: %s needs %.8f, has %.8f", ErrInsufficientFunds, quote, value+fee, b.balances[quote])
		}
		b.balances[asset] += order.Quantity
		b.balances[quote] -= value + fee
	} else {
		b.balances[asset] -= order.Quantity
		b.balances[quote] += value - fee
	}

	order.Price = price
	order.Status = core.OrderStatusTypeFilled
	order.UpdatedAt = at
	b.fills++

	b.log.WithFields(map[string]any{
		"pair":     order.Pair,
		"side":     order.Side,
		"type":     order.Type,
		"price":    price,
		"quantity": order.Quantity,
	}).Debug("dry run fill")

	return nil
}

// equityValue values every balance in baseCoin with the last close of its pair
func (b *DryRunBroker) equityValue() float64 {
	total := b.balances[b.baseCoin]
	for pair, candle := range b.lastCandle {
		asset, quote := SplitAssetQuote(pair)
		if quote == b.baseCoin {
			total += b.balances[asset] * candle.Close
		}
	}
	return total
}

func (b *DryRunBroker) Account(_ context.Context) (core.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	balances := make([]core.Balance, 0, len(b.balances))
	for asset, amount := range b.balances {
		balances = append(balances, core.Balance{Asset: asset, Free: amount})
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].Asset < balances[j].Asset })

	return core.NewAccount(balances)
}

func (b *DryRunBroker) Position(_ context.Context, pair string) (asset, quote float64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	assetTick, quoteTick := SplitAssetQuote(pair)
	return b.balances[assetTick], b.balances[quoteTick], nil
}

func (b *DryRunBroker) Order(_ context.Context, pair string, id int64) (core.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, order := range b.orders {
		if order.ID == id && order.Pair == pair {
			return order, nil
		}
	}
	return core.Order{}, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
}

func (b *DryRunBroker) newOrder(side core.SideType, orderType core.OrderType, pair string, size, price float64) (core.Order, error) {
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return core.Order{}, fmt.Errorf("%w: %v", ErrInvalidQuantity, size)
	}

	candle, ok := b.lastCandle[pair]
	if !ok {
		return core.Order{}, fmt.Errorf("%w: %s", ErrNoQuote, pair)
	}

	order := core.Order{
		ID:        b.nextID,
		Pair:      pair,
		Side:      side,
		Type:      orderType,
		Status:    core.OrderStatusTypeNew,
		Price:     price,
		Quantity:  size,
		CreatedAt: candle.Time,
		UpdatedAt: candle.Time,
	}
	b.nextID++

	return order, nil
}

// CreateOrderMarket fills immediately at the last close
func (b *DryRunBroker) CreateOrderMarket(_ context.Context, side core.SideType, pair string, size float64) (core.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, err := b.newOrder(side, core.OrderTypeMarket, pair, size, b.lastCandle[pair].Close)
	if err != nil {
		return core.Order{}, err
	}

	if err := b.fill(&order, order.Price, order.CreatedAt); err != nil {
		return core.Order{}, err
	}

	b.orders = append(b.orders, order)
	return order, nil
}

func (b *DryRunBroker) CreateOrderLimit(_ context.Context, side core.SideType, pair string, size, limit float64) (core.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, err := b.newOrder(side, core.OrderTypeLimit, pair, size, limit)
	if err != nil {
		return core.Order{}, err
	}

	b.orders = append(b.orders, order)
	return order, nil
}

func (b *DryRunBroker) CreateOrderStop(_ context.Context, side core.SideType, pair string, size, stop float64) (core.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, err := b.newOrder(side, core.OrderTypeStopLoss, pair, size, stop)
	if err != nil {
		return core.Order{}, err
	}
	order.Stop = &stop

	b.orders = append(b.orders, order)
	return order, nil
}

func (b *DryRunBroker) Cancel(_ context.Context, order core.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.orders {
		if b.orders[i].ID != order.ID {
			continue
		}
		if !b.orders[i].IsOpen() {
			return fmt.Errorf("%w: order %d is %s", ErrOrderNotFound, order.ID, b.orders[i].Status)
		}
		b.orders[i].Status = core.OrderStatusTypeCanceled
		b.orders[i].UpdatedAt = b.lastCandle[order.Pair].Time
		return nil
	}
	return fmt.Errorf("%w: %d", ErrOrderNotFound, order.ID)
}

// Orders returns a copy of every order placed so far
func (b *DryRunBroker) Orders() []core.Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]core.Order(nil), b.orders...)
}

// DryRunSummary is the outcome of a replay
type DryRunSummary struct {
	InitialEquity float64
	Equity        float64
	Profit        float64
	Fills         int
	Orders        int
	MaxDrawdown   float64 // fraction of the running equity peak
}

func (b *DryRunBroker) Summary() DryRunSummary {
	b.mu.Lock()
	defer b.mu.Unlock()

	equity := b.equityValue()

	var peak, drawdown float64
	for _, value := range b.equity {
		peak = math.Max(peak, value)
		if peak > 0 {
			drawdown = math.Max(drawdown, (peak-value)/peak)
		}
	}

	return DryRunSummary{
		InitialEquity: b.initialEquity,
		Equity:        equity,
		Profit:        equity - b.initialEquity,
		Fills:         b.fills,
		Orders:        len(b.orders),
		MaxDrawdown:   drawdown,
	}
}

// EquityValues returns the equity recorded at every complete candle
func (b *DryRunBroker) EquityValues() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]float64(nil), b.equity...)
}
