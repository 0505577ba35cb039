package core

import (
	"time"
)

// SideType represents the direction of an order (BUY or SELL)
type SideType string

// OrderType represents the type of order (LIMIT, MARKET, etc.)
type OrderType string

// OrderStatusType represents the status of an order (NEW, FILLED, etc.)
type OrderStatusType string

const (
	SideTypeBuy  SideType = "BUY"
	SideTypeSell SideType = "SELL"
)

const (
	OrderTypeLimit    OrderType = "LIMIT"
	OrderTypeMarket   OrderType = "MARKET"
	OrderTypeStopLoss OrderType = "STOP_LOSS"
)

const (
	OrderStatusTypeNew      OrderStatusType = "NEW"
	OrderStatusTypeFilled   OrderStatusType = "FILLED"
	OrderStatusTypeCanceled OrderStatusType = "CANCELED"
	OrderStatusTypeRejected OrderStatusType = "REJECTED"
)

// Opposite returns the side that closes a position opened with s
func (s SideType) Opposite() SideType {
	if s == SideTypeBuy {
		return SideTypeSell
	}
	return SideTypeBuy
}

// Order represents a trading order with its properties and status
type Order struct {
	ID       int64           `json:"id"`
	Pair     string          `json:"pair"`
	Side     SideType        `json:"side"`
	Type     OrderType       `json:"type"`
	Status   OrderStatusType `json:"status"`
	Price    float64         `json:"price"`
	Quantity float64         `json:"quantity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Trigger price for stop orders
	Stop *float64 `json:"stop,omitempty"`
}

// Value returns price * quantity
func (o Order) Value() float64 {
	return o.Price * o.Quantity
}

// IsOpen reports whether the order still waits for a fill
func (o Order) IsOpen() bool {
	return o.Status == OrderStatusTypeNew
}
