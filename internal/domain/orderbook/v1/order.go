package orderbookv1

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// OrderType represents the type of order.
type OrderType string

const (
	// OrderTypeMarket represents a market order.
	OrderTypeMarket OrderType = "market"
	// OrderTypeLimit represents a limit order.
	OrderTypeLimit OrderType = "limit"
	// OrderTypeCancel represents a cancel request.
	OrderTypeCancel OrderType = "cancel"
)

// Side represents the side of an order.
type Side string

const (
	// SideBuy represents a buy order.
	SideBuy Side = "buy"
	// SideSell represents a sell order.
	SideSell Side = "sell"
)

// Order represents a single order in the order book. It is immutable after
// validation except for Remaining, which only the matching loop decrements.
type Order struct {
	ID     string    `json:"id"`
	Pair   string    `json:"pair"`
	UserID string    `json:"userID"`
	Side   Side      `json:"side"`
	Type   OrderType `json:"type"`

	// Price is the limit price. It is ignored for market orders, which
	// execute against the best available resting prices.
	Price decimal.Decimal `json:"price"`

	Amount    decimal.Decimal `json:"amount"`
	Remaining decimal.Decimal `json:"remaining"`

	// Sequence is the submission sequence assigned by the book. It is the
	// tie-breaker for time priority.
	Sequence  int64 `json:"sequence"`
	Timestamp int64 `json:"timestamp"`

	Level *Level `json:"-"`
}

// NewOrder creates a new order with the given parameters. An empty id is
// replaced with a generated ULID.
func NewOrder(pair, userID string, side Side, orderType OrderType, price, amount decimal.Decimal, id string) *Order {
	if id == "" {
		id = ulid.Make().String()
	}
	return &Order{
		ID:        id,
		Pair:      pair,
		UserID:    userID,
		Side:      side,
		Type:      orderType,
		Price:     price,
		Amount:    amount,
		Remaining: amount,
		Timestamp: time.Now().UnixNano(),
	}
}

// IsBuy checks if the order is a buy order.
func (o *Order) IsBuy() bool {
	return o.Side == SideBuy
}

// IsSell checks if the order is a sell order.
func (o *Order) IsSell() bool {
	return o.Side == SideSell
}

// IsFilled checks if the order is fully filled.
func (o *Order) IsFilled() bool {
	return !o.Remaining.IsPositive()
}

// PlaceOrderRequest represents a request to place an order, as carried on the
// order stream.
type PlaceOrderRequest struct {
	OrderID string          `json:"orderID"`
	Pair    string          `json:"pair"`
	UserID  string          `json:"userID"`
	Side    Side            `json:"side"`
	Type    OrderType       `json:"type"`
	Amount  decimal.Decimal `json:"amount"`
	Price   decimal.Decimal `json:"price"`
	Offset  int64           `json:"-"` // offset of the request in the stream
}
