package snapshotv1

import "github.com/shopspring/decimal"

// Snapshot represents the full state of one pair's order book at a specific
// point in time, plus the order stream offset it was taken at.
type Snapshot struct {
	Pair        string      `json:"pair"`
	OrderOffset int64       `json:"orderOffset"`
	Orders      []BookOrder `json:"orders"`
}

// BookOrder represents a resting order in a snapshot.
type BookOrder struct {
	OrderID   string          `json:"orderID"`
	UserID    string          `json:"userID"`
	Side      string          `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Remaining decimal.Decimal `json:"remaining"`
	Sequence  int64           `json:"sequence"`
	Timestamp int64           `json:"timestamp"`
}
