package orderbookv1

import (
	"github.com/shopspring/decimal"

	snapshotv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/snapshot/v1"
)

// SubmitResult carries the outcome of a submission: the fills in the order
// they were matched, and the resting remainder if the order went on the book.
type SubmitResult struct {
	Fills   []*Trade
	Resting *Order
}

// PriceLevel is one aggregated level of a book snapshot.
type PriceLevel struct {
	Price       decimal.Decimal `json:"price"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// BookSnapshot is the aggregated, externally visible book state at a single
// instant. Bids and asks are ordered best price first.
type BookSnapshot struct {
	Pair string       `json:"pair"`
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// Book defines the interface for a single pair's order book.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=orderbookv1_mock
type Book interface {
	// Pair returns the pair this book owns.
	Pair() string
	// Submit validates an order, runs matching against the opposing ledger
	// and returns the fills plus the resting remainder, if any. A rejected
	// order never touches book state.
	Submit(order *Order) (*SubmitResult, error)
	// Cancel removes a resting order from its ledger by id.
	Cancel(orderID string) error
	// Snapshot aggregates the remaining amount per price level, best price
	// first on each side.
	Snapshot() *BookSnapshot
	// BidTotalAmount returns the total resting amount on the bid side.
	BidTotalAmount() decimal.Decimal
	// AskTotalAmount returns the total resting amount on the ask side.
	AskTotalAmount() decimal.Decimal
	// CreateSnapshot captures the full book state for the snapshot store.
	CreateSnapshot() *snapshotv1.Snapshot
	// RestoreSnapshot rebuilds the book from a stored snapshot.
	RestoreSnapshot(snapshot *snapshotv1.Snapshot) error
}
