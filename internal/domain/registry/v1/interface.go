package registryv1

import (
	"context"
	"errors"

	orderbookv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/orderbook/v1"
)

// ErrUnknownPair is returned for a pair that is not configured. The supported
// pair set is fixed at startup.
var ErrUnknownPair = errors.New("unknown trading pair")

// Registry is the single entry point external collaborators use to reach a
// pair's book. Submissions are routed to the matching book and every produced
// trade is handed to the settlement emitter exactly once.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=registryv1_mock
type Registry interface {
	// Get returns the book for the pair, or ErrUnknownPair.
	Get(pair string) (orderbookv1.Book, error)
	// Pairs returns the configured pair set.
	Pairs() []string
	// Submit routes an order to its book and hands the resulting trades to
	// the emitter. An emitter failure is returned alongside the fills; book
	// state is never rolled back.
	Submit(ctx context.Context, req *orderbookv1.PlaceOrderRequest) (*orderbookv1.SubmitResult, error)
	// Cancel removes a resting order from the pair's book.
	Cancel(ctx context.Context, pair, orderID string) error
	// Snapshot returns the pair's aggregated book state.
	Snapshot(pair string) (*orderbookv1.BookSnapshot, error)
}
