// Package registry owns the mapping from pair to order book. The pair set is
// fixed at startup; books live for the process lifetime.
package registry

import (
	"context"
	"fmt"

	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/logger"

	orderbookv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/orderbook/v1"
	registryv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/registry/v1"
	settlementv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/settlement/v1"
	"github.com/gustavoparedes1978/Crypto-trading-project/internal/usecase/orderbook"
)

// Registry routes submissions and queries to per-pair books and hands every
// produced trade to the settlement emitter once. The books map is immutable
// after construction, so cross-pair operations need no shared lock.
type Registry struct {
	books   map[string]orderbookv1.Book
	pairs   []string
	emitter settlementv1.Emitter
	logger  *logger.Logger
}

// NewRegistry creates one book per configured pair.
func NewRegistry(pairs []string, emitter settlementv1.Emitter, log *logger.Logger) *Registry {
	books := make(map[string]orderbookv1.Book, len(pairs))
	for _, pair := range pairs {
		books[pair] = orderbook.NewBook(pair)
	}

	return &Registry{
		books:   books,
		pairs:   pairs,
		emitter: emitter,
		logger:  log,
	}
}

// Get returns the book for the pair, or ErrUnknownPair.
func (r *Registry) Get(pair string) (orderbookv1.Book, error) {
	book, ok := r.books[pair]
	if !ok {
		return nil, fmt.Errorf("%w: %s", registryv1.ErrUnknownPair, pair)
	}
	return book, nil
}

// Pairs returns the configured pair set.
func (r *Registry) Pairs() []string {
	return r.pairs
}

// Submit routes the request to its book, runs matching and emits each fill.
// An emitter failure is surfaced alongside the already-produced fills: the
// book mutation is final and never rolled back.
func (r *Registry) Submit(ctx context.Context, req *orderbookv1.PlaceOrderRequest) (*orderbookv1.SubmitResult, error) {
	book, err := r.Get(req.Pair)
	if err != nil {
		return nil, err
	}

	order := orderbookv1.NewOrder(req.Pair, req.UserID, req.Side, req.Type, req.Price, req.Amount, req.OrderID)

	result, err := book.Submit(order)
	if err != nil {
		return result, err
	}

	var emitErr error
	for _, trade := range result.Fills {
		if err := r.emitter.Emit(ctx, trade); err != nil {
			r.logger.WarnContext(ctx, "settlement hand-off failed, trade remains final",
				logger.Field{Key: "tradeID", Value: trade.ID},
				logger.Field{Key: "pair", Value: trade.Pair},
				logger.Field{Key: "error", Value: err.Error()},
			)
			if emitErr == nil {
				emitErr = fmt.Errorf("%w: trade %s", settlementv1.ErrEmitterUnavailable, trade.ID)
			}
		}
	}

	return result, emitErr
}

// Cancel removes a resting order from the pair's book.
func (r *Registry) Cancel(ctx context.Context, pair, orderID string) error {
	book, err := r.Get(pair)
	if err != nil {
		return err
	}
	return book.Cancel(orderID)
}

// Snapshot returns the pair's aggregated book state.
func (r *Registry) Snapshot(pair string) (*orderbookv1.BookSnapshot, error) {
	book, err := r.Get(pair)
	if err != nil {
		return nil, err
	}
	return book.Snapshot(), nil
}
