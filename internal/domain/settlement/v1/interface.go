package settlementv1

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"

	orderbookv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/orderbook/v1"
)

// ErrEmitterUnavailable is returned when the emitter cannot accept a trade.
// The trade itself is already final; redelivery is the caller's concern.
var ErrEmitterUnavailable = errors.New("settlement emitter unavailable")

// Emitter is the engine-side sink for completed trades. Emit must be
// non-blocking from the matching path's viewpoint.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=settlementv1_mock
type Emitter interface {
	Emit(ctx context.Context, trade *orderbookv1.Trade) error
}

// Publisher delivers settlement requests to the settlement queue with
// at-least-once semantics.
type Publisher interface {
	Publish(ctx context.Context, req *Request) error
	Close() error
}

// Executor performs the value transfer for one settlement request and returns
// the resulting transaction hash.
type Executor interface {
	Settle(ctx context.Context, req *Request) (string, error)
}

// Consumer reads raw settlement messages from the settlement queue. Fetching
// and committing are separate so the worker controls redelivery.
type Consumer interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
