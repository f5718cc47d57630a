package orderreaderv1

import (
	"context"

	"github.com/segmentio/kafka-go"

	orderbookv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/orderbook/v1"
)

// OrderReader defines the interface for reading order requests from the order
// stream.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=orderreaderv1_mock
type OrderReader interface {
	// ReadMessage reads a message and returns the parsed order request.
	ReadMessage(ctx context.Context) (kafka.Message, *orderbookv1.PlaceOrderRequest, error)
	// SetOffset sets the offset for the reader.
	SetOffset(offset int64) error
	// CommitMessages commits the messages after processing.
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	// Close closes the reader.
	Close() error
}
