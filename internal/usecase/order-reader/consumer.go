package orderreader

import (
	"context"
	"encoding/json"

	orderbookv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/orderbook/v1"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/config"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Reader represents a Kafka reader for consuming messages from the order topic.
type Reader struct {
	kafkaReader *kafka.Reader
	logger      logger.Interface
}

// NewReader creates a new Kafka reader for consuming messages from the order topic.
// It returns an implementation of the OrderReader interface.
func NewReader(cfg config.KafkaConfig, log logger.Interface) Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		Partition:   0,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	return Reader{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

// logError is a helper method to log errors consistently
func (r Reader) logError(err error, operation string) {
	r.logger.Error(err,
		logger.Field{Key: "error", Value: err.Error()},
		logger.Field{Key: "operation", Value: operation},
	)
}

// SetOffset sets the offset for the Kafka reader.
func (r Reader) SetOffset(offset int64) error {
	if err := r.kafkaReader.SetOffset(offset); err != nil {
		r.logError(err, "SetOffset")
		return err
	}
	return nil
}

// ReadMessage reads a message from the order topic and parses it as a
// PlaceOrderRequest.
func (r Reader) ReadMessage(ctx context.Context) (kafka.Message, *orderbookv1.PlaceOrderRequest, error) {
	msg, err := r.kafkaReader.ReadMessage(ctx)
	if err != nil {
		r.logError(err, "ReadMessage")
		return kafka.Message{Offset: 0}, nil, err
	}

	var req orderbookv1.PlaceOrderRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		r.logError(err, "UnmarshalOrder")
		return kafka.Message{Offset: 0}, nil, err
	}

	r.logger.Info("ReadMessage",
		logger.Field{Key: "pair", Value: req.Pair},
		logger.Field{Key: "userID", Value: req.UserID},
		logger.Field{Key: "side", Value: req.Side},
		logger.Field{Key: "type", Value: req.Type},
		logger.Field{Key: "amount", Value: req.Amount},
		logger.Field{Key: "price", Value: req.Price},
	)

	req.Offset = msg.Offset

	return msg, &req, nil
}

// Close properly closes the Kafka reader.
func (r Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logError(err, "Close")
		return err
	}
	return nil
}

// CommitMessages commits the messages to Kafka after processing. The engine
// tracks its position through snapshots, so explicit commits are a no-op.
func (r Reader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	return nil
}
