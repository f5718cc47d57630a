package settlement

import (
	"context"

	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/config"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Consumer is a Kafka group consumer for the settlement queue. Messages are
// committed only after the worker decides their fate, so transient failures
// are redelivered.
type Consumer struct {
	kafkaReader *kafka.Reader
	logger      logger.Interface
}

// NewConsumer creates a group consumer reading from the settlement topic.
func NewConsumer(cfg config.SettlementConfig, log logger.Interface) Consumer {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	return Consumer{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

// Fetch reads the next message without committing it.
func (c Consumer) Fetch(ctx context.Context) (kafka.Message, error) {
	msg, err := c.kafkaReader.FetchMessage(ctx)
	if err != nil {
		c.logger.Error(err,
			logger.Field{Key: "error", Value: err.Error()},
			logger.Field{Key: "operation", Value: "Fetch"},
		)
		return kafka.Message{}, err
	}
	return msg, nil
}

// Commit marks the given messages as processed for the consumer group.
func (c Consumer) Commit(ctx context.Context, msgs ...kafka.Message) error {
	if err := c.kafkaReader.CommitMessages(ctx, msgs...); err != nil {
		c.logger.Error(err,
			logger.Field{Key: "error", Value: err.Error()},
			logger.Field{Key: "operation", Value: "Commit"},
		)
		return err
	}
	return nil
}

// Close properly closes the Kafka reader.
func (c Consumer) Close() error {
	return c.kafkaReader.Close()
}
