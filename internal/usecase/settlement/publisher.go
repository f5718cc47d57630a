// Package settlement carries trades from the matching core to the settlement
// queue and back out of it.
package settlement

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/config"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/errors"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/logger"

	settlementv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/settlement/v1"
)

// Publisher publishes settlement requests to the settlement topic.
type Publisher struct {
	kafkaWriter *kafka.Writer
	logger      *logger.Logger
}

// NewPublisher creates a new Kafka publisher for settlement requests.
func NewPublisher(cfg config.SettlementConfig, log *logger.Logger) *Publisher {
	kafkaWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
	})

	return &Publisher{
		kafkaWriter: kafkaWriter,
		logger:      log,
	}
}

// Publish delivers one settlement request. The trade id is the message key,
// so the consumer can deduplicate redeliveries.
func (p *Publisher) Publish(ctx context.Context, req *settlementv1.Request) error {
	msg := kafka.Message{
		Key:   []byte(req.TradeID),
		Value: settlementv1.ToBytes(req),
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(err,
			logger.Field{Key: "tradeID", Value: req.TradeID},
			logger.Field{Key: "pair", Value: req.Pair},
		)
		return errors.NewTracer("failed to publish settlement request").Wrap(err)
	}
	return nil
}

// Close closes the underlying writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}
