package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/redis"
)

// MustLoad loads the configuration from environment variables and .env file.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load() // Load environment variables from .env file

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and .env file.
func Load[T any](cfg T) error {
	_ = godotenv.Load() // a missing .env file is not an error

	return env.Parse(cfg)
}

// Config holds the configuration for the matching engine.
type Config struct {
	// Pairs is the fixed set of supported trading pairs, e.g. "BTC-USD,ETH-USD".
	// Pairs are not discovered dynamically.
	Pairs []string `env:"PAIRS,required"`

	Kafka      KafkaConfig      `envPrefix:"KAFKA_"`
	Settlement SettlementConfig `envPrefix:"SETTLEMENT_"`
	Redis      redis.Config     `envPrefix:"REDIS_"`
}

// KafkaConfig holds the configuration for the inbound order stream.
type KafkaConfig struct {
	Topic   string   `env:"TOPIC,required"`
	GroupID string   `env:"GROUP_ID" envDefault:"matching_engine"`
	Brokers []string `env:"BROKER,required"`
}

// SettlementConfig holds the configuration for the outbound settlement stream
// and the settlement worker consuming it.
type SettlementConfig struct {
	Topic   string   `env:"TOPIC" envDefault:"trade_settlement_queue"`
	GroupID string   `env:"GROUP_ID" envDefault:"settlement_worker"`
	Brokers []string `env:"BROKER,required"`

	// QueueSize bounds the in-process emitter queue between matching and the
	// Kafka writer. A full queue surfaces as an emitter failure, never as a
	// stalled match.
	QueueSize int `env:"QUEUE_SIZE" envDefault:"1024"`

	// MaxAttempts and RetryBackoff bound the worker's retries for transient
	// settlement failures.
	MaxAttempts  int           `env:"MAX_ATTEMPTS" envDefault:"5"`
	RetryBackoff time.Duration `env:"RETRY_BACKOFF" envDefault:"500ms"`
}
