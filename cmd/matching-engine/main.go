package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/gustavoparedes1978/Crypto-trading-project/internal/app/engine"
	orderreader "github.com/gustavoparedes1978/Crypto-trading-project/internal/usecase/order-reader"
	"github.com/gustavoparedes1978/Crypto-trading-project/internal/usecase/registry"
	"github.com/gustavoparedes1978/Crypto-trading-project/internal/usecase/settlement"
	"github.com/gustavoparedes1978/Crypto-trading-project/internal/usecase/snapshot"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/config"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/logger"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	cfg = &config.Config{}
	if err := config.Load(cfg); err != nil {
		panic(err)
	}

	l, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	log = l
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	rclient := redis.NewClient(log, &cfg.Redis)
	if err := rclient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "connect_redis",
		})
		return
	}

	// Initialize components
	publisher := settlement.NewPublisher(cfg.Settlement, log)
	emitter := settlement.NewQueuedEmitter(publisher, cfg.Settlement.QueueSize, cfg.Settlement.RetryBackoff, log)
	reg := registry.NewRegistry(cfg.Pairs, emitter, log)
	oReader := orderreader.NewReader(cfg.Kafka, log)
	snapshotStore := snapshot.NewStore(rclient, log)
	engine := app.NewEngine(
		reg,
		oReader,
		snapshotStore,
		log,
		cfg,
	)

	emitter.Start(ctx)
	if err := engine.Start(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "start_engine",
		})
		return
	}

	log.Info("Matching engine started successfully", logger.Field{
		Key:   "pairs",
		Value: cfg.Pairs,
	})

	sig := <-sigChan
	log.Info("Received shutdown signal", logger.Field{
		Key:   "signal",
		Value: sig.String(),
	})

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := engine.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "stop_engine",
		})
	}

	// Drain the emitter after the engine so no trade is left unqueued.
	if err := emitter.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "stop_emitter",
		})
	}

	if err := publisher.Close(); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "close_publisher",
		})
	}

	if err := rclient.Disconnect(shutdownCtx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "disconnect_redis",
		})
	}

	log.Info("Matching engine shutdown complete")
}
