package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/gustavoparedes1978/Crypto-trading-project/internal/app/settlement"
	"github.com/gustavoparedes1978/Crypto-trading-project/internal/usecase/settlement"
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

	consumer := settlement.NewConsumer(cfg.Settlement, log)
	executor := settlement.NewSimulatedExecutor(log)
	worker := app.NewWorker(consumer, executor, rclient, cfg.Settlement, log)

	if err := worker.Start(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "start_worker",
		})
		return
	}

	log.Info("Settlement worker started successfully", logger.Field{
		Key:   "topic",
		Value: cfg.Settlement.Topic,
	})

	sig := <-sigChan
	log.Info("Received shutdown signal", logger.Field{
		Key:   "signal",
		Value: sig.String(),
	})

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := worker.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "stop_worker",
		})
	}

	if err := rclient.Disconnect(shutdownCtx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "disconnect_redis",
		})
	}

	log.Info("Settlement worker shutdown complete")
}
