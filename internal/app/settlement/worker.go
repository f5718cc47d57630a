package settlement

import (
	"context"
	"sync"
	"time"

	settlementv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/settlement/v1"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/config"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/logger"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/redis"
)

const idempotencyKeyPrefix = "settlement:trade:"

// Worker drains the settlement queue. Malformed messages are dropped,
// transient failures are left uncommitted so the queue redelivers them, and
// the trade id is claimed in Redis before execution so a redelivered message
// settles at most once.
type Worker struct {
	consumer    settlementv1.Consumer
	executor    settlementv1.Executor
	redisclient redis.Client
	logger      *logger.Logger

	maxAttempts  int
	retryBackoff time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a settlement worker with the given dependencies.
func NewWorker(
	consumer settlementv1.Consumer,
	executor settlementv1.Executor,
	redisclient redis.Client,
	cfg config.SettlementConfig,
	log *logger.Logger,
) *Worker {
	return &Worker{
		consumer:     consumer,
		executor:     executor,
		redisclient:  redisclient,
		logger:       log,
		maxAttempts:  cfg.MaxAttempts,
		retryBackoff: cfg.RetryBackoff,
	}
}

// Start launches the processing loop.
func (w *Worker) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.run()

	w.logger.Info("Settlement worker started")
	return nil
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Settlement worker stopped gracefully")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Worker stop timeout exceeded")
		return ctx.Err()
	}
}

func (w *Worker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("Settlement worker shutting down")
			w.consumer.Close()
			return
		default:
			msg, err := w.consumer.Fetch(w.ctx)
			if err != nil {
				if w.ctx.Err() != nil {
					continue
				}
				time.Sleep(100 * time.Millisecond)
				continue
			}

			w.processMessage(msg.Value, func() {
				if err := w.consumer.Commit(w.ctx, msg); err != nil {
					w.logger.ErrorContext(w.ctx, err, logger.Field{
						Key:   "action",
						Value: "commit_settlement_message",
					})
				}
			})
		}
	}
}

// processMessage handles one raw queue message. commit is invoked when the
// message is finished, either settled or dropped; leaving it uncalled means
// the queue delivers the message again.
func (w *Worker) processMessage(value []byte, commit func()) {
	req, err := settlementv1.FromBytes(value)
	if err != nil || req.TradeID == "" || !req.Amount.IsPositive() {
		w.logger.WarnContext(w.ctx, "Dropping malformed settlement message",
			logger.Field{Key: "payload", Value: string(value)},
		)
		commit()
		return
	}

	claimed, err := w.redisclient.SetNX(w.ctx, idempotencyKeyPrefix+req.TradeID, "1", 0)
	if err != nil {
		w.logger.ErrorContext(w.ctx, err, logger.Field{
			Key:   "action",
			Value: "claim_trade",
		}, logger.Field{
			Key:   "tradeID",
			Value: req.TradeID,
		})
		return
	}
	if !claimed {
		w.logger.InfoContext(w.ctx, "Trade already settled, skipping",
			logger.Field{Key: "tradeID", Value: req.TradeID},
		)
		commit()
		return
	}

	if err := w.settle(req); err != nil {
		// Release the claim so the redelivered message can settle.
		if _, delErr := w.redisclient.Del(w.ctx, idempotencyKeyPrefix+req.TradeID); delErr != nil {
			w.logger.ErrorContext(w.ctx, delErr, logger.Field{
				Key:   "action",
				Value: "release_trade_claim",
			})
		}
		w.logger.ErrorContext(w.ctx, err, logger.Field{
			Key:   "action",
			Value: "settle_trade",
		}, logger.Field{
			Key:   "tradeID",
			Value: req.TradeID,
		})
		return
	}

	commit()
}

// settle executes the request, retrying transient failures with a fixed
// backoff up to maxAttempts.
func (w *Worker) settle(req *settlementv1.Request) error {
	var err error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		var txHash string
		txHash, err = w.executor.Settle(w.ctx, req)
		if err == nil {
			w.logger.Info("Trade settled",
				logger.Field{Key: "tradeID", Value: req.TradeID},
				logger.Field{Key: "pair", Value: req.Pair},
				logger.Field{Key: "txHash", Value: txHash},
				logger.Field{Key: "attempt", Value: attempt},
			)
			return nil
		}

		w.logger.WarnContext(w.ctx, "Settlement attempt failed",
			logger.Field{Key: "tradeID", Value: req.TradeID},
			logger.Field{Key: "attempt", Value: attempt},
			logger.Field{Key: "error", Value: err.Error()},
		)

		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		case <-time.After(w.retryBackoff):
		}
	}
	return err
}
