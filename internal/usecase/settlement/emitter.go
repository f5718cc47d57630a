package settlement

import (
	"context"
	"sync"
	"time"

	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/logger"

	orderbookv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/orderbook/v1"
	settlementv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/settlement/v1"
)

// QueuedEmitter decouples matching from the settlement queue. Emit is a
// non-blocking enqueue into a bounded buffer; a background loop drains the
// buffer into the publisher with at-least-once delivery. A slow settlement
// pipeline therefore never stalls matching.
type QueuedEmitter struct {
	publisher settlementv1.Publisher
	queue     chan *settlementv1.Request
	logger    *logger.Logger

	retryBackoff time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueuedEmitter creates an emitter with the given queue capacity.
func NewQueuedEmitter(publisher settlementv1.Publisher, queueSize int, retryBackoff time.Duration, log *logger.Logger) *QueuedEmitter {
	return &QueuedEmitter{
		publisher:    publisher,
		queue:        make(chan *settlementv1.Request, queueSize),
		retryBackoff: retryBackoff,
		logger:       log,
	}
}

// Emit enqueues the trade's settlement request. It never blocks: a full queue
// is reported as ErrEmitterUnavailable and the caller decides how to surface
// it. The trade itself is already final.
func (e *QueuedEmitter) Emit(ctx context.Context, trade *orderbookv1.Trade) error {
	select {
	case e.queue <- settlementv1.FromTrade(trade):
		return nil
	default:
		return settlementv1.ErrEmitterUnavailable
	}
}

// Start launches the delivery loop.
func (e *QueuedEmitter) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(1)
	go e.run(ctx)
}

// Stop cancels the delivery loop and waits for it to finish, bounded by ctx.
func (e *QueuedEmitter) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run drains the queue. A failed publish is retried with a fixed backoff
// until it succeeds or the emitter stops; requests are never dropped once
// enqueued.
func (e *QueuedEmitter) run(ctx context.Context) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("settlement emitter shutting down",
				logger.Field{Key: "queued", Value: len(e.queue)},
			)
			return
		case req := <-e.queue:
			e.deliver(ctx, req)
		}
	}
}

func (e *QueuedEmitter) deliver(ctx context.Context, req *settlementv1.Request) {
	for {
		err := e.publisher.Publish(ctx, req)
		if err == nil {
			return
		}

		e.logger.Error(err,
			logger.Field{Key: "tradeID", Value: req.TradeID},
			logger.Field{Key: "action", Value: "publish_settlement_request"},
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(e.retryBackoff):
		}
	}
}
