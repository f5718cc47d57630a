package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"

	orderreaderv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/order-reader/v1"
	orderbookv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/orderbook/v1"
	registryv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/registry/v1"
	snapshotv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/snapshot/v1"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/config"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/logger"
)

// Engine consumes the order stream, routes each request through the pair
// registry and periodically snapshots every book.
type Engine struct {
	registry      registryv1.Registry
	orderReader   orderreaderv1.OrderReader
	snapshotStore snapshotv1.Store
	logger        *logger.Logger
	config        *config.Config

	mu                 sync.RWMutex
	orderOffset        int64
	lastSnapshotOffset int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	snapshotInterval    time.Duration
	snapshotOffsetDelta int64

	totalTrades int64
	tradesMutex sync.RWMutex
}

// NewEngine creates a new instance of Engine with the provided dependencies.
func NewEngine(
	registry registryv1.Registry,
	orderReader orderreaderv1.OrderReader,
	snapshotStore snapshotv1.Store,
	logger *logger.Logger,
	config *config.Config,
) *Engine {
	return NewEngineWithOptions(registry, orderReader, snapshotStore, logger, config, DefaultEngineOptions())
}

// NewEngineWithOptions creates a new engine with custom options
func NewEngineWithOptions(
	registry registryv1.Registry,
	orderReader orderreaderv1.OrderReader,
	snapshotStore snapshotv1.Store,
	logger *logger.Logger,
	config *config.Config,
	options *Options,
) *Engine {
	e := &Engine{
		registry:      registry,
		orderReader:   orderReader,
		snapshotStore: snapshotStore,
		logger:        logger,
		config:        config,

		snapshotInterval:    options.SnapshotInterval,
		snapshotOffsetDelta: options.SnapshotOffsetDelta,
		orderOffset:         -1,
	}

	// Restore every book before consuming any orders.
	if err := e.loadSnapshots(context.Background()); err != nil {
		e.logger.GetZap().Fatal("Failed to load snapshots", zapcore.Field{
			Key:       "error",
			Interface: err,
		})
	}

	return e
}

// Start initializes the engine and starts processing routines.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(2)
	go e.runOrderProcessor()
	go e.runSnapshotManager()

	e.logger.Info("Matching engine started", logger.Field{
		Key:   "pairs",
		Value: e.registry.Pairs(),
	})

	return nil
}

// Stop gracefully shuts down the engine
func (e *Engine) Stop(ctx context.Context) error {
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
		e.logger.Info("Matching engine stopped gracefully")
		return nil
	case <-ctx.Done():
		e.logger.Warn("Engine stop timeout exceeded")
		return ctx.Err()
	}
}

// runOrderProcessor combines order reading and processing in a single goroutine
func (e *Engine) runOrderProcessor() {
	defer e.wg.Done()

	e.logger.Info("Starting order processor", logger.Field{
		Key:   "pairs",
		Value: e.registry.Pairs(),
	})

	currentOffset := e.getOrderOffset()
	if currentOffset > 0 {
		currentOffset++
	}

	if err := e.orderReader.SetOffset(currentOffset); err != nil {
		e.logger.GetZap().Fatal("Failed to set offset for order reader", zapcore.Field{
			Key:       "error",
			Interface: err,
		})
	}

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Order processor shutting down")
			e.orderReader.Close()
			return
		default:
			msg, orderRequest, err := e.orderReader.ReadMessage(e.ctx)
			if err != nil {
				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "read_order_message",
				})
				time.Sleep(100 * time.Millisecond)
				continue
			}

			if err := e.orderReader.CommitMessages(e.ctx, msg); err != nil {
				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "commit_order_message",
				})
			}

			if err := e.processOrder(orderRequest); err != nil {
				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "process_order",
				})
			}

			e.setOrderOffset(msg.Offset)
		}
	}
}

// runSnapshotManager handles periodic snapshots
func (e *Engine) runSnapshotManager() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.snapshotInterval)
	defer ticker.Stop()

	e.logger.Info("Starting snapshot manager")

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Snapshot manager shutting down")
			return
		case <-ticker.C:
			if e.shouldCreateSnapshot() {
				e.createAndStoreSnapshots()
			}
		}
	}
}

// processOrder routes a single order request through the registry. Rejected
// orders are logged and skipped; they never stop the stream.
func (e *Engine) processOrder(orderRequest *orderbookv1.PlaceOrderRequest) error {
	e.logger.Debug("Processing order",
		logger.Field{Key: "orderOffset", Value: orderRequest.Offset},
		logger.Field{Key: "pair", Value: orderRequest.Pair},
		logger.Field{Key: "userID", Value: orderRequest.UserID},
		logger.Field{Key: "type", Value: orderRequest.Type},
	)

	if orderRequest.Type == orderbookv1.OrderTypeCancel {
		return e.registry.Cancel(e.ctx, orderRequest.Pair, orderRequest.OrderID)
	}

	result, err := e.registry.Submit(e.ctx, orderRequest)
	if result != nil && len(result.Fills) > 0 {
		e.logTrades(result.Fills)
	}
	return err
}

// logTrades logs the trades and updates statistics
func (e *Engine) logTrades(trades []*orderbookv1.Trade) {
	e.tradesMutex.Lock()
	e.totalTrades += int64(len(trades))
	currentTotal := e.totalTrades
	e.tradesMutex.Unlock()

	e.logger.Info("Trades executed",
		logger.Field{Key: "tradeCount", Value: len(trades)},
		logger.Field{Key: "totalTrades", Value: currentTotal},
	)

	for i, trade := range trades {
		e.logger.Info("Trade executed",
			logger.Field{Key: "tradeIndex", Value: i + 1},
			logger.Field{Key: "tradeID", Value: trade.ID},
			logger.Field{Key: "pair", Value: trade.Pair},
			logger.Field{Key: "price", Value: trade.Price},
			logger.Field{Key: "amount", Value: trade.Amount},
			logger.Field{Key: "buyUser", Value: trade.BuyUserID},
			logger.Field{Key: "sellUser", Value: trade.SellUserID},
			logger.Field{Key: "buyOrderID", Value: trade.BuyOrderID},
			logger.Field{Key: "sellOrderID", Value: trade.SellOrderID},
		)
	}
}

// shouldCreateSnapshot checks if a snapshot should be created
func (e *Engine) shouldCreateSnapshot() bool {
	e.mu.RLock()
	currentOffset := e.orderOffset
	lastSnapshotOffset := e.lastSnapshotOffset
	e.mu.RUnlock()

	if currentOffset <= 0 {
		return false
	}

	delta := currentOffset - lastSnapshotOffset
	return delta >= e.snapshotOffsetDelta
}

// createAndStoreSnapshots snapshots every book at the current stream offset.
func (e *Engine) createAndStoreSnapshots() {
	currentOffset := e.getOrderOffset()

	e.logger.Info("Creating snapshots", logger.Field{
		Key:   "currentOffset",
		Value: currentOffset,
	})

	stored := true
	for _, pair := range e.registry.Pairs() {
		book, err := e.registry.Get(pair)
		if err != nil {
			continue
		}

		snapshot := book.CreateSnapshot()
		snapshot.OrderOffset = currentOffset

		if err := e.snapshotStore.Store(e.ctx, snapshot); err != nil {
			e.logger.ErrorContext(e.ctx, err, logger.Field{
				Key:   "action",
				Value: "store_snapshot",
			}, logger.Field{
				Key:   "pair",
				Value: pair,
			})
			stored = false
		}
	}

	if stored {
		e.setLastSnapshotOffset(currentOffset)
		e.logger.Info("Snapshots stored successfully", logger.Field{
			Key:   "offset",
			Value: currentOffset,
		})
	}
}

// Thread-safe getters and setters
func (e *Engine) getOrderOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.orderOffset
}

func (e *Engine) setOrderOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orderOffset = offset
}

func (e *Engine) getLastSnapshotOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSnapshotOffset
}

func (e *Engine) setLastSnapshotOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSnapshotOffset = offset
}

// loadSnapshots restores every book from its stored snapshot. Consumption
// resumes from the minimum snapshot offset so no pair misses orders.
func (e *Engine) loadSnapshots(ctx context.Context) error {
	minOffset := int64(-1)
	restored := 0

	for _, pair := range e.registry.Pairs() {
		snapshot, err := e.snapshotStore.Load(ctx, pair)
		if err != nil {
			return err
		}
		if snapshot == nil {
			continue
		}

		book, err := e.registry.Get(pair)
		if err != nil {
			return err
		}
		if err := book.RestoreSnapshot(snapshot); err != nil {
			return err
		}

		if restored == 0 || snapshot.OrderOffset < minOffset {
			minOffset = snapshot.OrderOffset
		}
		restored++

		e.logger.Info("Order book restored from snapshot", logger.Field{
			Key:   "pair",
			Value: pair,
		}, logger.Field{
			Key:   "orderOffset",
			Value: snapshot.OrderOffset,
		})
	}

	if restored > 0 {
		e.mu.Lock()
		e.orderOffset = minOffset
		e.lastSnapshotOffset = minOffset
		e.mu.Unlock()
	}

	return nil
}

// GetOrderOffset returns the current order offset
func (e *Engine) GetOrderOffset() int64 {
	return e.getOrderOffset()
}

// GetLastSnapshotOffset returns the last snapshot offset
func (e *Engine) GetLastSnapshotOffset() int64 {
	return e.getLastSnapshotOffset()
}

// GetTotalTrades returns the total number of trades processed
func (e *Engine) GetTotalTrades() int64 {
	e.tradesMutex.RLock()
	defer e.tradesMutex.RUnlock()
	return e.totalTrades
}
