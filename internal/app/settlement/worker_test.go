package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	settlementv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/settlement/v1"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/config"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/logger"
)

// fakeConsumer feeds scripted messages, then blocks until the context ends.
type fakeConsumer struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []kafka.Message
}

func (f *fakeConsumer) Fetch(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.messages) > 0 {
		msg := f.messages[0]
		f.messages = f.messages[1:]
		f.mu.Unlock()
		return msg, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeConsumer) Commit(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeConsumer) Close() error { return nil }

func (f *fakeConsumer) committedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.committed)
}

// fakeExecutor fails the first failCount settlements, then succeeds.
type fakeExecutor struct {
	mu        sync.Mutex
	settled   []string
	attempts  int
	failCount int
}

func (f *fakeExecutor) Settle(ctx context.Context, req *settlementv1.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.attempts <= f.failCount {
		return "", errors.New("settlement backend unavailable")
	}
	f.settled = append(f.settled, req.TradeID)
	return "0xabc", nil
}

// fakeRedis is an in-memory stand-in for the idempotency store.
type fakeRedis struct {
	mu       sync.Mutex
	data     map[string]string
	setNXErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Connect(ctx context.Context) error    { return nil }
func (f *fakeRedis) Disconnect(ctx context.Context) error { return nil }
func (f *fakeRedis) Ping(ctx context.Context) error       { return nil }

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key], nil
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = "1"
	return nil
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setNXErr != nil {
		return false, f.setNXErr
	}
	if _, exists := f.data[key]; exists {
		return false, nil
	}
	f.data[key] = "1"
	return true, nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for _, key := range keys {
		if _, exists := f.data[key]; exists {
			delete(f.data, key)
			deleted++
		}
	}
	return deleted, nil
}

func testWorker(t *testing.T, consumer settlementv1.Consumer, executor settlementv1.Executor, rclient *fakeRedis) *Worker {
	t.Helper()

	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ErrorLevel))
	require.NoError(t, err)

	cfg := config.SettlementConfig{
		MaxAttempts:  3,
		RetryBackoff: time.Millisecond,
	}

	w := NewWorker(consumer, executor, rclient, cfg, log)
	w.ctx, w.cancel = context.WithCancel(context.Background())
	return w
}

func validPayload(tradeID string) []byte {
	return []byte(`{"trade_id":"` + tradeID + `","pair":"BTC-USD","buyer_user_id":"buyer","seller_user_id":"seller","price":"100","amount":"2.5"}`)
}

func TestWorker_ProcessMessage_Settles(t *testing.T) {
	executor := &fakeExecutor{}
	rclient := newFakeRedis()
	w := testWorker(t, &fakeConsumer{}, executor, rclient)

	committed := false
	w.processMessage(validPayload("trade-1"), func() { committed = true })

	assert.True(t, committed)
	assert.Equal(t, []string{"trade-1"}, executor.settled)

	// The claim stays so a redelivery is skipped
	_, exists := rclient.data[idempotencyKeyPrefix+"trade-1"]
	assert.True(t, exists)
}

func TestWorker_ProcessMessage_DropsMalformed(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: "garbage"},
		{name: "missing trade id", payload: `{"pair":"BTC-USD","amount":"1"}`},
		{name: "non positive amount", payload: `{"trade_id":"t1","amount":"0"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			executor := &fakeExecutor{}
			w := testWorker(t, &fakeConsumer{}, executor, newFakeRedis())

			committed := false
			w.processMessage([]byte(tc.payload), func() { committed = true })

			// Dropped: committed but never settled
			assert.True(t, committed)
			assert.Empty(t, executor.settled)
		})
	}
}

func TestWorker_ProcessMessage_SkipsAlreadySettled(t *testing.T) {
	executor := &fakeExecutor{}
	rclient := newFakeRedis()
	rclient.data[idempotencyKeyPrefix+"trade-1"] = "1"
	w := testWorker(t, &fakeConsumer{}, executor, rclient)

	committed := false
	w.processMessage(validPayload("trade-1"), func() { committed = true })

	assert.True(t, committed)
	assert.Empty(t, executor.settled)
}

func TestWorker_ProcessMessage_RetriesTransientFailure(t *testing.T) {
	executor := &fakeExecutor{failCount: 2}
	w := testWorker(t, &fakeConsumer{}, executor, newFakeRedis())

	committed := false
	w.processMessage(validPayload("trade-1"), func() { committed = true })

	assert.True(t, committed)
	assert.Equal(t, 3, executor.attempts)
	assert.Equal(t, []string{"trade-1"}, executor.settled)
}

func TestWorker_ProcessMessage_ExhaustedRetriesLeftUncommitted(t *testing.T) {
	executor := &fakeExecutor{failCount: 100}
	rclient := newFakeRedis()
	w := testWorker(t, &fakeConsumer{}, executor, rclient)

	committed := false
	w.processMessage(validPayload("trade-1"), func() { committed = true })

	// Uncommitted, so the queue redelivers; the claim is released
	assert.False(t, committed)
	assert.Equal(t, 3, executor.attempts)
	_, exists := rclient.data[idempotencyKeyPrefix+"trade-1"]
	assert.False(t, exists)
}

func TestWorker_ProcessMessage_ClaimErrorLeftUncommitted(t *testing.T) {
	executor := &fakeExecutor{}
	rclient := newFakeRedis()
	rclient.setNXErr = errors.New("redis down")
	w := testWorker(t, &fakeConsumer{}, executor, rclient)

	committed := false
	w.processMessage(validPayload("trade-1"), func() { committed = true })

	assert.False(t, committed)
	assert.Empty(t, executor.settled)
}

func TestWorker_StartStop(t *testing.T) {
	consumer := &fakeConsumer{
		messages: []kafka.Message{
			{Value: validPayload("trade-1"), Offset: 1},
			{Value: []byte("garbage"), Offset: 2},
		},
	}
	executor := &fakeExecutor{}
	w := testWorker(t, consumer, executor, newFakeRedis())

	require.NoError(t, w.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return consumer.committedCount() == 2
	}, time.Second, 5*time.Millisecond)

	executor.mu.Lock()
	settled := append([]string(nil), executor.settled...)
	executor.mu.Unlock()
	assert.Equal(t, []string{"trade-1"}, settled)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, w.Stop(stopCtx))
}
