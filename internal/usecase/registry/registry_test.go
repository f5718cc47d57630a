package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderbookv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/orderbook/v1"
	registryv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/registry/v1"
	settlementv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/settlement/v1"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/logger"
)

// fakeEmitter records emitted trades and can be primed to fail.
type fakeEmitter struct {
	mu     sync.Mutex
	trades []*orderbookv1.Trade
	fail   bool
}

func (f *fakeEmitter) Emit(ctx context.Context, trade *orderbookv1.Trade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return settlementv1.ErrEmitterUnavailable
	}
	f.trades = append(f.trades, trade)
	return nil
}

func (f *fakeEmitter) emitted() []*orderbookv1.Trade {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*orderbookv1.Trade(nil), f.trades...)
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func newTestRegistry(t *testing.T, pairs []string) (*Registry, *fakeEmitter) {
	t.Helper()

	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ErrorLevel))
	require.NoError(t, err)

	emitter := &fakeEmitter{}
	return NewRegistry(pairs, emitter, log), emitter
}

func placeRequest(pair, orderID string, side orderbookv1.Side, orderType orderbookv1.OrderType, price, amount float64) *orderbookv1.PlaceOrderRequest {
	return &orderbookv1.PlaceOrderRequest{
		OrderID: orderID,
		Pair:    pair,
		UserID:  "user-" + orderID,
		Side:    side,
		Type:    orderType,
		Price:   dec(price),
		Amount:  dec(amount),
	}
}

func TestNewRegistry(t *testing.T) {
	reg, _ := newTestRegistry(t, []string{"BTC-USD", "ETH-USD"})

	assert.Equal(t, []string{"BTC-USD", "ETH-USD"}, reg.Pairs())

	book, err := reg.Get("BTC-USD")
	require.NoError(t, err)
	assert.Equal(t, "BTC-USD", book.Pair())
}

func TestRegistry_Get_UnknownPair(t *testing.T) {
	reg, _ := newTestRegistry(t, []string{"BTC-USD"})

	book, err := reg.Get("DOGE-USD")
	assert.Nil(t, book)
	assert.ErrorIs(t, err, registryv1.ErrUnknownPair)
}

func TestRegistry_Submit_RoutesToPair(t *testing.T) {
	reg, _ := newTestRegistry(t, []string{"BTC-USD", "ETH-USD"})
	ctx := context.Background()

	_, err := reg.Submit(ctx, placeRequest("BTC-USD", "o1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 100, 5))
	require.NoError(t, err)

	// The other pair's book is untouched
	btc, _ := reg.Get("BTC-USD")
	eth, _ := reg.Get("ETH-USD")
	assert.True(t, btc.AskTotalAmount().Equal(dec(5)))
	assert.True(t, eth.AskTotalAmount().IsZero())
}

func TestRegistry_Submit_UnknownPair(t *testing.T) {
	reg, _ := newTestRegistry(t, []string{"BTC-USD"})

	result, err := reg.Submit(context.Background(),
		placeRequest("DOGE-USD", "o1", orderbookv1.SideBuy, orderbookv1.OrderTypeLimit, 100, 5))

	assert.Nil(t, result)
	assert.ErrorIs(t, err, registryv1.ErrUnknownPair)
}

func TestRegistry_Submit_EmitsEachFillOnce(t *testing.T) {
	reg, emitter := newTestRegistry(t, []string{"BTC-USD"})
	ctx := context.Background()

	_, err := reg.Submit(ctx, placeRequest("BTC-USD", "s1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 100, 3))
	require.NoError(t, err)
	_, err = reg.Submit(ctx, placeRequest("BTC-USD", "s2", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 101, 3))
	require.NoError(t, err)

	result, err := reg.Submit(ctx, placeRequest("BTC-USD", "b1", orderbookv1.SideBuy, orderbookv1.OrderTypeLimit, 101, 6))
	require.NoError(t, err)
	require.Equal(t, 2, len(result.Fills))

	trades := emitter.emitted()
	require.Equal(t, 2, len(trades))
	assert.Equal(t, result.Fills[0].ID, trades[0].ID)
	assert.Equal(t, result.Fills[1].ID, trades[1].ID)
}

func TestRegistry_Submit_EmitterFailureKeepsFills(t *testing.T) {
	reg, emitter := newTestRegistry(t, []string{"BTC-USD"})
	ctx := context.Background()

	_, err := reg.Submit(ctx, placeRequest("BTC-USD", "s1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 100, 5))
	require.NoError(t, err)

	emitter.fail = true
	result, err := reg.Submit(ctx, placeRequest("BTC-USD", "b1", orderbookv1.SideBuy, orderbookv1.OrderTypeMarket, 0, 5))

	// The trade stands even though the hand-off failed
	assert.ErrorIs(t, err, settlementv1.ErrEmitterUnavailable)
	require.NotNil(t, result)
	require.Equal(t, 1, len(result.Fills))

	book, _ := reg.Get("BTC-USD")
	assert.True(t, book.AskTotalAmount().IsZero())
}

func TestRegistry_Submit_ValidationErrorNotEmitted(t *testing.T) {
	reg, emitter := newTestRegistry(t, []string{"BTC-USD"})

	_, err := reg.Submit(context.Background(),
		placeRequest("BTC-USD", "o1", orderbookv1.SideBuy, orderbookv1.OrderTypeLimit, 0, 5))

	assert.ErrorIs(t, err, orderbookv1.ErrInvalidPrice)
	assert.Empty(t, emitter.emitted())
}

func TestRegistry_Cancel(t *testing.T) {
	reg, _ := newTestRegistry(t, []string{"BTC-USD"})
	ctx := context.Background()

	_, err := reg.Submit(ctx, placeRequest("BTC-USD", "o1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 100, 5))
	require.NoError(t, err)

	assert.NoError(t, reg.Cancel(ctx, "BTC-USD", "o1"))
	assert.ErrorIs(t, reg.Cancel(ctx, "BTC-USD", "o1"), orderbookv1.ErrOrderNotFound)
	assert.ErrorIs(t, reg.Cancel(ctx, "DOGE-USD", "o1"), registryv1.ErrUnknownPair)
}

func TestRegistry_Snapshot(t *testing.T) {
	reg, _ := newTestRegistry(t, []string{"BTC-USD"})
	ctx := context.Background()

	_, err := reg.Submit(ctx, placeRequest("BTC-USD", "o1", orderbookv1.SideBuy, orderbookv1.OrderTypeLimit, 99, 5))
	require.NoError(t, err)

	snapshot, err := reg.Snapshot("BTC-USD")
	require.NoError(t, err)
	assert.Equal(t, "BTC-USD", snapshot.Pair)
	require.Equal(t, 1, len(snapshot.Bids))
	assert.True(t, snapshot.Bids[0].TotalAmount.Equal(dec(5)))

	_, err = reg.Snapshot("DOGE-USD")
	assert.ErrorIs(t, err, registryv1.ErrUnknownPair)
}

func TestRegistry_ConcurrentPairsIndependent(t *testing.T) {
	pairs := []string{"BTC-USD", "ETH-USD", "SOL-USD"}
	reg, emitter := newTestRegistry(t, pairs)
	ctx := context.Background()

	const perPair = 50
	var wg sync.WaitGroup
	for _, pair := range pairs {
		wg.Add(1)
		go func(pair string) {
			defer wg.Done()
			for i := 0; i < perPair; i++ {
				sellID := fmt.Sprintf("%s-sell-%d", pair, i)
				buyID := fmt.Sprintf("%s-buy-%d", pair, i)

				_, err := reg.Submit(ctx, placeRequest(pair, sellID, orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 100, 1))
				assert.NoError(t, err)
				_, err = reg.Submit(ctx, placeRequest(pair, buyID, orderbookv1.SideBuy, orderbookv1.OrderTypeMarket, 0, 1))
				assert.NoError(t, err)
			}
		}(pair)
	}
	wg.Wait()

	// Every submission matched within its own pair
	assert.Equal(t, len(pairs)*perPair, len(emitter.emitted()))
	for _, pair := range pairs {
		book, err := reg.Get(pair)
		require.NoError(t, err)
		assert.True(t, book.BidTotalAmount().IsZero())
		assert.True(t, book.AskTotalAmount().IsZero())
	}
}
