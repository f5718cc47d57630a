// Package orderbook owns the authoritative book state for one pair and runs
// the matching algorithm under strict price-time priority.
package orderbook

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	orderbookv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/orderbook/v1"
	snapshotv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/snapshot/v1"
)

// Book is a single pair's order book. All mutating operations are serialized
// on the book's own mutex, so matching for one pair never interleaves with
// another submit on the same pair. Different pairs' books are independent.
type Book struct {
	pair string

	mu     sync.Mutex
	bids   []*orderbookv1.Level // best (highest) price first
	asks   []*orderbookv1.Level // best (lowest) price first
	orders map[string]*orderbookv1.Order
	seq    int64
	halted bool
}

// NewBook creates an empty book for the pair.
func NewBook(pair string) *Book {
	return &Book{
		pair:   pair,
		orders: make(map[string]*orderbookv1.Order),
	}
}

// Pair returns the pair this book owns.
func (b *Book) Pair() string {
	return b.pair
}

// Submit validates the order, matches it against the opposing ledger and
// returns the fills in match order plus the resting remainder, if any.
// Validation happens before any mutation: a rejected order never touches
// book state.
func (b *Book) Submit(order *orderbookv1.Order) (*orderbookv1.SubmitResult, error) {
	if err := validate(b.pair, order); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.halted {
		return nil, orderbookv1.ErrBookHalted
	}
	if _, exists := b.orders[order.ID]; exists {
		return nil, fmt.Errorf("%w: %s", orderbookv1.ErrDuplicateOrder, order.ID)
	}

	b.seq++
	order.Sequence = b.seq
	order.Remaining = order.Amount

	result := &orderbookv1.SubmitResult{
		Fills: b.match(order),
	}

	// Market residual is discarded: it is reported back through the order's
	// own remaining amount but never rests on the book.
	if order.Type == orderbookv1.OrderTypeLimit && order.Remaining.IsPositive() {
		b.rest(order)
		result.Resting = order
	}

	if err := b.checkNotCrossed(); err != nil {
		b.halted = true
		return result, err
	}

	return result, nil
}

// match consumes the opposing ledger while the incoming order is eligible
// against the best opposing price. The stopping condition is the only
// difference between market and limit orders.
func (b *Book) match(taker *orderbookv1.Order) []*orderbookv1.Trade {
	var fills []*orderbookv1.Trade

	opposing := b.opposing(taker.Side)

	for taker.Remaining.IsPositive() && len(*opposing) > 0 {
		best := (*opposing)[0]
		if !eligible(taker, best.Price) {
			break
		}

		for _, match := range best.Fill(taker) {
			b.seq++
			fills = append(fills, orderbookv1.NewTradeFromMatch(b.pair, match, b.seq))
			if match.MakerIsFilled() {
				delete(b.orders, match.Maker.ID)
			}
		}

		if best.IsEmpty() {
			*opposing = (*opposing)[1:]
		}
	}

	return fills
}

// eligible reports whether the taker may match at the given opposing price.
// Market orders match any price; limit orders stop at their limit.
func eligible(taker *orderbookv1.Order, bestPrice decimal.Decimal) bool {
	if taker.Type == orderbookv1.OrderTypeMarket {
		return true
	}
	if taker.IsBuy() {
		return bestPrice.LessThanOrEqual(taker.Price)
	}
	return bestPrice.GreaterThanOrEqual(taker.Price)
}

// rest inserts the remainder at the tail of its own side's level.
func (b *Book) rest(order *orderbookv1.Order) {
	own := b.own(order.Side)

	level := b.findLevel(*own, order.Price)
	if level == nil {
		level = orderbookv1.NewLevel(order.Price)
		b.insertLevel(own, level, order.IsBuy())
	}

	// AddOrder cannot fail here: order and remaining were validated above.
	_ = level.AddOrder(order)
	b.orders[order.ID] = order
}

// Cancel removes a resting order from its ledger by id.
func (b *Book) Cancel(orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.halted {
		return orderbookv1.ErrBookHalted
	}

	order, exists := b.orders[orderID]
	if !exists {
		return fmt.Errorf("%w: %s", orderbookv1.ErrOrderNotFound, orderID)
	}

	level := order.Level
	if level != nil {
		if err := level.RemoveOrder(order); err != nil {
			return err
		}
		if level.IsEmpty() {
			b.dropLevel(b.own(order.Side), level)
		}
	}

	delete(b.orders, orderID)
	return nil
}

// Snapshot aggregates the remaining amount per price level, best price first
// on each side. It reflects a state that existed at a single instant.
func (b *Book) Snapshot() *orderbookv1.BookSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := &orderbookv1.BookSnapshot{
		Pair: b.pair,
		Bids: make([]orderbookv1.PriceLevel, 0, len(b.bids)),
		Asks: make([]orderbookv1.PriceLevel, 0, len(b.asks)),
	}

	for _, level := range b.bids {
		snapshot.Bids = append(snapshot.Bids, orderbookv1.PriceLevel{
			Price:       level.Price,
			TotalAmount: level.TotalAmount,
		})
	}
	for _, level := range b.asks {
		snapshot.Asks = append(snapshot.Asks, orderbookv1.PriceLevel{
			Price:       level.Price,
			TotalAmount: level.TotalAmount,
		})
	}

	return snapshot
}

// BidTotalAmount returns the total resting amount on the bid side.
func (b *Book) BidTotalAmount() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := decimal.Zero
	for _, level := range b.bids {
		total = total.Add(level.TotalAmount)
	}
	return total
}

// AskTotalAmount returns the total resting amount on the ask side.
func (b *Book) AskTotalAmount() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := decimal.Zero
	for _, level := range b.asks {
		total = total.Add(level.TotalAmount)
	}
	return total
}

// CreateSnapshot captures the full book state for the snapshot store.
func (b *Book) CreateSnapshot() *snapshotv1.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := &snapshotv1.Snapshot{
		Pair:   b.pair,
		Orders: make([]snapshotv1.BookOrder, 0, len(b.orders)),
	}

	for _, levels := range [][]*orderbookv1.Level{b.bids, b.asks} {
		for _, level := range levels {
			for _, order := range level.Orders {
				snapshot.Orders = append(snapshot.Orders, snapshotv1.BookOrder{
					OrderID:   order.ID,
					UserID:    order.UserID,
					Side:      string(order.Side),
					Price:     level.Price,
					Amount:    order.Amount,
					Remaining: order.Remaining,
					Sequence:  order.Sequence,
					Timestamp: order.Timestamp,
				})
			}
		}
	}

	return snapshot
}

// RestoreSnapshot rebuilds the book from a stored snapshot, preserving the
// original submission sequence for time priority.
func (b *Book) RestoreSnapshot(snapshot *snapshotv1.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	if snapshot.Pair != b.pair {
		return fmt.Errorf("%w: snapshot pair %s", orderbookv1.ErrPairMismatch, snapshot.Pair)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.bids = nil
	b.asks = nil
	b.orders = make(map[string]*orderbookv1.Order)
	b.seq = 0
	b.halted = false

	restored := make([]snapshotv1.BookOrder, len(snapshot.Orders))
	copy(restored, snapshot.Orders)
	sort.SliceStable(restored, func(i, j int) bool {
		return restored[i].Sequence < restored[j].Sequence
	})

	for _, bookOrder := range restored {
		order := &orderbookv1.Order{
			ID:        bookOrder.OrderID,
			Pair:      b.pair,
			UserID:    bookOrder.UserID,
			Side:      orderbookv1.Side(bookOrder.Side),
			Type:      orderbookv1.OrderTypeLimit,
			Price:     bookOrder.Price,
			Amount:    bookOrder.Amount,
			Remaining: bookOrder.Remaining,
			Sequence:  bookOrder.Sequence,
			Timestamp: bookOrder.Timestamp,
		}

		own := b.own(order.Side)
		level := b.findLevel(*own, order.Price)
		if level == nil {
			level = orderbookv1.NewLevel(order.Price)
			b.insertLevel(own, level, order.IsBuy())
		}
		if err := level.AddOrder(order); err != nil {
			return fmt.Errorf("failed to restore order %s: %w", bookOrder.OrderID, err)
		}
		b.orders[order.ID] = order

		if order.Sequence > b.seq {
			b.seq = order.Sequence
		}
	}

	return nil
}

// checkNotCrossed verifies the externally visible invariant: the best bid is
// strictly below the best ask, or one side is empty.
func (b *Book) checkNotCrossed() error {
	if len(b.bids) == 0 || len(b.asks) == 0 {
		return nil
	}
	if b.bids[0].Price.GreaterThanOrEqual(b.asks[0].Price) {
		return fmt.Errorf("%w: best bid %s, best ask %s",
			orderbookv1.ErrCrossedBook, b.bids[0].Price, b.asks[0].Price)
	}
	return nil
}

// opposing returns the ledger a taker matches against.
func (b *Book) opposing(side orderbookv1.Side) *[]*orderbookv1.Level {
	if side == orderbookv1.SideBuy {
		return &b.asks
	}
	return &b.bids
}

// own returns the ledger a remainder rests on.
func (b *Book) own(side orderbookv1.Side) *[]*orderbookv1.Level {
	if side == orderbookv1.SideBuy {
		return &b.bids
	}
	return &b.asks
}

func (b *Book) findLevel(levels []*orderbookv1.Level, price decimal.Decimal) *orderbookv1.Level {
	for _, level := range levels {
		if level.Price.Equal(price) {
			return level
		}
	}
	return nil
}

// insertLevel keeps the side ordered best price first: bids descending, asks
// ascending.
func (b *Book) insertLevel(levels *[]*orderbookv1.Level, level *orderbookv1.Level, bid bool) {
	idx := len(*levels)
	for i, existing := range *levels {
		if bid && level.Price.GreaterThan(existing.Price) {
			idx = i
			break
		}
		if !bid && level.Price.LessThan(existing.Price) {
			idx = i
			break
		}
	}

	*levels = append(*levels, nil)
	copy((*levels)[idx+1:], (*levels)[idx:])
	(*levels)[idx] = level
}

func (b *Book) dropLevel(levels *[]*orderbookv1.Level, level *orderbookv1.Level) {
	for i, existing := range *levels {
		if existing == level {
			*levels = append((*levels)[:i], (*levels)[i+1:]...)
			return
		}
	}
}

// validate enforces the submit preconditions before any book mutation.
func validate(pair string, order *orderbookv1.Order) error {
	if order == nil {
		return orderbookv1.ErrNilOrder
	}
	if order.Pair != pair {
		return fmt.Errorf("%w: order pair %s, book pair %s", orderbookv1.ErrPairMismatch, order.Pair, pair)
	}
	if !order.Amount.IsPositive() {
		return fmt.Errorf("%w: got %s", orderbookv1.ErrInvalidAmount, order.Amount)
	}

	switch order.Type {
	case orderbookv1.OrderTypeLimit:
		if !order.Price.IsPositive() {
			return fmt.Errorf("%w: got %s", orderbookv1.ErrInvalidPrice, order.Price)
		}
	case orderbookv1.OrderTypeMarket:
		// A market order's price, if present, is never used for execution.
	default:
		return fmt.Errorf("%w: %q", orderbookv1.ErrInvalidType, order.Type)
	}

	return nil
}
