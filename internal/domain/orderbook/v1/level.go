package orderbookv1

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Level represents a price level in the order book: the resting orders at a
// single price, in arrival order. A Level is not safe for concurrent use; the
// owning book serializes access to it.
type Level struct {
	Price       decimal.Decimal `json:"price"`
	Orders      []*Order        `json:"orders"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// NewLevel creates a new Level with the specified price.
func NewLevel(price decimal.Decimal) *Level {
	return &Level{
		Price:       price,
		Orders:      make([]*Order, 0),
		TotalAmount: decimal.Zero,
	}
}

// AddOrder appends an order at the tail of the level and updates the total
// amount. Time priority within the level is insertion order.
func (l *Level) AddOrder(order *Order) error {
	if order == nil {
		return ErrNilOrder
	}
	if !order.Remaining.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, order.Remaining)
	}

	order.Level = l
	l.Orders = append(l.Orders, order)
	l.TotalAmount = l.TotalAmount.Add(order.Remaining)

	return nil
}

// RemoveOrder removes an order from the level and updates the total amount.
func (l *Level) RemoveOrder(order *Order) error {
	if order == nil {
		return ErrNilOrder
	}

	for i, o := range l.Orders {
		if o == order {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			l.TotalAmount = l.TotalAmount.Sub(order.Remaining)
			order.Level = nil
			return nil
		}
	}

	return ErrOrderNotFound
}

// Fill matches the level against an incoming order and returns the matches in
// the order they were produced. Resting orders are consumed strictly in time
// priority; fully filled makers are removed from the level.
func (l *Level) Fill(taker *Order) []Match {
	if taker == nil {
		return nil
	}

	// Insertion order already is arrival order; sorting by sequence guards
	// against orders restored out of order from a snapshot.
	makers := make([]*Order, len(l.Orders))
	copy(makers, l.Orders)
	sort.SliceStable(makers, func(i, j int) bool {
		return makers[i].Sequence < makers[j].Sequence
	})

	var matches []Match
	var filled []*Order

	for _, maker := range makers {
		if !taker.Remaining.IsPositive() {
			break
		}

		amount := decimal.Min(taker.Remaining, maker.Remaining)
		taker.Remaining = taker.Remaining.Sub(amount)
		maker.Remaining = maker.Remaining.Sub(amount)
		l.TotalAmount = l.TotalAmount.Sub(amount)

		matches = append(matches, Match{
			Maker:  maker,
			Taker:  taker,
			Price:  l.Price,
			Amount: amount,
		})

		if maker.IsFilled() {
			filled = append(filled, maker)
		}
	}

	for _, maker := range filled {
		l.removeFilled(maker)
	}

	return matches
}

// removeFilled removes a fully filled maker without touching TotalAmount,
// which Fill already decremented.
func (l *Level) removeFilled(order *Order) {
	for i, o := range l.Orders {
		if o == order {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			order.Level = nil
			return
		}
	}
}

// IsEmpty checks if the level has no orders.
func (l *Level) IsEmpty() bool {
	return len(l.Orders) == 0
}

// OrderCount returns the number of orders at this level.
func (l *Level) OrderCount() int {
	return len(l.Orders)
}

// Validate performs basic validation of the level's state.
func (l *Level) Validate() error {
	if !l.Price.IsPositive() {
		return fmt.Errorf("%w: level price %s", ErrInvalidPrice, l.Price)
	}

	total := decimal.Zero
	for _, order := range l.Orders {
		if order == nil {
			return fmt.Errorf("nil order found in level %s", l.Price)
		}
		if !order.Remaining.IsPositive() {
			return fmt.Errorf("%w: resting order %s has remaining %s", ErrInvalidAmount, order.ID, order.Remaining)
		}
		total = total.Add(order.Remaining)
	}

	if !total.Equal(l.TotalAmount) {
		return fmt.Errorf("amount mismatch at level %s: calculated %s, stored %s", l.Price, total, l.TotalAmount)
	}

	return nil
}
