package orderbookv1

import "github.com/shopspring/decimal"

// Match represents a single fill between a resting maker order and an
// incoming taker order. The price is always the maker's price.
type Match struct {
	Maker  *Order          `json:"maker"`
	Taker  *Order          `json:"taker"`
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

// MakerIsFilled checks if the resting order is fully filled.
func (m *Match) MakerIsFilled() bool {
	return m.Maker.IsFilled()
}

// TakerIsFilled checks if the incoming order is fully filled.
func (m *Match) TakerIsFilled() bool {
	return m.Taker.IsFilled()
}

// Buyer returns the buy-side order of the match.
func (m *Match) Buyer() *Order {
	if m.Taker.IsBuy() {
		return m.Taker
	}
	return m.Maker
}

// Seller returns the sell-side order of the match.
func (m *Match) Seller() *Order {
	if m.Taker.IsSell() {
		return m.Taker
	}
	return m.Maker
}
