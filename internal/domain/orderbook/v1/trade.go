package orderbookv1

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// Trade represents a completed match. A trade is immutable once created and
// is emitted to the settlement pipeline exactly once.
type Trade struct {
	ID   string `json:"id"`
	Pair string `json:"pair"`

	BuyOrderID  string `json:"buyOrderID"`
	SellOrderID string `json:"sellOrderID"`
	BuyUserID   string `json:"buyUserID"`
	SellUserID  string `json:"sellUserID"`

	// Price is the maker's price, never the taker's.
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`

	Sequence  int64 `json:"sequence"`
	MatchedAt int64 `json:"matchedAt"`
}

// NewTradeFromMatch builds the immutable trade record for a match, resolving
// buyer and seller from the two orders' sides.
func NewTradeFromMatch(pair string, match Match, sequence int64) *Trade {
	buyer := match.Buyer()
	seller := match.Seller()

	return &Trade{
		ID:          ulid.Make().String(),
		Pair:        pair,
		BuyOrderID:  buyer.ID,
		SellOrderID: seller.ID,
		BuyUserID:   buyer.UserID,
		SellUserID:  seller.UserID,
		Price:       match.Price,
		Amount:      match.Amount,
		Sequence:    sequence,
		MatchedAt:   time.Now().UnixNano(),
	}
}
