package settlementv1

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	orderbookv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/orderbook/v1"
)

// Request is the settlement request message constructed for one trade. The
// trade id doubles as the consumer-side idempotency key.
type Request struct {
	TradeID       string          `json:"trade_id"`
	Pair          string          `json:"pair"`
	BuyerOrderID  string          `json:"buyer_order_id"`
	SellerOrderID string          `json:"seller_order_id"`
	BuyerUserID   string          `json:"buyer_user_id"`
	SellerUserID  string          `json:"seller_user_id"`
	Price         decimal.Decimal `json:"price"`
	Amount        decimal.Decimal `json:"amount"`
	MatchedAt     int64           `json:"matched_at"`
}

// FromTrade builds the settlement request for a trade.
func FromTrade(trade *orderbookv1.Trade) *Request {
	return &Request{
		TradeID:       trade.ID,
		Pair:          trade.Pair,
		BuyerOrderID:  trade.BuyOrderID,
		SellerOrderID: trade.SellOrderID,
		BuyerUserID:   trade.BuyUserID,
		SellerUserID:  trade.SellUserID,
		Price:         trade.Price,
		Amount:        trade.Amount,
		MatchedAt:     trade.MatchedAt,
	}
}

// ToBytes converts the request to its wire form.
func ToBytes(req *Request) []byte {
	buf, err := json.Marshal(req)
	if err != nil {
		return nil
	}
	return buf
}

// FromBytes parses a wire payload. The error distinguishes malformed input,
// which the consumer drops, from everything it retries.
func FromBytes(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
