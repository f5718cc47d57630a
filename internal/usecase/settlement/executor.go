package settlement

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/logger"

	settlementv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/settlement/v1"
)

// SimulatedExecutor stands in for the on-chain settlement contract. It
// performs no value transfer and returns a generated transaction hash.
type SimulatedExecutor struct {
	logger *logger.Logger
}

// NewSimulatedExecutor creates an executor that simulates settlement.
func NewSimulatedExecutor(log *logger.Logger) *SimulatedExecutor {
	return &SimulatedExecutor{logger: log}
}

// Settle simulates the on-chain settlement transaction for the request.
func (e *SimulatedExecutor) Settle(ctx context.Context, req *settlementv1.Request) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	txHash := "0x" + hex.EncodeToString(buf)

	e.logger.InfoContext(ctx, "simulated settlement transaction",
		logger.Field{Key: "tradeID", Value: req.TradeID},
		logger.Field{Key: "pair", Value: req.Pair},
		logger.Field{Key: "txHash", Value: txHash},
	)

	return txHash, nil
}
