package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	snapshotv1 "github.com/gustavoparedes1978/Crypto-trading-project/internal/domain/snapshot/v1"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/errors"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/logger"
	"github.com/gustavoparedes1978/Crypto-trading-project/pkg/redis"
)

const keyPrefix = "snapshot:"

// Store persists order book snapshots in Redis, one key per pair.
type Store struct {
	logger      logger.Interface
	redisclient redis.Client
}

// NewStore creates a new snapshot store backed by the given Redis client.
func NewStore(redisclient redis.Client, log logger.Interface) *Store {
	return &Store{
		redisclient: redisclient,
		logger:      log,
	}
}

// Store serializes the snapshot and writes it under the pair's key.
func (s *Store) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	buf, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "pair",
			Value: snapshot.Pair,
		})
		return errors.NewTracer("snapshot_marshal_error").Wrap(err)
	}

	err = s.redisclient.Set(ctx, keyPrefix+snapshot.Pair, buf, 0)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "pair",
			Value: snapshot.Pair,
		})
		return errors.NewTracer("snapshot_store_error").Wrap(err)
	}

	s.logger.InfoContext(ctx, fmt.Sprintf("Snapshot stored for pair %s", snapshot.Pair), logger.Field{
		Key:   "pair",
		Value: snapshot.Pair,
	}, logger.Field{
		Key:   "offset",
		Value: snapshot.OrderOffset,
	})
	return nil
}

// Load reads the snapshot for the given pair. It returns (nil, nil) when no
// snapshot exists yet.
func (s *Store) Load(ctx context.Context, pair string) (*snapshotv1.Snapshot, error) {
	data, err := s.redisclient.Get(ctx, keyPrefix+pair)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "pair",
			Value: pair,
		}, logger.Field{
			Key:   "action",
			Value: "load snapshot",
		})
		return nil, errors.NewTracer("snapshot_load_error").Wrap(err)
	}

	if data == "" {
		s.logger.WarnContext(ctx, fmt.Sprintf("No snapshot found for pair %s", pair), logger.Field{
			Key:   "pair",
			Value: pair,
		})
		return nil, nil
	}

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "pair",
			Value: pair,
		}, logger.Field{
			Key:   "action",
			Value: "unmarshal snapshot",
		})
		return nil, errors.NewTracer("snapshot_unmarshal_error").Wrap(err)
	}

	return &snapshot, nil
}
