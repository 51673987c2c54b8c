package payout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/rlay-project/rlay-client-sub000/pkgs/rediskeys"
)

// Mirror copies computed epoch payouts into Redis so external readers (the
// RPC layer, dashboards) can serve payout queries without touching the
// engine's in-process caches. Mirroring is optional; a nil Mirror is a no-op.
type Mirror struct {
	client *redis.Client
	keys   *rediskeys.KeyBuilder
}

// NewMirror wires a Redis client and key namespace.
func NewMirror(client *redis.Client, keys *rediskeys.KeyBuilder) *Mirror {
	return &Mirror{client: client, keys: keys}
}

// MirrorEpochs writes each cached epoch under its key with SetNX, matching
// the write-once contract of the in-process cache. The cumulative flag
// selects the key namespace.
func (m *Mirror) MirrorEpochs(ctx context.Context, epochs *Epochs, cumulative bool) error {
	if m == nil {
		return nil
	}
	for _, epoch := range epochs.EpochNumbers() {
		payouts, _ := epochs.Get(epoch)
		data, err := json.Marshal(payouts)
		if err != nil {
			return fmt.Errorf("marshal epoch %d payouts: %w", epoch, err)
		}
		key := m.keys.PayoutEpoch(epoch)
		if cumulative {
			key = m.keys.CumulativePayoutEpoch(epoch)
		}
		created, err := m.client.SetNX(ctx, key, data, 0).Result()
		if err != nil {
			return fmt.Errorf("mirror epoch %d: %w", epoch, err)
		}
		if created {
			log.WithFields(log.Fields{
				"epoch":      epoch,
				"cumulative": cumulative,
			}).Debug("Mirrored epoch payouts to Redis")
		}
	}
	return nil
}

// MirrorHighwatermark records the last synced ledger block.
func (m *Mirror) MirrorHighwatermark(ctx context.Context, block uint64) error {
	if m == nil {
		return nil
	}
	return m.client.Set(ctx, m.keys.LedgerHighwatermark(), block, 0).Err()
}
