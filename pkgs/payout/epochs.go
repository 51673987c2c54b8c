package payout

import (
	"fmt"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/rlay-project/rlay-client-sub000/pkgs/assertion"
	"github.com/rlay-project/rlay-client-sub000/pkgs/ledger"
	"github.com/rlay-project/rlay-client-sub000/pkgs/metrics"
)

// Epochs is a write-once cache of per-epoch payout lists. Two instances are
// kept: one with each epoch's own rewards and one with cumulative totals up
// to and including the epoch. When both are needed together, the own-rewards
// lock is taken before the cumulative lock.
type Epochs struct {
	mu sync.Mutex
	m  map[uint64][]*Payout
}

// NewEpochs returns an empty cache.
func NewEpochs() *Epochs {
	return &Epochs{m: make(map[uint64][]*Payout)}
}

// Get returns the cached payouts for an epoch.
func (e *Epochs) Get(epoch uint64) ([]*Payout, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	payouts, ok := e.m[epoch]
	return payouts, ok
}

// InsertIfAbsent stores the payouts unless the epoch is already cached.
// Returns false when the epoch was already present; an existing epoch is
// never overwritten.
func (e *Epochs) InsertIfAbsent(epoch uint64, payouts []*Payout) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.m[epoch]; ok {
		return false
	}
	e.m[epoch] = payouts
	return true
}

// EpochNumbers returns the cached epoch numbers in ascending order.
func (e *Epochs) EpochNumbers() []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]uint64, 0, len(e.m))
	for epoch := range e.m {
		out = append(out, epoch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of cached epochs.
func (e *Epochs) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.m)
}

// FillEpochPayouts computes and caches every epoch that has fully elapsed at
// the given high-watermark and is not yet cached. Cached epochs are never
// recomputed; the ledger filter makes each epoch's result final once its end
// block has been synced.
func FillEpochPayouts(highwatermark uint64, params CalcParams, led *ledger.Ledger, assertions []*assertion.Assertion, epochs *Epochs, cid assertion.CIDFunc) error {
	completed := params.latestCompletedEpochs(highwatermark)
	if completed == 0 {
		return nil
	}

	var props []*ledger.Proposition
	for epoch := uint64(0); epoch < completed; epoch++ {
		if _, ok := epochs.Get(epoch); ok {
			continue
		}
		if props == nil {
			props = led.Snapshot()
		}
		payouts, err := CalculateEpoch(epoch, params, props, assertions, cid)
		if err != nil {
			return fmt.Errorf("calculate epoch %d: %w", epoch, err)
		}
		epochs.InsertIfAbsent(epoch, payouts)
		metrics.EpochsComputed.WithLabelValues("own").Inc()
		log.WithFields(log.Fields{
			"epoch":   epoch,
			"payouts": len(payouts),
		}).Info("Computed epoch payouts")
	}
	return nil
}

// FillEpochPayoutsCumulative derives cumulative totals from the own-rewards
// cache. Epoch 0's cumulative list is its own payouts; epoch N's is the
// compaction of its own payouts with cumulative N-1, so epochs must be
// processed in ascending order.
func FillEpochPayoutsCumulative(epochs, cumulative *Epochs) error {
	for _, epoch := range epochs.EpochNumbers() {
		if _, ok := cumulative.Get(epoch); ok {
			continue
		}
		own, _ := epochs.Get(epoch)
		if epoch == 0 {
			cumulative.InsertIfAbsent(epoch, Compact(own))
			metrics.EpochsComputed.WithLabelValues("cumulative").Inc()
			continue
		}
		prev, ok := cumulative.Get(epoch - 1)
		if !ok {
			return fmt.Errorf("cumulative payouts for epoch %d not yet computed", epoch-1)
		}
		merged := make([]*Payout, 0, len(own)+len(prev))
		merged = append(merged, own...)
		merged = append(merged, prev...)
		cumulative.InsertIfAbsent(epoch, Compact(merged))
		metrics.EpochsComputed.WithLabelValues("cumulative").Inc()
	}
	return nil
}
