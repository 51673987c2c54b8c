package submitter

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/rlay-project/rlay-client-sub000/pkgs/merkle"
	"github.com/rlay-project/rlay-client-sub000/pkgs/metrics"
	"github.com/rlay-project/rlay-client-sub000/pkgs/payout"
	"github.com/rlay-project/rlay-client-sub000/pkgs/rediskeys"
)

// maxRecentEpochs bounds how many of the newest epochs are considered per
// tick.
const maxRecentEpochs = 10

// treeCacheSize keeps recently built commitment trees around; an epoch's
// cumulative payout list never changes, so its tree never goes stale.
const treeCacheSize = 32

// Decider checks the most recent cumulative epochs against the contract and
// submits any payout root that is not committed yet. Per-epoch failures are
// logged and retried on the next tick; they never block other epochs.
type Decider struct {
	contract   ContractClient
	cumulative *payout.Epochs
	trees      *lru.Cache[uint64, *merkle.Tree]

	// Optional Redis cache of epochs whose roots are known committed, so
	// settled epochs skip the contract query entirely.
	redisClient *redis.Client
	keys        *rediskeys.KeyBuilder
}

// NewDecider wires the decider. redisClient and keys may be nil to disable
// the committed-root cache.
func NewDecider(contract ContractClient, cumulative *payout.Epochs, redisClient *redis.Client, keys *rediskeys.KeyBuilder) (*Decider, error) {
	trees, err := lru.New[uint64, *merkle.Tree](treeCacheSize)
	if err != nil {
		return nil, err
	}
	return &Decider{
		contract:    contract,
		cumulative:  cumulative,
		trees:       trees,
		redisClient: redisClient,
		keys:        keys,
	}, nil
}

// SubmitRecentRoots runs one decision pass over up to the 10 most recent
// cumulative epochs, newest first.
func (d *Decider) SubmitRecentRoots(ctx context.Context) {
	epochs := d.cumulative.EpochNumbers()
	if len(epochs) > maxRecentEpochs {
		epochs = epochs[len(epochs)-maxRecentEpochs:]
	}

	for i := len(epochs) - 1; i >= 0; i-- {
		d.submitEpochRoot(ctx, epochs[i])
	}
}

func (d *Decider) submitEpochRoot(ctx context.Context, epoch uint64) {
	payouts, ok := d.cumulative.Get(epoch)
	if !ok || len(payouts) == 0 {
		return
	}

	if d.rootKnownCommitted(ctx, epoch) {
		return
	}

	existing, err := d.contract.PayoutRoot(ctx, epoch)
	if err != nil {
		metrics.SubmissionErrors.Inc()
		log.WithError(err).WithField("epoch", epoch).Error("Failed to query payout root, will retry next tick")
		return
	}
	if existing != ([32]byte{}) {
		log.WithField("epoch", epoch).Debug("Payout root already committed")
		d.markRootCommitted(ctx, epoch, existing)
		return
	}

	tree, err := d.payoutTree(epoch, payouts)
	if err != nil {
		log.WithError(err).WithField("epoch", epoch).Error("Failed to build payout tree")
		return
	}

	root := tree.Root32()
	if err := d.contract.SubmitPayoutRoot(ctx, epoch, root); err != nil {
		metrics.SubmissionErrors.Inc()
		log.WithError(err).WithField("epoch", epoch).Error("Failed to submit payout root, will retry next tick")
		return
	}

	metrics.RootsSubmitted.Inc()
	log.WithFields(log.Fields{
		"epoch":  epoch,
		"leaves": tree.LeafCount(),
		"issuer": d.contract.Issuer().Hex(),
	}).Info("Submitted payout root")
	d.markRootCommitted(ctx, epoch, root)
}

// payoutTree builds (or reuses) the epoch's commitment tree.
func (d *Decider) payoutTree(epoch uint64, payouts []*payout.Payout) (*merkle.Tree, error) {
	if tree, ok := d.trees.Get(epoch); ok {
		return tree, nil
	}
	tree, err := merkle.BuildPayoutTree(payouts)
	if err != nil {
		return nil, err
	}
	d.trees.Add(epoch, tree)
	return tree, nil
}

func (d *Decider) rootKnownCommitted(ctx context.Context, epoch uint64) bool {
	if d.redisClient == nil || d.keys == nil {
		return false
	}
	exists, err := d.redisClient.Exists(ctx, d.keys.SubmittedRoot(epoch)).Result()
	if err != nil {
		// Cache miss on error; the contract query is authoritative.
		return false
	}
	return exists > 0
}

func (d *Decider) markRootCommitted(ctx context.Context, epoch uint64, root [32]byte) {
	if d.redisClient == nil || d.keys == nil {
		return
	}
	if err := d.redisClient.Set(ctx, d.keys.SubmittedRoot(epoch), root[:], 0).Err(); err != nil {
		log.WithError(err).WithField("epoch", epoch).Warn("Failed to cache committed root")
	}
}
