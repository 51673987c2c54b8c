package pool

import (
	"encoding/hex"
	"math/big"

	"github.com/rlay-project/rlay-client-sub000/pkgs/assertion"
	"github.com/rlay-project/rlay-client-sub000/pkgs/ledger"
)

// Valued is a completed pool plus the stakes whose proposition CID matches
// one of the pool's values.
type Valued struct {
	Pool         *Pool
	Propositions []*ledger.Proposition

	// valueByCID maps a value's content hash to the value itself, so a
	// stake's referenced polarity can be resolved without rehashing.
	valueByCID map[string]*assertion.Assertion
}

// DetectValued runs pool detection, completes every pool, and attaches each
// proposition to the pool containing the value it stakes. Propositions are
// indexed by CID once, so matching is linear in pools plus propositions.
func DetectValued(assertions []*assertion.Assertion, props []*ledger.Proposition, cid assertion.CIDFunc) ([]*Valued, error) {
	pools := Detect(assertions)

	propsByCID := make(map[string][]*ledger.Proposition, len(props))
	for _, p := range props {
		key := hex.EncodeToString(p.PropositionCID)
		propsByCID[key] = append(propsByCID[key], p)
	}

	valued := make([]*Valued, 0, len(pools))
	for _, p := range pools {
		p.Complete()
		v := &Valued{
			Pool:       p,
			valueByCID: make(map[string]*assertion.Assertion, len(p.Values)),
		}
		for _, value := range p.Values {
			c, err := cid(value)
			if err != nil {
				return nil, err
			}
			key := hex.EncodeToString(c)
			v.valueByCID[key] = value
			v.Propositions = append(v.Propositions, propsByCID[key]...)
		}
		valued = append(valued, v)
	}
	return valued, nil
}

// TotalWeight is the sum of all attached stake amounts.
func (v *Valued) TotalWeight() *big.Int {
	total := new(big.Int)
	for _, p := range v.Propositions {
		total.Add(total, p.Amount)
	}
	return total
}

var weightMask = new(big.Int).SetUint64(1<<32 - 1)

// polarityWeights sums stake amounts per polarity. Amounts are truncated to
// their low 32 bits before weighting; this matches the deployed contracts and
// silently loses precision for stakes above 2^32 (known limitation, kept
// until the contract side is revisited).
func (v *Valued) polarityWeights() (positive, negative uint64) {
	for _, p := range v.Propositions {
		value, ok := v.valueByCID[hex.EncodeToString(p.PropositionCID)]
		if !ok {
			continue
		}
		w := new(big.Int).And(p.Amount, weightMask).Uint64()
		if value.IsPositive() {
			positive += w
		} else {
			negative += w
		}
	}
	return positive, negative
}

// AggregatedValue computes the weighted median over the boolean domain
// {false=0, true=1} with polarity stake sums as weights. The second return is
// false when no stake is attached, in which case the pool has no verdict and
// contributes no rewards.
func (v *Valued) AggregatedValue() (bool, bool) {
	positive, negative := v.polarityWeights()
	if positive == 0 && negative == 0 {
		return false, false
	}
	// Weighted median of a two-point distribution: false wins when its
	// cumulative weight reaches half the total, ties included.
	return positive > negative, true
}

// IsAggregatedValue reports whether the stake references the value matching
// the pool's verdict.
func (v *Valued) IsAggregatedValue(p *ledger.Proposition) bool {
	verdict, ok := v.AggregatedValue()
	if !ok {
		return false
	}
	value, ok := v.valueByCID[hex.EncodeToString(p.PropositionCID)]
	if !ok {
		return false
	}
	return value.IsPositive() == verdict
}
