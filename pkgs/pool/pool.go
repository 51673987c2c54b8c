// Package pool groups competing assertion variants into boolean proposition
// pools and computes the stake-weighted verdict over each pool.
package pool

import (
	"github.com/rlay-project/rlay-client-sub000/pkgs/assertion"
)

// Pool is a non-empty set of assertions that all share the same canonical
// parts, i.e. represent opposing answers to the same claim.
type Pool struct {
	Values []*assertion.Assertion
}

// New creates a pool seeded with one assertion.
func New(a *assertion.Assertion) *Pool {
	return &Pool{Values: []*assertion.Assertion{a}}
}

// CanonicalParts returns the identity key shared by every value in the pool.
func (p *Pool) CanonicalParts() [][]byte {
	return p.Values[0].CanonicalParts()
}

// PartsKey returns the flattened grouping key for the pool.
func (p *Pool) PartsKey() []byte {
	return assertion.PartsKey(p.CanonicalParts())
}

// TryInsert adds the assertion if its canonical parts match the pool's.
// Returns false (and leaves the pool untouched) on a mismatch.
func (p *Pool) TryInsert(a *assertion.Assertion) bool {
	if !p.Values[0].SamePartsAs(a) {
		return false
	}
	p.Values = append(p.Values, a)
	return true
}

// HasPositiveValue reports whether any value carries positive polarity.
func (p *Pool) HasPositiveValue() bool {
	for _, v := range p.Values {
		if v.IsPositive() {
			return true
		}
	}
	return false
}

// HasNegativeValue reports whether any value carries negative polarity.
func (p *Pool) HasNegativeValue() bool {
	for _, v := range p.Values {
		if !v.IsPositive() {
			return true
		}
	}
	return false
}

// Complete ensures the pool holds at least one positive and one negative
// canonical variant, synthesizing the missing polarity from the first value.
// A completed pool always has at least two values.
func (p *Pool) Complete() {
	if !p.HasPositiveValue() {
		missing := p.Values[0].Canonical()
		if !missing.IsPositive() {
			missing = missing.CanonicalOpposite()
		}
		p.Values = append(p.Values, missing)
	}
	if !p.HasNegativeValue() {
		missing := p.Values[0].Canonical()
		if missing.IsPositive() {
			missing = missing.CanonicalOpposite()
		}
		p.Values = append(p.Values, missing)
	}
}

// Detect groups assertions by canonical parts. Each group becomes one pool;
// iteration order of the result is unspecified.
func Detect(assertions []*assertion.Assertion) []*Pool {
	byKey := make(map[string]*Pool)
	var pools []*Pool
	for _, a := range assertions {
		key := string(assertion.PartsKey(a.CanonicalParts()))
		if existing, ok := byKey[key]; ok {
			existing.TryInsert(a)
			continue
		}
		p := New(a)
		byKey[key] = p
		pools = append(pools, p)
	}
	return pools
}
