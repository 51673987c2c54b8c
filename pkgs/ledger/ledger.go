// Package ledger holds the append-only stream of on-chain stakes and the
// block high-watermark the sync collaborator advances. Both structures are
// shared mutable state with one mutex each; when an operation needs both, the
// high-watermark lock is taken before the ledger lock.
package ledger

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Proposition is one ledger-recorded stake of Amount tokens by Sender backing
// the assertion whose content hash is PropositionCID, observed at
// BlockNumber. Immutable once appended.
type Proposition struct {
	PropositionCID []byte
	Amount         *big.Int
	Sender         common.Address
	BlockNumber    uint64
}

// Ledger is the append-only stake collection, ordered by arrival. Arrival
// order is not necessarily block order.
type Ledger struct {
	mu    sync.Mutex
	props []*Proposition
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append records one stake.
func (l *Ledger) Append(p *Proposition) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.props = append(l.props, p)
}

// Snapshot returns a copy of the current contents. Proposition values are
// immutable, so sharing the pointers is safe.
func (l *Ledger) Snapshot() []*Proposition {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Proposition, len(l.props))
	copy(out, l.props)
	return out
}

// Len returns the number of recorded stakes.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.props)
}

// Highwatermark tracks the highest ledger block observed by the sync
// collaborator.
type Highwatermark struct {
	mu    sync.Mutex
	block uint64
}

// NewHighwatermark returns a watermark at block zero.
func NewHighwatermark() *Highwatermark {
	return &Highwatermark{}
}

// Advance raises the watermark to block. Lower values are ignored so the
// watermark is monotonic.
func (h *Highwatermark) Advance(block uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if block > h.block {
		h.block = block
	}
}

// Load returns the current watermark.
func (h *Highwatermark) Load() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.block
}
