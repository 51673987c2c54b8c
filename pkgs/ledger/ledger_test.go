package ledger

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestLedgerPreservesArrivalOrder(t *testing.T) {
	l := NewLedger()
	l.Append(&Proposition{PropositionCID: []byte{1}, Amount: big.NewInt(1), BlockNumber: 9})
	l.Append(&Proposition{PropositionCID: []byte{2}, Amount: big.NewInt(2), BlockNumber: 3})

	snapshot := l.Snapshot()
	require.Len(t, snapshot, 2)
	require.Equal(t, uint64(9), snapshot[0].BlockNumber)
	require.Equal(t, uint64(3), snapshot[1].BlockNumber)
}

func TestSnapshotIsACopy(t *testing.T) {
	l := NewLedger()
	l.Append(&Proposition{PropositionCID: []byte{1}, Amount: big.NewInt(1), Sender: common.BytesToAddress([]byte{0x01})})

	snapshot := l.Snapshot()
	l.Append(&Proposition{PropositionCID: []byte{2}, Amount: big.NewInt(2)})
	require.Len(t, snapshot, 1)
	require.Equal(t, 2, l.Len())
}

func TestHighwatermarkIsMonotonic(t *testing.T) {
	h := NewHighwatermark()
	require.Equal(t, uint64(0), h.Load())

	h.Advance(10)
	require.Equal(t, uint64(10), h.Load())

	h.Advance(5)
	require.Equal(t, uint64(10), h.Load())

	h.Advance(11)
	require.Equal(t, uint64(11), h.Load())
}
