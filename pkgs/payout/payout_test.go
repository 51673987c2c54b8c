package payout

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func addr(b byte) common.Address {
	return common.BytesToAddress([]byte{b})
}

func pay(b byte, amount int64) *Payout {
	return &Payout{Address: addr(b), Amount: big.NewInt(amount)}
}

func sumAmounts(payouts []*Payout) *big.Int {
	total := new(big.Int)
	for _, p := range payouts {
		total.Add(total, p.Amount)
	}
	return total
}

func TestCompactMergesByAddress(t *testing.T) {
	compacted := Compact([]*Payout{pay(0x0a, 5), pay(0x0b, 3), pay(0x0a, 2)})
	require.Len(t, compacted, 2)

	byAddr := make(map[common.Address]*big.Int)
	for _, p := range compacted {
		byAddr[p.Address] = p.Amount
	}
	require.Equal(t, big.NewInt(7), byAddr[addr(0x0a)])
	require.Equal(t, big.NewInt(3), byAddr[addr(0x0b)])
}

func TestCompactIsIdempotentAndPreservesSum(t *testing.T) {
	input := []*Payout{pay(0x01, 10), pay(0x02, 20), pay(0x01, 30), pay(0x03, 5), pay(0x02, 1)}
	once := Compact(input)
	twice := Compact(once)

	require.Equal(t, once, twice)
	require.Equal(t, sumAmounts(input), sumAmounts(once))
}

func TestCompactIsOrderIndependent(t *testing.T) {
	forward := Compact([]*Payout{pay(0x01, 1), pay(0x02, 2), pay(0x01, 3)})
	backward := Compact([]*Payout{pay(0x01, 3), pay(0x02, 2), pay(0x01, 1)})
	require.Equal(t, forward, backward)
}

func TestPayoutJSONRoundTrip(t *testing.T) {
	original := pay(0xaa, 12345)
	data, err := original.MarshalJSON()
	require.NoError(t, err)
	require.Contains(t, string(data), `"amount":"12345"`)

	var decoded Payout
	require.NoError(t, decoded.UnmarshalJSON(data))
	require.Equal(t, original.Address, decoded.Address)
	require.Equal(t, original.Amount, decoded.Amount)
}

func TestPayoutJSONRejectsGarbage(t *testing.T) {
	var p Payout
	require.Error(t, p.UnmarshalJSON([]byte(`{"address":"not-an-address","amount":"1"}`)))
	require.Error(t, p.UnmarshalJSON([]byte(`{"address":"0x00000000000000000000000000000000000000aa","amount":"1.5"}`)))
}
