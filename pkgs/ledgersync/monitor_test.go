package ledgersync

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func stakedLog(cid common.Hash, amount *big.Int, sender common.Address, block uint64) types.Log {
	data := make([]byte, 64)
	amount.FillBytes(data[:32])
	copy(data[44:64], sender.Bytes())
	return types.Log{
		Topics:      []common.Hash{propositionStakedSig, cid},
		Data:        data,
		BlockNumber: block,
	}
}

func TestParsePropositionStaked(t *testing.T) {
	cid := common.HexToHash("0xdeadbeef")
	sender := common.BytesToAddress([]byte{0x42})
	amount := big.NewInt(1234)

	prop := parsePropositionStaked(stakedLog(cid, amount, sender, 77))
	require.NotNil(t, prop)
	require.Equal(t, cid.Bytes(), prop.PropositionCID)
	require.Equal(t, amount, prop.Amount)
	require.Equal(t, sender, prop.Sender)
	require.Equal(t, uint64(77), prop.BlockNumber)
}

func TestParseRejectsMalformedLogs(t *testing.T) {
	require.Nil(t, parsePropositionStaked(types.Log{Topics: []common.Hash{propositionStakedSig}}))

	short := stakedLog(common.Hash{}, big.NewInt(1), common.Address{}, 1)
	short.Data = short.Data[:32]
	require.Nil(t, parsePropositionStaked(short))
}
