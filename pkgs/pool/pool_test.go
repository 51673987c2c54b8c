package pool

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/rlay-project/rlay-client-sub000/pkgs/assertion"
	"github.com/rlay-project/rlay-client-sub000/pkgs/ledger"
)

func subjClassAssertion(subject, class string, positive bool) *assertion.Assertion {
	kind := assertion.KindClassAssertion
	if !positive {
		kind = assertion.KindNegativeClassAssertion
	}
	return &assertion.Assertion{
		Kind:    kind,
		Subject: []byte(subject),
		Class:   []byte(class),
	}
}

func mustCID(t *testing.T, a *assertion.Assertion) []byte {
	t.Helper()
	c, err := assertion.CID(a)
	require.NoError(t, err)
	return c
}

func stake(t *testing.T, a *assertion.Assertion, amount int64, sender byte, block uint64) *ledger.Proposition {
	t.Helper()
	return &ledger.Proposition{
		PropositionCID: mustCID(t, a),
		Amount:         big.NewInt(amount),
		Sender:         common.BytesToAddress([]byte{sender}),
		BlockNumber:    block,
	}
}

func TestTryInsertRejectsMismatchedParts(t *testing.T) {
	p := New(subjClassAssertion("subj", "class", true))
	require.False(t, p.TryInsert(subjClassAssertion("subj", "other-class", false)))
	require.Len(t, p.Values, 1)
	require.True(t, p.TryInsert(subjClassAssertion("subj", "class", false)))
	require.Len(t, p.Values, 2)
}

func TestCompleteSynthesizesMissingPolarity(t *testing.T) {
	for _, positive := range []bool{true, false} {
		p := New(subjClassAssertion("subj", "class", positive))
		p.Complete()
		require.GreaterOrEqual(t, len(p.Values), 2)
		require.True(t, p.HasPositiveValue())
		require.True(t, p.HasNegativeValue())
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	p := New(subjClassAssertion("subj", "class", true))
	p.TryInsert(subjClassAssertion("subj", "class", false))
	p.Complete()
	n := len(p.Values)
	p.Complete()
	require.Len(t, p.Values, n)
}

func TestDetectGroupsByCanonicalParts(t *testing.T) {
	assertions := []*assertion.Assertion{
		subjClassAssertion("a", "x", true),
		subjClassAssertion("a", "x", false),
		subjClassAssertion("b", "x", true),
		{Kind: assertion.KindObjectPropertyAssertion, Subject: []byte("a"), Property: []byte("p"), Target: []byte("t")},
	}
	pools := Detect(assertions)
	require.Len(t, pools, 3)
}

func TestDetectValuedAttachesMatchingStakes(t *testing.T) {
	positive := subjClassAssertion("subj", "class", true)
	negative := subjClassAssertion("subj", "class", false)
	unrelated := subjClassAssertion("other", "class", true)

	props := []*ledger.Proposition{
		stake(t, positive, 100, 0x01, 5),
		stake(t, negative, 10, 0x02, 3),
		stake(t, unrelated, 7, 0x03, 4),
	}

	valued, err := DetectValued([]*assertion.Assertion{positive}, props, assertion.CID)
	require.NoError(t, err)
	require.Len(t, valued, 1)
	// Completion synthesizes the negative variant, so the negative stake
	// attaches even though only the positive assertion was in the entity set.
	require.Len(t, valued[0].Propositions, 2)
	require.Equal(t, big.NewInt(110), valued[0].TotalWeight())
}

func TestAggregatedValueWeightedMedian(t *testing.T) {
	positive := subjClassAssertion("subj", "class", true)
	negative := subjClassAssertion("subj", "class", false)

	cases := []struct {
		name        string
		posAmount   int64
		negAmount   int64
		wantVerdict bool
	}{
		{"positive majority", 100, 10, true},
		{"negative majority", 10, 100, false},
		{"tie resolves to false", 50, 50, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			props := []*ledger.Proposition{
				stake(t, positive, tc.posAmount, 0x01, 5),
				stake(t, negative, tc.negAmount, 0x02, 3),
			}
			valued, err := DetectValued([]*assertion.Assertion{positive, negative}, props, assertion.CID)
			require.NoError(t, err)
			require.Len(t, valued, 1)

			verdict, ok := valued[0].AggregatedValue()
			require.True(t, ok)
			require.Equal(t, tc.wantVerdict, verdict)
		})
	}
}

func TestAggregatedValueAbsentWithoutStake(t *testing.T) {
	valued, err := DetectValued([]*assertion.Assertion{subjClassAssertion("subj", "class", true)}, nil, assertion.CID)
	require.NoError(t, err)
	require.Len(t, valued, 1)

	_, ok := valued[0].AggregatedValue()
	require.False(t, ok)
	require.False(t, valued[0].IsAggregatedValue(stake(t, subjClassAssertion("subj", "class", true), 1, 0x01, 1)))
}

func TestIsAggregatedValue(t *testing.T) {
	positive := subjClassAssertion("subj", "class", true)
	negative := subjClassAssertion("subj", "class", false)

	winning := stake(t, positive, 100, 0x01, 5)
	losing := stake(t, negative, 10, 0x02, 3)

	valued, err := DetectValued([]*assertion.Assertion{positive}, []*ledger.Proposition{winning, losing}, assertion.CID)
	require.NoError(t, err)
	require.Len(t, valued, 1)

	require.True(t, valued[0].IsAggregatedValue(winning))
	require.False(t, valued[0].IsAggregatedValue(losing))
}

func TestPolarityWeightTruncation(t *testing.T) {
	positive := subjClassAssertion("subj", "class", true)
	negative := subjClassAssertion("subj", "class", false)

	// 2^32 truncates to zero weight; the 10-token negative stake wins the
	// median even though the positive side staked more tokens.
	huge := new(big.Int).Lsh(big.NewInt(1), 32)
	props := []*ledger.Proposition{
		{PropositionCID: mustCID(t, positive), Amount: huge, Sender: common.BytesToAddress([]byte{0x01}), BlockNumber: 5},
		stake(t, negative, 10, 0x02, 3),
	}

	valued, err := DetectValued([]*assertion.Assertion{positive, negative}, props, assertion.CID)
	require.NoError(t, err)

	verdict, ok := valued[0].AggregatedValue()
	require.True(t, ok)
	require.False(t, verdict)
}

func TestPolarityWeightTruncationBeyond64Bits(t *testing.T) {
	positive := subjClassAssertion("subj", "class", true)
	negative := subjClassAssertion("subj", "class", false)

	// 2^64 + 10 keeps only its low 32 bits (10) as weight, so the 20-token
	// negative stake wins.
	huge := new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(10))
	props := []*ledger.Proposition{
		{PropositionCID: mustCID(t, positive), Amount: huge, Sender: common.BytesToAddress([]byte{0x01}), BlockNumber: 5},
		stake(t, negative, 20, 0x02, 3),
	}

	valued, err := DetectValued([]*assertion.Assertion{positive, negative}, props, assertion.CID)
	require.NoError(t, err)

	verdict, ok := valued[0].AggregatedValue()
	require.True(t, ok)
	require.False(t, verdict)
}
