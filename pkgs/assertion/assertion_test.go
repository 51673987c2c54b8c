package assertion

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func classAssertion() *Assertion {
	return &Assertion{
		Kind:        KindClassAssertion,
		Subject:     []byte("subject-cid"),
		Class:       []byte("class-cid"),
		Annotations: [][]byte{[]byte("annotation-cid")},
	}
}

func dataPropertyAssertion() *Assertion {
	return &Assertion{
		Kind:     KindNegativeDataPropertyAssertion,
		Subject:  []byte("subject-cid"),
		Property: []byte("property-cid"),
		Target:   []byte("target-value"),
	}
}

func TestOppositeIsInvolutive(t *testing.T) {
	for _, a := range []*Assertion{classAssertion(), dataPropertyAssertion()} {
		roundTrip := a.CanonicalOpposite().CanonicalOpposite()
		require.Equal(t, a.Kind, roundTrip.Kind)
		require.Equal(t, a.IsPositive(), roundTrip.IsPositive())
		require.Equal(t, PartsKey(a.CanonicalParts()), PartsKey(roundTrip.CanonicalParts()))
	}
}

func TestCanonicalDropsAnnotations(t *testing.T) {
	a := classAssertion()
	c := a.Canonical()
	require.Empty(t, c.Annotations)
	require.Equal(t, a.Kind, c.Kind)
	require.True(t, a.SamePartsAs(c))
}

func TestOppositeFlipsPolarityOnly(t *testing.T) {
	a := classAssertion()
	opp := a.CanonicalOpposite()
	require.True(t, a.IsPositive())
	require.False(t, opp.IsPositive())
	require.True(t, a.SamePartsAs(opp))
}

func TestPartsKeyDistinguishesBoundaries(t *testing.T) {
	a := &Assertion{Kind: KindClassAssertion, Subject: []byte("ab"), Class: []byte("c")}
	b := &Assertion{Kind: KindClassAssertion, Subject: []byte("a"), Class: []byte("bc")}
	require.NotEqual(t, PartsKey(a.CanonicalParts()), PartsKey(b.CanonicalParts()))
}

func TestCIDDistinctAcrossPolarity(t *testing.T) {
	a := classAssertion().Canonical()
	opp := a.CanonicalOpposite()

	cidA, err := CID(a)
	require.NoError(t, err)
	cidOpp, err := CID(opp)
	require.NoError(t, err)
	require.NotEqual(t, cidA, cidOpp)

	// Annotations change the CID but not the canonical parts.
	annotated := classAssertion()
	cidAnnotated, err := CID(annotated)
	require.NoError(t, err)
	require.NotEqual(t, cidA, cidAnnotated)
	require.True(t, a.SamePartsAs(annotated))
}

func TestGetTarget(t *testing.T) {
	require.Equal(t, []byte("class-cid"), classAssertion().GetTarget())
	require.Equal(t, []byte("target-value"), dataPropertyAssertion().GetTarget())
}
