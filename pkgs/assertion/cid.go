package assertion

import (
	"bytes"

	"github.com/ethereum/go-ethereum/crypto"
)

// CIDFunc computes the content hash of an assertion. The production hash is
// decided at the boundary; everything in the engine that needs to match a
// proposition against a pool value takes a CIDFunc so it can be swapped.
type CIDFunc func(*Assertion) ([]byte, error)

// CID is the default content hash: Keccak-256 over the kind byte followed by
// the length-prefixed identity fields and annotations. Deterministic for a
// given assertion and distinct across polarities.
func CID(a *Assertion) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(a.Kind))
	for _, p := range a.CanonicalParts() {
		writeLenPrefixed(&buf, p)
	}
	for _, ann := range a.Annotations {
		writeLenPrefixed(&buf, ann)
	}
	return crypto.Keccak256(buf.Bytes()), nil
}
