// Package merkle builds the Keccak-256 commitment over an epoch's payout
// list and produces inclusion proofs for redemption. Sibling hashes are
// sorted byte-lexicographically before each node hash, so a verifier needs
// only the sibling hash at each step, never left/right position.
package merkle

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rlay-project/rlay-client-sub000/pkgs/payout"
)

// ErrPayoutNotFound is returned when a proof is requested for a payout that
// is not among the tree's leaves.
var ErrPayoutNotFound = errors.New("payout not found in merkle tree")

// Tree is a binary Merkle tree over a payout list. levels[0] holds the leaf
// hashes; the last level holds the single root.
type Tree struct {
	levels [][][]byte
}

// LeafHash serializes a payout as the 20-byte address concatenated with the
// amount as a 32-byte big-endian integer, and hashes it with Keccak-256.
func LeafHash(p *payout.Payout) []byte {
	var amount [32]byte
	p.Amount.FillBytes(amount[:])
	return crypto.Keccak256(p.Address.Bytes(), amount[:])
}

func nodeHash(a, b []byte) []byte {
	if bytes.Compare(a, b) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256(a, b)
}

// BuildPayoutTree builds the commitment over a payout list. A single-entry
// list is padded with one zero-address, zero-amount payout so the tree always
// has at least two leaves. An empty list is an error.
func BuildPayoutTree(payouts []*payout.Payout) (*Tree, error) {
	if len(payouts) == 0 {
		return nil, errors.New("cannot build merkle tree over empty payout list")
	}
	if len(payouts) == 1 {
		// Pad into a fresh slice so the caller's backing array is never
		// written to.
		payouts = []*payout.Payout{payouts[0], {
			Address: common.Address{},
			Amount:  new(big.Int),
		}}
	}

	leaves := make([][]byte, len(payouts))
	for i, p := range payouts {
		leaves[i] = LeafHash(p)
	}

	levels := [][][]byte{leaves}
	for level := leaves; len(level) > 1; {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			next = append(next, nodeHash(level[i], level[i+1]))
		}
		if len(level)%2 == 1 {
			// Odd node is promoted unchanged to the next level.
			next = append(next, level[len(level)-1])
		}
		levels = append(levels, next)
		level = next
	}
	return &Tree{levels: levels}, nil
}

// Root returns the root hash.
func (t *Tree) Root() []byte {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Root32 returns the root as a fixed 32-byte array for contract calls.
func (t *Tree) Root32() [32]byte {
	var root [32]byte
	copy(root[:], t.Root())
	return root
}

// LeafCount returns the number of leaves, padding included.
func (t *Tree) LeafCount() int {
	return len(t.levels[0])
}

// Proof is the inclusion lemma for one leaf: the leaf hash, the ordered
// sibling hashes from leaf level to just below the root, and the root.
type Proof struct {
	Leaf     []byte
	Siblings [][]byte
	Root     []byte
}

// ProofFor locates the leaf matching the payout and returns its inclusion
// proof. Returns ErrPayoutNotFound when the payout's leaf hash is not in the
// tree, e.g. after a serialization mismatch.
func (t *Tree) ProofFor(p *payout.Payout) (*Proof, error) {
	target := LeafHash(p)
	index := -1
	for i, leaf := range t.levels[0] {
		if bytes.Equal(leaf, target) {
			index = i
			break
		}
	}
	if index == -1 {
		return nil, fmt.Errorf("%w: address %s", ErrPayoutNotFound, p.Address.Hex())
	}

	proof := &Proof{Leaf: target, Root: t.Root()}
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling < len(level) {
			proof.Siblings = append(proof.Siblings, level[sibling])
		}
		// A promoted odd node has no sibling at this level.
		index /= 2
	}
	return proof, nil
}

// VerifyProof folds the sibling hashes over the leaf with the sorted-pair
// rule and compares against the proof's root.
func VerifyProof(p *Proof) bool {
	hash := p.Leaf
	for _, sibling := range p.Siblings {
		hash = nodeHash(hash, sibling)
	}
	return bytes.Equal(hash, p.Root)
}

// FormatRedeemPayoutCall renders the redeemPayout contract call for a payout:
// function name, epoch, the ordered sibling hashes as 0x-hex, the address,
// and the decimal amount.
func FormatRedeemPayoutCall(epoch uint64, t *Tree, p *payout.Payout) (string, error) {
	proof, err := t.ProofFor(p)
	if err != nil {
		return "", err
	}
	siblings := make([]string, len(proof.Siblings))
	for i, s := range proof.Siblings {
		siblings[i] = hexutil.Encode(s)
	}
	return fmt.Sprintf("redeemPayout(%d, [%s], %s, %s)",
		epoch,
		strings.Join(siblings, ", "),
		p.Address.Hex(),
		p.Amount.String(),
	), nil
}
