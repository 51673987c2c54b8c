// Package ontology holds the shared entity set populated by the ontology
// sync collaborator. The registry is keyed by content hash and guarded by a
// single mutex; the payout engine only ever reads assertions out of it.
package ontology

import (
	"encoding/hex"
	"sync"

	"github.com/rlay-project/rlay-client-sub000/pkgs/assertion"
)

// Entity is any CID-addressable ontology object. Assertions are the only
// entity kind the payout engine computes over; other kinds pass through the
// registry untouched.
type Entity interface {
	EntityKind() string
}

// AssertionEntity wraps an assertion as a registry entity.
type AssertionEntity struct {
	*assertion.Assertion
}

// EntityKind returns the assertion's variant name.
func (e AssertionEntity) EntityKind() string { return e.Assertion.Kind.String() }

// Registry is the CID-keyed shared entity set.
type Registry struct {
	mu       sync.Mutex
	entities map[string]Entity
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]Entity)}
}

// Insert stores an entity under its externally computed CID. Re-inserting the
// same CID overwrites; entities are immutable so the value is identical.
func (r *Registry) Insert(cid []byte, e Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[hex.EncodeToString(cid)] = e
}

// InsertAssertion computes the assertion's CID with the supplied hash and
// stores it.
func (r *Registry) InsertAssertion(a *assertion.Assertion, cid assertion.CIDFunc) error {
	c, err := cid(a)
	if err != nil {
		return err
	}
	r.Insert(c, AssertionEntity{a})
	return nil
}

// Get looks an entity up by CID.
func (r *Registry) Get(cid []byte) (Entity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[hex.EncodeToString(cid)]
	return e, ok
}

// Len returns the number of stored entities.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entities)
}

// Assertions filters the entity set down to assertions. The returned slice is
// a snapshot; iteration order is unspecified.
func (r *Registry) Assertions() []*assertion.Assertion {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*assertion.Assertion
	for _, e := range r.entities {
		if ae, ok := e.(AssertionEntity); ok {
			out = append(out, ae.Assertion)
		}
	}
	return out
}
