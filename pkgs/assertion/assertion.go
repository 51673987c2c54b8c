// Package assertion models the six boolean assertion kinds and their
// canonical (annotation-free) forms. The canonical parts of an assertion are
// its grouping key: two assertions with equal canonical parts are opposing or
// identical answers to the same claim, regardless of polarity or annotations.
package assertion

import (
	"bytes"
	"fmt"
)

// Kind identifies one of the six boolean assertion variants.
type Kind uint8

const (
	KindClassAssertion Kind = iota
	KindNegativeClassAssertion
	KindDataPropertyAssertion
	KindNegativeDataPropertyAssertion
	KindObjectPropertyAssertion
	KindNegativeObjectPropertyAssertion
)

// String returns the on-wire entity kind name.
func (k Kind) String() string {
	switch k {
	case KindClassAssertion:
		return "ClassAssertion"
	case KindNegativeClassAssertion:
		return "NegativeClassAssertion"
	case KindDataPropertyAssertion:
		return "DataPropertyAssertion"
	case KindNegativeDataPropertyAssertion:
		return "NegativeDataPropertyAssertion"
	case KindObjectPropertyAssertion:
		return "ObjectPropertyAssertion"
	case KindNegativeObjectPropertyAssertion:
		return "NegativeObjectPropertyAssertion"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsPositive reports whether the kind carries positive polarity.
func (k Kind) IsPositive() bool {
	switch k {
	case KindClassAssertion, KindDataPropertyAssertion, KindObjectPropertyAssertion:
		return true
	default:
		return false
	}
}

// Opposite returns the same-shape kind with inverted polarity.
func (k Kind) Opposite() Kind {
	switch k {
	case KindClassAssertion:
		return KindNegativeClassAssertion
	case KindNegativeClassAssertion:
		return KindClassAssertion
	case KindDataPropertyAssertion:
		return KindNegativeDataPropertyAssertion
	case KindNegativeDataPropertyAssertion:
		return KindDataPropertyAssertion
	case KindObjectPropertyAssertion:
		return KindNegativeObjectPropertyAssertion
	case KindNegativeObjectPropertyAssertion:
		return KindObjectPropertyAssertion
	default:
		return k
	}
}

// Assertion is one boolean claim about an ontology entity. Which fields are
// populated depends on Kind: class kinds use Subject+Class, data and object
// property kinds use Subject+Property+Target. All references are entity CIDs.
// Assertions are immutable once constructed.
type Assertion struct {
	Kind        Kind
	Subject     []byte
	Class       []byte
	Property    []byte
	Target      []byte
	Annotations [][]byte
}

// IsPositive reports the assertion's polarity.
func (a *Assertion) IsPositive() bool {
	return a.Kind.IsPositive()
}

// GetSubject returns the subject CID reference.
func (a *Assertion) GetSubject() []byte {
	return a.Subject
}

// GetTarget returns the target reference for data and object property kinds,
// or the class reference for class kinds.
func (a *Assertion) GetTarget() []byte {
	switch a.Kind {
	case KindClassAssertion, KindNegativeClassAssertion:
		return a.Class
	default:
		return a.Target
	}
}

// CanonicalParts returns the ordered identity-bearing byte fields of the
// assertion, excluding polarity and annotations. Assertions with equal
// canonical parts belong to the same pool.
func (a *Assertion) CanonicalParts() [][]byte {
	switch a.Kind {
	case KindClassAssertion, KindNegativeClassAssertion:
		return [][]byte{a.Subject, a.Class}
	default:
		return [][]byte{a.Subject, a.Property, a.Target}
	}
}

// Canonical returns a copy with only identity fields populated.
func (a *Assertion) Canonical() *Assertion {
	return &Assertion{
		Kind:     a.Kind,
		Subject:  a.Subject,
		Class:    a.Class,
		Property: a.Property,
		Target:   a.Target,
	}
}

// CanonicalOpposite returns the canonical form re-wrapped in the
// opposite-polarity kind.
func (a *Assertion) CanonicalOpposite() *Assertion {
	opp := a.Canonical()
	opp.Kind = a.Kind.Opposite()
	return opp
}

// SamePartsAs reports whether two assertions share canonical parts.
func (a *Assertion) SamePartsAs(other *Assertion) bool {
	return bytes.Equal(PartsKey(a.CanonicalParts()), PartsKey(other.CanonicalParts()))
}

// PartsKey flattens canonical parts into a single byte key suitable for map
// grouping. Each part is length-prefixed so that part boundaries cannot be
// confused across assertions.
func PartsKey(parts [][]byte) []byte {
	var buf bytes.Buffer
	for _, p := range parts {
		writeLenPrefixed(&buf, p)
	}
	return buf.Bytes()
}

func writeLenPrefixed(buf *bytes.Buffer, b []byte) {
	n := len(b)
	buf.Write([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
	buf.Write(b)
}
