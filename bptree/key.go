package bptree

import "golang.org/x/exp/constraints"

// Ordered is the total order every key and index-value type in a Tree
// must supply. CompareTo follows the standard comparator convention:
// negative if the receiver sorts before other, zero if equal, positive if
// after.
type Ordered[T any] interface {
	CompareTo(other T) int
}

// Scalar adapts any built-in ordered scalar type (the constraints.Ordered
// set: integers, floats, strings) into an Ordered[Scalar[T]], for trees
// keyed or indexed by a plain number. Only use it with a genuinely
// fixed-width T (its byte image is taken via encoding/binary, so strings
// are not actually usable here despite satisfying constraints.Ordered --
// use FixedString for textual keys instead).
type Scalar[T constraints.Ordered] struct {
	Value T
}

// CompareTo implements Ordered[Scalar[T]].
func (s Scalar[T]) CompareTo(other Scalar[T]) int {
	switch {
	case s.Value < other.Value:
		return -1
	case s.Value > other.Value:
		return 1
	default:
		return 0
	}
}

// FixedString24 is the "fixed-width byte array, zero-padded, compared as
// C string" key type spec.md §1 names as an external collaborator the
// engine only needs to treat as an opaque ordered, fixed-size value. 24
// bytes comfortably holds a station or train identifier.
type FixedString24 [24]byte

// NewFixedString24 zero-pads s into a FixedString24, truncating if s is
// longer than the capacity.
func NewFixedString24(s string) FixedString24 {
	var out FixedString24
	copy(out[:], s)
	return out
}

// String returns the value up to its first zero byte.
func (f FixedString24) String() string {
	for i, b := range f {
		if b == 0 {
			return string(f[:i])
		}
	}
	return string(f[:])
}

// CompareTo compares byte-for-byte, matching C string comparison
// semantics (memcmp up to the shared length, zero bytes included, since
// both sides are the same fixed width).
func (f FixedString24) CompareTo(other FixedString24) int {
	for i := range f {
		if f[i] != other[i] {
			if f[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
