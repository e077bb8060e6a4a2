package bptree

// Projectable is the optional "id projection" trait from spec.md §3 and
// §9: a value type with a smaller, order-preserving identifier that
// interior nodes can store instead of the full value, widening fan-out
// when the value is a fat record. It stands in for the original's
// has_id_interface trait (original_source/b_plus_tree.hpp
// impl::has_id_interface). The tree does not detect it: New takes the
// projection as an explicit func(V) IDX, such as a Project method value,
// or an identity func when V has no projection.
//
// The projection must be total, deterministic, and order-preserving at
// least within a single key's run of values (spec.md §9).
type Projectable[ID any] interface {
	Project() ID
}

// ReservationSlot is a concrete value type exercising the narrowed-IDX
// path: a seat hold wider than the signed priority rank interior nodes
// actually need to keep same-key holds ordered. Confirmed holds carry a
// positive priority; standby holds carry a negative one, so in the tree's
// ascending order they come before every confirmed hold for the same train.
type ReservationSlot struct {
	SeatNumber uint32
	Priority   int32
}

// Project implements Projectable[Scalar[int32]].
func (r ReservationSlot) Project() Scalar[int32] { return Scalar[int32]{Value: r.Priority} }
