package crud

// FieldState is the lifecycle of an optimistically updated field
type FieldState int

const (
	// Settled: the value is confirmed by the backend
	Settled FieldState = iota
	// Pending: the new value is shown while the update is in flight
	Pending
	// Reverted: the backend rejected the update and the previous value is back
	Reverted
)

func (s FieldState) String() string {
	switch s {
	case Settled:
		return "settled"
	case Pending:
		return "pending"
	case Reverted:
		return "reverted"
	}
	return "unknown"
}

// Optimistic tracks settled -> pending(previous) -> settled | reverted for one field
type Optimistic[V comparable] struct {
	state    FieldState
	previous V
	value    V
}

// Begin starts a pending transition from prev to next
func Begin[V comparable](prev, next V) *Optimistic[V] {
	return &Optimistic[V]{state: Pending, previous: prev, value: next}
}

// State returns the current state
func (o Optimistic[V]) State() FieldState { return o.state }

// Value returns the value currently shown
func (o Optimistic[V]) Value() V { return o.value }

// Previous returns the value before the transition began
func (o Optimistic[V]) Previous() V { return o.previous }

// Commit settles on the new value
func (o *Optimistic[V]) Commit() V {
	o.state = Settled
	return o.value
}

// Revert restores the previous value
func (o *Optimistic[V]) Revert() V {
	o.state = Reverted
	o.value = o.previous
	return o.value
}
