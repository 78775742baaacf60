package marzban

// State records whether a resource is known to exist on the panel.
//
// The zero value is transient: the next Save creates the resource. A
// persisted state always carries the identifier the panel knows the resource
// by, and only this package can produce one.
type State[K comparable] struct {
	id        K
	persisted bool
}

// Persisted reports whether the resource is known to exist on the panel
func (s State[K]) Persisted() bool {
	return s.persisted
}

// ID returns the panel identifier of a persisted resource
func (s State[K]) ID() (K, bool) {
	return s.id, s.persisted
}

func persistedAs[K comparable](id K) State[K] {
	return State[K]{id: id, persisted: true}
}

func transient[K comparable]() State[K] {
	return State[K]{}
}
