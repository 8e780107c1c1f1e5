// Package sets provides small generic sets used for workspace membership.
package sets

// Set is a hash set for comparable keys.
type Set[T comparable] map[T]struct{}

// New creates a set pre-populated with the provided values.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has returns true if v is present.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Ordered is a set that remembers insertion order; the first occurrence of a
// value fixes its position. The zero value is ready to use.
type Ordered[T comparable] struct {
	seen  Set[T]
	items []T
}

// NewOrdered returns an ordered set holding vals with duplicates dropped.
func NewOrdered[T comparable](vals ...T) *Ordered[T] {
	o := &Ordered[T]{}
	for _, v := range vals {
		o.Add(v)
	}
	return o
}

// Add appends v unless already present and reports whether it was added.
func (o *Ordered[T]) Add(v T) bool {
	if o.seen == nil {
		o.seen = New[T]()
	}
	if o.seen.Has(v) {
		return false
	}
	o.seen.Add(v)
	o.items = append(o.items, v)
	return true
}

func (o *Ordered[T]) Has(v T) bool { return o.seen.Has(v) }

func (o *Ordered[T]) Len() int { return len(o.items) }

// Items returns a copy of the elements in insertion order.
func (o *Ordered[T]) Items() []T {
	out := make([]T, len(o.items))
	copy(out, o.items)
	return out
}
