// Package sparse provides a sparse set of small non-negative integers with
// O(1) insert/remove/contains, used by the compiler's length-walk (spec
// §4.4) to track which block offsets are already on the current recursion
// path without the allocation and hashing overhead of a map[int]bool.
package sparse

// Set is a set of uint32 values in [0, capacity) that supports O(1)
// operations by pairing a dense array (for iteration) with a sparse array
// (for membership testing) the sparse array maps a value to its index in
// dense; a slot is only meaningful when that round-trip also lands back on
// the original value, so a freshly allocated (non-zeroed) sparse array never
// produces a false positive.
type Set struct {
	sparse []uint32
	dense  []uint32
	size   uint32
}

// NewSet returns a Set whose values must stay within [0, capacity).
func NewSet(capacity uint32) *Set {
	return &Set{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds value to the set, reporting whether it was newly added.
// Panics if value >= capacity.
func (s *Set) Insert(value uint32) bool {
	if s.Contains(value) {
		return false
	}
	s.dense = append(s.dense, value)
	s.sparse[value] = s.size
	s.size++
	return true
}

// Contains reports whether value is in the set.
func (s *Set) Contains(value uint32) bool {
	if value >= uint32(len(s.sparse)) {
		return false
	}
	idx := s.sparse[value]
	return idx < s.size && s.dense[idx] == value
}

// Remove deletes value from the set; a no-op if it wasn't present.
func (s *Set) Remove(value uint32) {
	if !s.Contains(value) {
		return
	}
	idx := s.sparse[value]
	last := s.dense[s.size-1]
	s.dense[idx] = last
	s.sparse[last] = idx
	s.size--
	s.dense = s.dense[:s.size]
}

// Clear empties the set without releasing its backing arrays.
func (s *Set) Clear() {
	s.size = 0
	s.dense = s.dense[:0]
}

// Len returns the number of elements currently in the set.
func (s *Set) Len() int { return int(s.size) }

// Values returns the set's elements in insertion order (modulo Remove's
// swap-with-last); the returned slice is valid until the next mutation.
func (s *Set) Values() []uint32 { return s.dense[:s.size] }
