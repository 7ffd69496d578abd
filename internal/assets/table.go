package assets

import "sync"

// Handle refers to a Table slot. The zero Handle is never valid.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h.generation == 0
}

type slot[T any] struct {
	value      T
	generation uint32
	live       bool
}

// Table is an arena of values addressed by generational handles. A handle
// stops resolving once its slot is removed, even if the slot is reused.
type Table[T any] struct {
	mu    sync.RWMutex
	slots []slot[T]
	free  []uint32
	live  int
}

// NewTable creates an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{}
}

// Insert stores v and returns its handle.
func (t *Table[T]) Insert(v T) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.live++
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		s := &t.slots[idx]
		s.value, s.live = v, true
		return Handle{index: idx, generation: s.generation}
	}
	t.slots = append(t.slots, slot[T]{value: v, generation: 1, live: true})
	return Handle{index: uint32(len(t.slots) - 1), generation: 1}
}

// Get returns the value for h.
func (t *Table[T]) Get(h Handle) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var zero T
	s, ok := t.lookup(h)
	if !ok {
		return zero, false
	}
	return s.value, true
}

// Set replaces the value for h.
func (t *Table[T]) Set(h Handle, v T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.lookup(h)
	if !ok {
		return false
	}
	s.value = v
	return true
}

// Remove frees the slot of h.
func (t *Table[T]) Remove(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.lookup(h)
	if !ok {
		return false
	}
	var zero T
	s.value, s.live = zero, false
	s.generation++
	t.free = append(t.free, h.index)
	t.live--
	return true
}

// Len returns the number of live values.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live
}

func (t *Table[T]) lookup(h Handle) (*slot[T], bool) {
	if h.IsZero() || int(h.index) >= len(t.slots) {
		return nil, false
	}
	s := &t.slots[h.index]
	if !s.live || s.generation != h.generation {
		return nil, false
	}
	return s, true
}
