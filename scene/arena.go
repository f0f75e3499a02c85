// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package scene

import "errors"

// ErrStaleHandle is returned for a handle whose slot was removed or reused.
var ErrStaleHandle = errors.New("stale arena handle")

// Handle addresses a value in an Arena. The zero Handle is never valid.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h was never issued.
func (h Handle) IsZero() bool {
	return h.generation == 0
}

type slot[T any] struct {
	value      T
	generation uint32
	live       bool
}

// Arena stores values addressed by generation checked handles. Removed
// slots are reused; handles to them go stale.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	len   int
}

// Insert stores value and returns its handle.
func (a *Arena[T]) Insert(value T) Handle {
	var index uint32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		index = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{})
	}

	s := &a.slots[index]
	s.generation++
	s.value = value
	s.live = true
	a.len++
	return Handle{index: index, generation: s.generation}
}

func (a *Arena[T]) lookup(h Handle) (*slot[T], error) {
	if int(h.index) >= len(a.slots) {
		return nil, ErrStaleHandle
	}
	s := &a.slots[h.index]
	if !s.live || s.generation != h.generation {
		return nil, ErrStaleHandle
	}
	return s, nil
}

// Get returns a copy of the value.
func (a *Arena[T]) Get(h Handle) (T, error) {
	s, err := a.lookup(h)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.value, nil
}

// Update edits the value in place.
func (a *Arena[T]) Update(h Handle, fn func(*T)) error {
	s, err := a.lookup(h)
	if err != nil {
		return err
	}
	fn(&s.value)
	return nil
}

// Remove frees the slot and returns the value it held.
func (a *Arena[T]) Remove(h Handle) (T, error) {
	s, err := a.lookup(h)
	if err != nil {
		var zero T
		return zero, err
	}
	value := s.value
	var zero T
	s.value = zero
	s.live = false
	a.free = append(a.free, h.index)
	a.len--
	return value, nil
}

// Len is the number of live values.
func (a *Arena[T]) Len() int {
	return a.len
}

// Each calls fn for every live value in slot order.
func (a *Arena[T]) Each(fn func(Handle, *T)) {
	for i := range a.slots {
		s := &a.slots[i]
		if s.live {
			fn(Handle{index: uint32(i), generation: s.generation}, &s.value)
		}
	}
}
