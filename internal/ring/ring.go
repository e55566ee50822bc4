// Package ring holds the storage behind the channels: a generic ring of
// values and a fixed-stride ring of raw bytes. Neither type is safe for
// concurrent use; the channel's lock guards them.
package ring

import (
	"errors"
	"fmt"
)

var (
	ErrAlloc    = errors.New("ring: cannot allocate storage")
	ErrCapacity = errors.New("ring: capacity must be positive")
	errShrink   = errors.New("ring: new capacity must exceed the current one")
)

// Alloc returns a zeroed slice of n elements, reporting a failed or
// impossible allocation as ErrAlloc instead of panicking.
func Alloc[T any](n int) (s []T, err error) {
	if n <= 0 {
		return nil, ErrCapacity
	}

	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("%w: %v", ErrAlloc, r)
		}
	}()

	return make([]T, n), nil
}

// Ring is a circular FIFO queue over an owned slice.
type Ring[T any] struct {
	slots []T
	head  int // next slot to pop
	tail  int // next slot to push
	count int
}

// New returns an empty ring with room for capacity values.
func New[T any](capacity int) (*Ring[T], error) {
	slots, err := Alloc[T](capacity)

	if err != nil {
		return nil, err
	}

	return &Ring[T]{
		slots: slots,
	}, nil
}

func (r *Ring[T]) Len() int {
	return r.count
}

func (r *Ring[T]) Cap() int {
	return len(r.slots)
}

func (r *Ring[T]) Empty() bool {
	return r.count == 0
}

func (r *Ring[T]) Full() bool {
	return r.count == len(r.slots)
}

// Push appends v at the tail. The ring must not be full.
func (r *Ring[T]) Push(v T) {
	if r.Full() {
		panic("ring: push on full ring")
	}

	r.slots[r.checked(r.tail)] = v
	r.tail = r.wrap(r.tail + 1)
	r.count++
}

// Pop removes and returns the value at the head. The ring must not be empty.
func (r *Ring[T]) Pop() (v T) {
	if r.Empty() {
		panic("ring: pop on empty ring")
	}

	idx := r.checked(r.head)
	v = r.slots[idx]

	// Release the reference held by the vacated slot.
	var zero T
	r.slots[idx] = zero

	r.head = r.wrap(r.head + 1)
	r.count--
	return
}

// Grow moves the queued values into a new slice of newCap slots, oldest
// first at index 0.
func (r *Ring[T]) Grow(newCap int) error {
	if newCap <= len(r.slots) {
		return errShrink
	}

	slots, err := Alloc[T](newCap)

	if err != nil {
		return err
	}

	r.copyOrdered(slots)

	r.slots = slots
	r.head = 0
	r.tail = r.count
	return nil
}

// copyOrdered writes the queue into dst in FIFO order. When the queue wraps
// around the end of the slice, the segment [head, cap) precedes [0, tail).
func (r *Ring[T]) copyOrdered(dst []T) int {
	if r.count == 0 {
		return 0
	}

	if r.head < r.tail {
		return copy(dst, r.slots[r.head:r.tail])
	}

	n := copy(dst, r.slots[r.head:])
	return n + copy(dst[n:], r.slots[:r.tail])
}

func (r *Ring[T]) checked(idx int) int {
	if idx < 0 || idx >= len(r.slots) {
		panic("ring: cursor out of range")
	}

	return idx
}

func (r *Ring[T]) wrap(idx int) int {
	return idx % len(r.slots)
}
