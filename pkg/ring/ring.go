// Package ring provides the fixed-capacity FIFO of integers the admission
// policy schedules over.
//
// A Ring does no locking of its own. All calls must be serialized by the
// caller, typically by holding the gate of a processing.Monitor.
package ring

import (
	"fmt"
)

var ErrCapacity = fmt.Errorf("ring capacity must be positive")

// Parity selects even or odd items.
type Parity int

const (
	Even Parity = iota
	Odd
)

func ParityOf(v int) Parity {
	if v%2 == 0 {
		return Even
	}
	return Odd
}

func (p Parity) String() string {
	if p == Even {
		return "even"
	}
	return "odd"
}

// Ring is a circular buffer with a fixed capacity.
// Push on a full ring and Pop or Head on an empty ring are not
// checked, the caller has to ensure the preconditions.
type Ring struct {
	capacity int
	size     int
	first    int
	buffer   []int
}

func New(capacity int) (*Ring, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrCapacity, capacity)
	}
	return &Ring{
		capacity: capacity,
		buffer:   make([]int, capacity),
	}, nil
}

func (r *Ring) Push(v int) {
	r.buffer[(r.first+r.size)%r.capacity] = v
	r.size++
}

func (r *Ring) Pop() int {
	v := r.buffer[r.first]
	r.size--
	r.first = (r.first + 1) % r.capacity
	return v
}

// Head returns the oldest item without removing it.
func (r *Ring) Head() int {
	return r.buffer[r.first]
}

func (r *Ring) Len() int {
	return r.size
}

func (r *Ring) Cap() int {
	return r.capacity
}

func (r *Ring) Full() bool {
	return r.size == r.capacity
}

func (r *Ring) Empty() bool {
	return r.size == 0
}

// Count returns the number of stored items with the given parity.
func (r *Ring) Count(p Parity) int {
	n := 0
	for i := 0; i < r.size; i++ {
		if ParityOf(r.buffer[(r.first+i)%r.capacity]) == p {
			n++
		}
	}
	return n
}

// Items returns a copy of the stored items, oldest first.
func (r *Ring) Items() []int {
	items := make([]int, r.size)
	for i := range items {
		items[i] = r.buffer[(r.first+i)%r.capacity]
	}
	return items
}
