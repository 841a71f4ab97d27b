package processing

import (
	"fmt"
	"sync"
)

// Semaphore is a counting wait primitive. Acquire blocks until a permit
// is available and takes it, Release adds a permit. If operations are
// parked in Acquire, Release wakes exactly one of them (the oldest) and
// passes the permit to it directly, so no other acquirer can take it
// in between.
type Semaphore = *semaphore

type semaphore struct {
	lock sync.Mutex

	name    string
	permits int
	waiting Queue
}

// NewSemaphore creates a semaphore with the given number of initial
// permits. A negative count is a programming error and panics.
func NewSemaphore(permits int, names ...string) Semaphore {
	if permits < 0 {
		panic(fmt.Sprintf("negative permit count %d for %s", permits, ElementName("semaphore", names...)))
	}
	name := ElementName("semaphore", names...)
	return &semaphore{
		name:    name,
		permits: permits,
		waiting: NewQueue(name),
	}
}

func (s *semaphore) Name() string {
	return s.name
}

func (s *semaphore) Acquire(op Operation) {
	s.lock.Lock()

	if s.permits > 0 {
		s.permits--
		s.lock.Unlock()
		return
	}
	operation(op).Block(s.waiting, s.lock.Unlock)
}

func (s *semaphore) Release() {
	s.lock.Lock()

	if n := s.waiting.Next(); n != nil {
		s.lock.Unlock()
		n.Unblock() // pass permit
		return
	}
	s.permits++
	s.lock.Unlock()
}

// Available returns the number of permits not taken.
func (s *semaphore) Available() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.permits
}

// Waiting returns the number of operations parked in Acquire.
func (s *semaphore) Waiting() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.waiting.Len()
}
