package processing

import (
	"sync"
)

// Scheduler is able to handle the execution of operations in parallel.
// An operation is the execution of an OperationFunction.
// Hereby, the number of concurrent operations is limited to the
// limit passed to the scheduler constructor.
// There might be any number of operations in progress, but the
// number of actually running operations is limited.
// The scheduler handles this by observing the executions blocked
// on dedicated synchronization primitives supported by this
// package (Semaphore, Monitor, Trigger).
type Scheduler = *scheduler

type scheduler struct {
	lock       sync.Mutex
	processors int
	active     int

	running Queue
	ready   Queue
	blocked Queue
	bcnt    int
}

// New creates a scheduler running at most n operations at a time.
// Values below one are treated as one.
func New(n int) Scheduler {
	if n < 1 {
		n = 1
	}
	return &scheduler{
		processors: n,

		running: NewQueue("running"),
		ready:   NewQueue("ready"),
		blocked: NewQueue("blocked"),
	}
}

func (s *scheduler) Processors() int {
	return s.processors
}

func (s *scheduler) ActiveCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.running.Len() + s.ready.Len()
}

func (s *scheduler) RunningCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.running.Len()
}

func (s *scheduler) ReadyCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.ready.Len()
}

// BlockedCount is the number of operations parked on any primitive.
func (s *scheduler) BlockedCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.bcnt
}

// WaitingCount is the number of operations parked on a primitive
// with its own waiting queue.
func (s *scheduler) WaitingCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.bcnt - s.blocked.Len()
}

func (s *scheduler) new(typ string, names ...string) State {
	return &state{
		name:      ElementName(typ, names...),
		scheduler: s,
		done:      NewArmedTrigger(nil),
	}
}

func (s *scheduler) start(b State, f OperationFunction) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.active < s.processors {
		s.active++
		b._addToQueue(s.running, false)
	} else {
		b._block()
		b._addToQueue(s.ready, false)
	}
	go func() {
		b.blocker.Lock()
		f(b)
		s.done(b)
	}()
}

func (s *scheduler) done(b State) {
	s.lock.Lock()
	b._addToQueue(nil, false)
	s._schedule()
	s.lock.Unlock()
	b.done.Trigger()
}

// _schedule passes a freed processor to the next ready operation.
func (s *scheduler) _schedule() {
	if r := s.ready.Next(); r != nil {
		r._addToQueue(s.running, false)
		r._unblock()
	} else {
		s.active--
	}
}

func (s *scheduler) block(b State, q Queue, r ReleaseFunction) {
	s.lock.Lock()

	if q == nil {
		q = s.blocked
	}
	b._addToQueue(q, true)
	if r != nil {
		r()
	}
	s.bcnt++
	s._schedule()
	s.lock.Unlock()

	b._block()
}

func (s *scheduler) unblock(b State) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.bcnt--
	if s.active < s.processors {
		s.active++
		b._addToQueue(s.running, false)
		b._unblock()
	} else {
		b._addToQueue(s.ready, false)
	}
}

func (s *scheduler) preempt(b State) {
	s.lock.Lock()

	if r := s.ready.Next(); r != nil {
		b._addToQueue(s.ready, false)
		r._addToQueue(s.running, false)
		r._unblock()
		s.lock.Unlock()
		b._block()
	} else {
		s.lock.Unlock()
	}
}
