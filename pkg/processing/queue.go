package processing

import (
	"sync"

	"github.com/gammazero/deque"
)

// Queue is a named FIFO of operations. It is used by the scheduler
// for its run states and by blocking primitives to keep their parked
// operations in arrival order.
type Queue interface {
	Name() string
	Add(b Operation)
	Remove(b Operation) bool
	Len() int
	Next() Operation
}

type queue struct {
	lock sync.Mutex
	name string
	list deque.Deque[Operation]
}

func NewQueue(name string) Queue {
	return &queue{name: name}
}

func (q *queue) Name() string {
	return q.name
}

func (q *queue) Add(b Operation) {
	q.lock.Lock()
	defer q.lock.Unlock()

	q.list.PushBack(b)
}

func (q *queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.list.Len()
}

// Next dequeues the oldest operation, or returns nil for an empty queue.
func (q *queue) Next() Operation {
	q.lock.Lock()
	if q.list.Len() == 0 {
		q.lock.Unlock()
		return nil
	}
	r := q.list.PopFront()
	q.lock.Unlock()

	// outside of the queue lock: the operation lock is taken before
	// queue locks in _addToQueue.
	r._removedFromQueue(q)
	return r
}

func (q *queue) Remove(b Operation) bool {
	if q == nil {
		return false
	}
	q.lock.Lock()
	defer q.lock.Unlock()

	i := q.list.Index(func(e Operation) bool { return e == b })
	if i < 0 {
		return false
	}
	q.list.Remove(i)
	return true
}
