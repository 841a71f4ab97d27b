package processing

import (
	"runtime"
	"sync"
)

// goroutine is an Operation not managed by a Scheduler. It is used
// whenever a blocking primitive is called with a nil Operation and
// parks the calling Go routine directly.
type goroutine struct {
	lock    sync.Mutex
	queue   Queue
	blocked bool
	wake    chan struct{}
}

var _ Operation = (*goroutine)(nil)

func newGoroutine() *goroutine {
	return &goroutine{wake: make(chan struct{}, 1)}
}

// operation returns op or, for nil, a fresh operation for the
// calling Go routine.
func operation(op Operation) Operation {
	if op == nil {
		return newGoroutine()
	}
	return op
}

func (g *goroutine) Block(q Queue, r ReleaseFunction) {
	g._addToQueue(q, true)
	if r != nil {
		r()
	}
	<-g.wake
}

func (g *goroutine) Unblock() {
	g.lock.Lock()
	g.blocked = false
	g.lock.Unlock()
	g._unblock()
}

func (g *goroutine) Preempt() {
	runtime.Gosched()
}

func (g *goroutine) _unblock() {
	g.wake <- struct{}{}
}

func (g *goroutine) _removedFromQueue(q Queue) {
	g.lock.Lock()
	defer g.lock.Unlock()

	if g.queue == q {
		g.queue = nil
	}
}

func (g *goroutine) _addToQueue(q Queue, blocked bool) {
	g.lock.Lock()
	defer g.lock.Unlock()

	g.blocked = blocked
	if g.queue != q {
		if g.queue != nil {
			g.queue.Remove(g)
		}
		g.queue = q
		if q != nil {
			q.Add(g)
		}
	}
}
