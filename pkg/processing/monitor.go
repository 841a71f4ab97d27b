package processing

import (
	"sync/atomic"
)

// Monitor is a hand-off monitor. A single gate guards the monitor; at
// most one operation holds it at any time.
//
// Signal does not wake a waiter to compete for the gate. It transfers the
// gate to the woken operation instead: a Signal returning true ends the
// caller's ownership, the caller must neither touch the protected state
// again nor call Leave. A Signal returning false leaves the gate with the
// caller, who has to hold it, signal another condition or Leave.
//
// A waiter returning from Wait holds the gate again, the state it observes
// is exactly the state left by the signaling operation.
type Monitor interface {
	Enter(Operation)
	Leave()
	Wait(Condition)
	Signal(Condition) bool

	// Occupancy returns the number of gate holders and the maximum
	// ever observed. Both must never exceed one.
	Occupancy() (current, peak int)
}

// Condition is a condition variable of a Monitor. It counts the operations
// parked on it and wakes them through its own semaphore.
type Condition = *condition

type condition struct {
	name string
	// waiters is only modified holding the monitor gate.
	waiters atomic.Int32
	sema    Semaphore
}

func NewCondition(names ...string) Condition {
	return &condition{
		name: ElementName("condition", names...),
		sema: NewSemaphore(0, names...),
	}
}

func (c *condition) Name() string {
	return c.name
}

// Waiters returns the number of operations parked on the condition.
// The value is only stable for the holder of the gate of the monitor
// the condition is used with.
func (c *condition) Waiters() int {
	return int(c.waiters.Load())
}

type monitor struct {
	name string
	gate Semaphore
	// holder is the operation owning the gate, it is only
	// written by the owner.
	holder Operation

	inside atomic.Int32
	peak   atomic.Int32

	// released is called by Wait after giving up the gate and before
	// parking. It is used to inject scheduling delays in tests.
	released func()
}

func NewMonitor(names ...string) Monitor {
	return newMonitor("monitor", names...)
}

func newMonitor(typ string, names ...string) *monitor {
	name := ElementName(typ, names...)
	return &monitor{
		name: name,
		gate: NewSemaphore(1, append(append([]string{typ}, names...), "gate")...),
	}
}

func (m *monitor) Enter(op Operation) {
	op = operation(op)
	m.gate.Acquire(op)
	m.acquired(op)
}

func (m *monitor) Leave() {
	m.check("leave")
	m.handover()
	m.gate.Release()
}

// Wait parks the gate holder on the condition. The waiter is registered
// before the gate is released, so a signaler entering in between always
// finds it.
func (m *monitor) Wait(c Condition) {
	m.check("wait")
	holder := m.holder

	c.waiters.Add(1)
	m.handover()
	m.gate.Release()
	if m.released != nil {
		m.released()
	}
	c.sema.Acquire(holder)

	m.acquired(holder)
}

func (m *monitor) Signal(c Condition) bool {
	m.check("signal")
	if c.waiters.Load() == 0 {
		return false
	}
	c.waiters.Add(-1)
	m.handover()
	c.sema.Release() // pass gate
	return true
}

func (m *monitor) Occupancy() (int, int) {
	return int(m.inside.Load()), int(m.peak.Load())
}

func (m *monitor) acquired(op Operation) {
	m.holder = op
	n := m.inside.Add(1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (m *monitor) handover() {
	m.holder = nil
	m.inside.Add(-1)
}

func (m *monitor) check(action string) {
	if m.holder == nil {
		panic(action + " executed outside " + m.name)
	}
}
