package processing

import (
	"fmt"
	"sync"
)

var ErrArmed = fmt.Errorf("trigger already armed")

type TriggerAction func(Trigger)

type Dependency interface {
	RegisterAction(TriggerAction)
}

// Trigger is an object which can be used to synchronize
// operations. Operations can wait for a Trigger to reach
// the triggered state, meaning:
//   - the trigger is armed
//   - all dependencies have been fired
//   - the Trigger.Trigger() method is called
//
// A Trigger optionally fires actions (functions) when it
// reaches the triggered state. Every action is executed only once.
// A Trigger may depend on dependencies given by objects
// implementing the Dependency interface, for example an Execution,
// which fires when its function has returned.
type Trigger interface {
	Dependency

	DependOn(...Dependency) error
	Arm()
	Trigger()

	IsTriggered() bool

	Wait(operation Operation)
}

// NewTrigger creates a generic unarmed Trigger.
func NewTrigger(names ...string) Trigger {
	return &trigger{waiting: NewQueue(ElementName("trigger", names...))}
}

// NewArmedTrigger creates an already armed Trigger configured with
// a set of dependencies and a TriggerAction.
func NewArmedTrigger(a TriggerAction, deps ...Dependency) Trigger {
	t := NewTrigger()
	for _, d := range deps {
		t.DependOn(d)
	}
	t.RegisterAction(a)
	t.Arm()
	return t
}

// NewDependencyTrigger creates an armed Trigger, which triggers
// when all dependencies have been fired.
func NewDependencyTrigger(a TriggerAction, deps ...Dependency) Trigger {
	t := NewArmedTrigger(a, deps...)
	t.Trigger()
	return t
}

type trigger struct {
	lock sync.Mutex

	actions []TriggerAction

	armed        bool
	triggered    bool
	dependencies int

	waiting Queue
}

func (t *trigger) Arm() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.armed = true
	t.trigger()
}

func (t *trigger) Trigger() {
	t.lock.Lock()
	defer t.lock.Unlock()

	if !t.triggered {
		t.triggered = true
		t.trigger()
	}
}

func (t *trigger) trigger() {
	if !t.isTriggered() {
		return
	}
	actions := t.actions
	t.actions = nil
	for _, a := range actions {
		a(t)
	}
	for n := t.waiting.Next(); n != nil; n = t.waiting.Next() {
		n.Unblock()
	}
}

func (t *trigger) RegisterAction(a TriggerAction) {
	if a == nil {
		return
	}
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.isTriggered() {
		a(t)
	} else {
		t.actions = append(t.actions, a)
	}
}

func (t *trigger) depTriggered(d Trigger) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.dependencies--
	t.trigger()
}

func (t *trigger) DependOn(deps ...Dependency) error {
	t.lock.Lock()
	if t.armed {
		t.lock.Unlock()
		return ErrArmed
	}
	t.dependencies += len(deps)
	t.lock.Unlock()

	// already fired dependencies call back immediately
	for _, d := range deps {
		d.RegisterAction(t.depTriggered)
	}
	return nil
}

func (t *trigger) IsTriggered() bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.isTriggered()
}

func (t *trigger) isTriggered() bool {
	return t.triggered && t.armed && t.dependencies == 0
}

// Wait waits for the trigger to reach the triggered state.
// If the operation is given, it is blocked by the scheduler until the
// trigger reached the triggered state. Hereby, the scheduler is able to
// continue with another operation ready for execution.
// If it is NOT given (nil), the actual GO routine is blocked
// by the GO runtime instead.
func (t *trigger) Wait(op Operation) {
	t.lock.Lock()

	if t.isTriggered() {
		t.lock.Unlock()
		return
	}
	operation(op).Block(t.waiting, t.lock.Unlock)
}
