package processing

import (
	"sync"
)

// Execution represent the scheduled execution of
// a Go function of type OperationFunction.
type Execution = *execution

type execution struct {
	lock     sync.Mutex
	function OperationFunction
	state    State
}

// ReleaseFunction is called by Operation.Block after the operation has been
// registered in the waiting queue and before it is parked. It is used to
// give up the lock protecting the primitive the operation waits for.
type ReleaseFunction func()

// Operation is the identity of the execution of an OperationFunction.
// It can be used by the Go routine used to execute the OperationFunction
// to control the execution of the operation.
// An Operation object
// MUST only be used by the OperationFunction (or better, by the Go routine
// used to execute the OperationFunction). It should never be stored
// in any object and shared with other Go routines.
//
// Blocking primitives of this package accept a nil Operation. In this
// case the calling Go routine is parked directly by the Go runtime.
type Operation interface {
	Block(Queue, ReleaseFunction)
	Unblock()
	Preempt()
	_unblock()

	_removedFromQueue(q Queue)
	_addToQueue(Queue, bool)
}

func NewExecution(f OperationFunction, s Scheduler, names ...string) Execution {
	e := &execution{function: f}
	e.state = s.new("execution", names...)
	return e
}

func (e *execution) Name() string {
	return e.state.Name()
}

// Start hands the function to the scheduler. It returns nil if the
// execution has already been started.
func (e *execution) Start() Execution {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.function == nil {
		return nil
	}
	e.state.scheduler.start(e.state, e.function)
	e.function = nil
	return e
}

func (e *execution) Wait(o Operation) {
	e.state.done.Wait(o)
}

func (e *execution) IsDone() bool {
	return e.state.IsDone()
}

// IsBlocked reports whether the operation is currently parked on a
// blocking primitive.
func (e *execution) IsBlocked() bool {
	return e.state.IsBlocked()
}

func (e *execution) RegisterAction(a TriggerAction) {
	e.state.done.RegisterAction(a)
}
