package admission

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/mandelsoft/handoff/pkg/processing"
)

// valueRange bounds the produced values: the even producer emits
// 0, 2, ..., 48 and the odd producer 1, 3, ..., 49 before wrapping.
const valueRange = 50

type actor struct {
	role   Role
	system *System
	admit  Predicate
	cond   processing.Condition
	exec   processing.Execution

	// next is the next value to produce, owned by the actor's goroutine.
	next    int
	waiting atomic.Bool
}

func newActor(s *System, role Role) *actor {
	a := &actor{
		role:   role,
		system: s,
		admit:  role.Admit(),
		cond:   s.conds[role],
	}
	if role == ProducerOdd {
		a.next = 1
	}
	return a
}

func (a *actor) run(ctx context.Context) processing.OperationFunction {
	return func(op processing.Operation) {
		log := a.system.logger.With("role", a.role)
		log.Debug("admission: actor started")
		for ctx.Err() == nil {
			if !a.step(ctx, op) {
				break
			}
			a.pace(ctx)
			op.Preempt()
		}
		log.Debug("admission: actor stopped")
	}
}

// step executes one monitor round. It returns false if the actor was
// cancelled before it got admitted.
func (a *actor) step(ctx context.Context, op processing.Operation) bool {
	s := a.system

	s.monitor.Enter(op)
	if !a.admit(s.ring) {
		if ctx.Err() != nil {
			s.monitor.Leave()
			return false
		}
		a.waiting.Store(true)
		s.monitor.Wait(a.cond)
		a.waiting.Store(false)
	}

	var v int
	if a.role.Producer() {
		v = a.next
		s.ring.Push(v)
		a.next = (v + 2) % valueRange
	} else {
		v = s.ring.Pop()
	}

	if rule, ok := s.policy.Update(s.monitor, s.ring); ok {
		s.handoffs.Add(1)
		s.logger.Debug("admission: handed off", "from", a.role, "to", rule.Name)
	} else {
		s.releases.Add(1)
	}

	s.done[a.role].Add(1)
	if a.role.Producer() {
		s.logger.Debug("admission: produced", "role", a.role, "value", v)
	} else {
		s.logger.Debug("admission: consumed", "role", a.role, "value", v)
	}
	return true
}

func (a *actor) pace(ctx context.Context) {
	d := a.system.opts.PaceMin
	if span := a.system.opts.PaceMax - d; span > 0 {
		d += rand.N(span + 1)
	}
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
