// Package admission schedules the actors sharing a ring.Ring through a
// processing.Monitor. After every mutation of the ring an ordered table of
// rules decides which waiting condition is admitted next.
package admission

import (
	"github.com/mandelsoft/handoff/pkg/processing"
	"github.com/mandelsoft/handoff/pkg/ring"
)

// Predicate decides on the current ring content whether the actors
// waiting for a rule may proceed. It is evaluated holding the gate.
type Predicate func(*ring.Ring) bool

// Rule pairs a condition with the predicate admitting its waiters.
type Rule struct {
	Name      string
	Condition processing.Condition
	Admit     Predicate
}

// Policy is a list of rules in priority order.
type Policy []Rule

// Update must be called by the gate holder instead of Leave after it has
// mutated the ring. It signals the condition of the first rule whose
// predicate holds and which has a waiter. The gate is handed to the woken
// waiter and the selected rule is returned. If no rule qualifies the
// monitor is left.
//
// After Update the caller does not hold the gate anymore.
func (p Policy) Update(m processing.Monitor, r *ring.Ring) (Rule, bool) {
	for _, rule := range p {
		if rule.Admit(r) && m.Signal(rule.Condition) {
			return rule, true
		}
	}
	m.Leave()
	return Rule{}, false
}

// Lookup returns the rule with the given name.
func (p Policy) Lookup(name string) (Rule, bool) {
	for _, rule := range p {
		if rule.Name == name {
			return rule, true
		}
	}
	return Rule{}, false
}
