package admission

import (
	"fmt"

	"github.com/mandelsoft/handoff/pkg/processing"
	"github.com/mandelsoft/handoff/pkg/ring"
)

const (
	// MaxEven is the number of even items the ring may hold.
	MaxEven = 10
	// EvenBacklog is the occupancy that must be exceeded to consume an even head.
	EvenBacklog = 3
	// OddBacklog is the occupancy that must be exceeded to consume an odd head.
	OddBacklog = 7
)

// Role is the kind of actor working on the ring. The numeric order of
// the roles is the priority order of the parity policy.
type Role int

const (
	ProducerEven Role = iota
	ProducerOdd
	ConsumerEven
	ConsumerOdd
)

var Roles = []Role{ProducerEven, ProducerOdd, ConsumerEven, ConsumerOdd}

var roleNames = [...]string{
	ProducerEven: "producer-even",
	ProducerOdd:  "producer-odd",
	ConsumerEven: "consumer-even",
	ConsumerOdd:  "consumer-odd",
}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

func ParseRole(s string) (Role, error) {
	for i, n := range roleNames {
		if n == s {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) Producer() bool {
	return r == ProducerEven || r == ProducerOdd
}

// Admit returns the predicate admitting actors of the role.
func (r Role) Admit() Predicate {
	switch r {
	case ProducerEven:
		return CanProduceEven
	case ProducerOdd:
		return CanProduceOdd
	case ConsumerEven:
		return CanConsumeEven
	case ConsumerOdd:
		return CanConsumeOdd
	}
	panic(fmt.Sprintf("invalid %s", r))
}

func CanProduceEven(r *ring.Ring) bool {
	return !r.Full() && r.Count(ring.Even) < MaxEven
}

func CanProduceOdd(r *ring.Ring) bool {
	return !r.Full() && r.Count(ring.Odd) < r.Count(ring.Even)
}

func CanConsumeEven(r *ring.Ring) bool {
	return r.Len() > EvenBacklog && ring.ParityOf(r.Head()) == ring.Even
}

func CanConsumeOdd(r *ring.Ring) bool {
	return r.Len() > OddBacklog && ring.ParityOf(r.Head()) == ring.Odd
}

// Conditions holds one condition per role, indexed by Role.
type Conditions [len(roleNames)]processing.Condition

func NewConditions() Conditions {
	var c Conditions
	for _, r := range Roles {
		c[r] = processing.NewCondition(r.String())
	}
	return c
}

// NewParityPolicy creates the rule table: even production first, then odd
// production catching up with the even stock, then draining even heads and
// finally odd heads at a deeper backlog.
func NewParityPolicy(c Conditions) Policy {
	p := make(Policy, 0, len(Roles))
	for _, r := range Roles {
		p = append(p, Rule{Name: r.String(), Condition: c[r], Admit: r.Admit()})
	}
	return p
}
