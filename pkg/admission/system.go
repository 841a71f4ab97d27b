package admission

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mandelsoft/handoff/pkg/processing"
	"github.com/mandelsoft/handoff/pkg/ring"
)

var (
	ErrStarted    = fmt.Errorf("system already started")
	ErrNotStarted = fmt.Errorf("system not started")
	ErrParked     = fmt.Errorf("actors still parked")
)

// Options configures a System. Capacity is the only setting affecting
// the admission semantics, the others configure how actors are run.
type Options struct {
	// Capacity of the ring, must be positive.
	Capacity int
	// Processors limits the number of actors running at the same time.
	// Zero means one processor per role.
	Processors int
	// PaceMin and PaceMax bound the random delay of an actor between
	// two rounds.
	PaceMin time.Duration
	PaceMax time.Duration
	Logger  *slog.Logger
}

// System is the shared context of a set of actors: one monitor, one
// condition per role, the ring and the policy. It is created once,
// before any actor runs.
type System struct {
	id     uuid.UUID
	opts   Options
	logger *slog.Logger

	monitor processing.Monitor
	conds   Conditions
	ring    *ring.Ring
	policy  Policy
	sched   processing.Scheduler

	lock   sync.Mutex
	cancel context.CancelFunc
	actors []*actor

	done     [len(roleNames)]atomic.Int64
	handoffs atomic.Int64
	releases atomic.Int64
}

func New(opts Options) (*System, error) {
	r, err := ring.New(opts.Capacity)
	if err != nil {
		return nil, err
	}
	if opts.PaceMin < 0 || opts.PaceMax < 0 {
		return nil, fmt.Errorf("negative pacing %s..%s", opts.PaceMin, opts.PaceMax)
	}
	if opts.PaceMax < opts.PaceMin {
		opts.PaceMax = opts.PaceMin
	}
	if opts.Processors <= 0 {
		opts.Processors = len(Roles)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	id := uuid.New()
	conds := NewConditions()
	return &System{
		id:      id,
		opts:    opts,
		logger:  opts.Logger.With("run", id.String()),
		monitor: processing.NewMonitor("admission"),
		conds:   conds,
		ring:    r,
		policy:  NewParityPolicy(conds),
		sched:   processing.New(opts.Processors),
	}, nil
}

func (s *System) ID() uuid.UUID {
	return s.id
}

func (s *System) Monitor() processing.Monitor {
	return s.monitor
}

func (s *System) Policy() Policy {
	return s.policy
}

// Start runs one actor per given role. A role may be given multiple times.
// Without roles all four roles are started.
func (s *System) Start(ctx context.Context, roles ...Role) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.cancel != nil {
		return ErrStarted
	}
	if len(roles) == 0 {
		roles = Roles
	}
	for _, r := range roles {
		if r < 0 || int(r) >= len(roleNames) {
			return fmt.Errorf("invalid role %d", int(r))
		}
	}

	ctx, s.cancel = context.WithCancel(ctx)
	for i, r := range roles {
		a := newActor(s, r)
		a.exec = processing.NewExecution(a.run(ctx), s.sched, r.String(), fmt.Sprint(i))
		s.actors = append(s.actors, a)
	}
	for _, a := range s.actors {
		a.exec.Start()
	}
	s.logger.Info("admission: started",
		"capacity", s.ring.Cap(),
		"processors", s.sched.Processors(),
		"actors", len(s.actors),
	)
	return nil
}

// Stop cancels all actors and waits until they have returned or ctx is
// done. Actors parked on their condition cannot be cancelled, they are
// reported with an error wrapping ErrParked.
func (s *System) Stop(ctx context.Context) error {
	s.lock.Lock()
	cancel := s.cancel
	actors := s.actors
	s.lock.Unlock()

	if cancel == nil {
		return ErrNotStarted
	}
	cancel()

	stopped := make(chan struct{})
	deps := make([]processing.Dependency, 0, len(actors))
	for _, a := range actors {
		deps = append(deps, a.exec)
	}
	processing.NewDependencyTrigger(func(processing.Trigger) { close(stopped) }, deps...)

	select {
	case <-stopped:
		s.logger.Info("admission: stopped")
		return nil
	case <-ctx.Done():
	}

	var parked []string
	for _, a := range actors {
		if !a.exec.IsDone() {
			state := "entering"
			if a.waiting.Load() {
				state = "waiting"
			}
			parked = append(parked, a.role.String()+" ("+state+")")
		}
	}
	if len(parked) == 0 {
		return nil
	}
	s.logger.Warn("admission: actors still parked", "actors", parked)
	return fmt.Errorf("%w: %s", ErrParked, strings.Join(parked, ", "))
}

// Snapshot describes the ring and the monitor at one instant.
type Snapshot struct {
	Len   int
	Cap   int
	Even  int
	Odd   int
	Items []int

	// Waiters and Done are indexed by Role.
	Waiters [len(roleNames)]int
	Done    [len(roleNames)]int64

	Handoffs int64
	Releases int64
	// Peak is the highest number of simultaneous gate holders.
	Peak int
}

// Snapshot reads the shared state holding the gate.
func (s *System) Snapshot() Snapshot {
	var snap Snapshot

	s.monitor.Enter(nil)
	snap.Len = s.ring.Len()
	snap.Cap = s.ring.Cap()
	snap.Even = s.ring.Count(ring.Even)
	snap.Odd = s.ring.Count(ring.Odd)
	snap.Items = s.ring.Items()
	for _, r := range Roles {
		snap.Waiters[r] = s.conds[r].Waiters()
	}
	s.monitor.Leave()

	for _, r := range Roles {
		snap.Done[r] = s.done[r].Load()
	}
	snap.Handoffs = s.handoffs.Load()
	snap.Releases = s.releases.Load()
	_, snap.Peak = s.monitor.Occupancy()
	return snap
}
