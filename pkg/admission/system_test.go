package admission_test

import (
	"context"
	"errors"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/handoff/pkg/admission"
	"github.com/mandelsoft/handoff/pkg/ring"
)

var _ = Describe("system", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))
	})

	newSystem := func(capacity int, pace time.Duration) *admission.System {
		sys, err := admission.New(admission.Options{
			Capacity: capacity,
			PaceMin:  pace,
			PaceMax:  pace,
			Logger:   logger,
		})
		Expect(err).To(Succeed())
		return sys
	}

	stop := func(sys *admission.System) error {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		return sys.Stop(ctx)
	}

	length := func(sys *admission.System) func() int {
		return func() int { return sys.Snapshot().Len }
	}

	waiters := func(sys *admission.System, role admission.Role) func() int {
		return func() int { return sys.Snapshot().Waiters[role] }
	}

	It("rejects invalid capacities", func() {
		_, err := admission.New(admission.Options{Capacity: 0})
		Expect(err).To(MatchError(ring.ErrCapacity))
	})

	It("is started only once", func() {
		sys := newSystem(5, 50*time.Millisecond)
		Expect(sys.Stop(context.Background())).To(MatchError(admission.ErrNotStarted))
		Expect(sys.Start(context.Background(), admission.ProducerEven)).To(Succeed())
		Expect(sys.Start(context.Background(), admission.ProducerEven)).To(MatchError(admission.ErrStarted))
		Eventually(func() int64 { return sys.Snapshot().Done[admission.ProducerEven] }).Should(BeNumerically(">", 0))
		Expect(stop(sys)).To(Succeed())
	})

	It("saturates at ten even items with only producer-even", func() {
		sys := newSystem(11, time.Millisecond)
		Expect(sys.Start(context.Background(), admission.ProducerEven)).To(Succeed())

		Eventually(waiters(sys, admission.ProducerEven)).Should(Equal(1))
		Consistently(length(sys)).Should(Equal(10))

		snap := sys.Snapshot()
		Expect(snap.Even).To(Equal(10))
		Expect(snap.Items).To(Equal([]int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18}))
		Expect(snap.Done[admission.ProducerEven]).To(Equal(int64(10)))
		Expect(snap.Peak).To(Equal(1))

		err := stop(sys)
		Expect(err).To(MatchError(admission.ErrParked))
		Expect(err.Error()).To(ContainSubstring("producer-even (waiting)"))
	})

	DescribeTable("never admits a lonely actor",
		func(role admission.Role) {
			sys := newSystem(1, time.Millisecond)
			Expect(sys.Start(context.Background(), role)).To(Succeed())

			Eventually(waiters(sys, role)).Should(Equal(1))
			Consistently(length(sys)).Should(Equal(0))
			Expect(sys.Snapshot().Done[role]).To(BeZero())
			Expect(stop(sys)).To(MatchError(admission.ErrParked))
		},
		Entry("producer-odd", admission.ProducerOdd),
		Entry("consumer-even", admission.ConsumerEven),
		Entry("consumer-odd", admission.ConsumerOdd),
	)

	It("balances odd with even production", func() {
		sys := newSystem(21, time.Millisecond)
		Expect(sys.Start(context.Background(), admission.ProducerEven, admission.ProducerOdd)).To(Succeed())

		Eventually(length(sys)).Should(Equal(20))
		Consistently(length(sys)).Should(Equal(20))

		snap := sys.Snapshot()
		Expect(snap.Even).To(Equal(10))
		Expect(snap.Odd).To(Equal(10))
		Expect(snap.Peak).To(Equal(1))
		Expect(stop(sys)).To(MatchError(admission.ErrParked))
	})

	It("keeps the invariants with all roles", func() {
		sys := newSystem(21, time.Millisecond)
		Expect(sys.Start(context.Background())).To(Succeed())

		deadline := time.Now().Add(500 * time.Millisecond)
		for time.Now().Before(deadline) {
			snap := sys.Snapshot()
			Expect(snap.Len).To(BeNumerically("<=", snap.Cap))
			Expect(snap.Even).To(BeNumerically("<=", admission.MaxEven))
			Expect(snap.Even + snap.Odd).To(Equal(snap.Len))
			Expect(snap.Peak).To(Equal(1))
			time.Sleep(5 * time.Millisecond)
		}

		Eventually(func() int64 {
			snap := sys.Snapshot()
			return snap.Done[admission.ConsumerEven] + snap.Done[admission.ConsumerOdd]
		}).Should(BeNumerically(">", 0))
		Expect(sys.Snapshot().Handoffs).To(BeNumerically(">", 0))

		err := stop(sys)
		if err != nil {
			Expect(errors.Is(err, admission.ErrParked)).To(BeTrue())
		}
	})
})
