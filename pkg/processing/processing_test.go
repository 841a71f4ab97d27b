package processing_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/handoff/pkg/processing"
)

type SimpleResult struct {
	lock sync.Mutex

	result map[string]string
}

func NewSimpleResult() *SimpleResult {
	return &SimpleResult{
		result: map[string]string{},
	}
}

func (s *SimpleResult) Set(name, value string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.result[name] = value
}

func (s *SimpleResult) Get() map[string]string {
	s.lock.Lock()
	defer s.lock.Unlock()

	r := map[string]string{}
	for k, v := range s.result {
		r[k] = v
	}
	return r
}

func simple(name string, result *SimpleResult) processing.OperationFunction {
	return func(execution processing.Operation) {
		result.Set(name, "done")
	}
}

func waiting(name string, p processing.Execution, result *SimpleResult) processing.OperationFunction {
	return func(execution processing.Operation) {
		if p != nil {
			p.Wait(execution)
		}
		result.Set(name, "done")
	}
}

var _ = Describe("simple processing", func() {
	var sched processing.Scheduler
	var results *SimpleResult

	BeforeEach(func() {
		sched = processing.New(2)
		results = NewSimpleResult()
	})

	It("processes single execution", func() {
		e1 := processing.NewExecution(simple("test1", results), sched).Start()

		Eventually(e1.IsDone).Should(BeTrue())
		Expect(results.Get()).To(Equal(map[string]string{"test1": "done"}))
		Expect(e1.Start()).To(BeNil())
	})

	It("processes more executions than processors", func() {
		e1 := processing.NewExecution(simple("test1", results), sched).Start()
		e2 := processing.NewExecution(simple("test2", results), sched).Start()
		e3 := processing.NewExecution(simple("test3", results), sched).Start()

		Eventually(func() bool { return e1.IsDone() && e2.IsDone() && e3.IsDone() }).Should(BeTrue())
		Expect(results.Get()).To(Equal(map[string]string{"test1": "done", "test2": "done", "test3": "done"}))
		Expect(sched.ActiveCount()).To(Equal(0))
	})

	It("processes synched execution", func() {
		e1 := processing.NewExecution(waiting("test1", nil, results), sched)
		e2 := processing.NewExecution(waiting("test2", e1, results), sched)
		e3 := processing.NewExecution(waiting("test3", e2, results), sched)

		e3.Start()
		e2.Start()
		Eventually(sched.BlockedCount).Should(Equal(2))
		Expect(sched.WaitingCount()).To(Equal(2))
		e1.Start()

		Eventually(func() bool { return e1.IsDone() && e2.IsDone() && e3.IsDone() }).Should(BeTrue())
		Expect(results.Get()).To(Equal(map[string]string{"test1": "done", "test2": "done", "test3": "done"}))
		Expect(sched.BlockedCount()).To(Equal(0))
	})

	It("external sync", func() {
		e1 := processing.NewExecution(waiting("test1", nil, results), sched)
		e2 := processing.NewExecution(waiting("test2", e1, results), sched)
		e3 := processing.NewExecution(waiting("test3", e2, results), sched)

		sync := processing.NewDependencyTrigger(nil, e1, e2, e3)

		e3.Start()
		e2.Start()
		e1.Start()

		sync.Wait(nil)

		Expect(e1.IsDone()).To(BeTrue())
		Expect(e2.IsDone()).To(BeTrue())
		Expect(e3.IsDone()).To(BeTrue())

		Expect(results.Get()).To(Equal(map[string]string{"test1": "done", "test2": "done", "test3": "done"}))
	})
})

var _ = Describe("trigger", func() {
	It("fires actions once triggered and armed", func() {
		fired := 0
		t := processing.NewTrigger("test")
		t.RegisterAction(func(processing.Trigger) { fired++ })
		t.Trigger()
		Expect(t.IsTriggered()).To(BeFalse())
		t.Arm()
		Expect(t.IsTriggered()).To(BeTrue())
		t.Trigger()
		Expect(fired).To(Equal(1))

		// late actions are called immediately
		t.RegisterAction(func(processing.Trigger) { fired++ })
		Expect(fired).To(Equal(2))
	})

	It("rejects dependencies after arming", func() {
		t := processing.NewArmedTrigger(nil)
		Expect(t.DependOn(processing.NewTrigger())).To(MatchError(processing.ErrArmed))
	})

	It("accepts dependencies which already fired", func() {
		dep := processing.NewDependencyTrigger(nil)
		Expect(dep.IsTriggered()).To(BeTrue())

		t := processing.NewDependencyTrigger(nil, dep)
		Expect(t.IsTriggered()).To(BeTrue())
	})

	It("waits for dependencies", func() {
		dep := processing.NewArmedTrigger(nil)
		t := processing.NewDependencyTrigger(nil, dep)

		done := make(chan struct{})
		go func() {
			t.Wait(nil)
			close(done)
		}()
		Consistently(done).ShouldNot(BeClosed())
		dep.Trigger()
		Eventually(done).Should(BeClosed())
	})
})
