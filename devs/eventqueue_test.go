package devs

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/devs/idgen"
)

func times(events []Event[string]) []VTime {
	ts := make([]VTime, len(events))
	for i, e := range events {
		ts[i] = e.Time
	}

	return ts
}

func expectSorted(q *EventQueue[string]) {
	events := q.Events()
	for i := 1; i < len(events); i++ {
		ExpectWithOffset(1, events[i-1].Time.Before(events[i].Time)).To(BeTrue(),
			"%v is not before %v", events[i-1].Time, events[i].Time)
	}
}

var _ = Describe("EventQueue", func() {
	const (
		a ModelID = iota
		b
		c
	)

	var q *EventQueue[string]

	BeforeEach(func() {
		q = NewEventQueue[string](idgen.NewSequential())
	})

	Context("when scheduling internal events", func() {
		It("should insert at causal index 0 for a new real time", func() {
			Expect(q.ScheduleInternal(a, 2)).To(Equal(Inserted))
			Expect(q.ScheduleInternal(b, 1)).To(Equal(Inserted))

			Expect(times(q.Events())).To(Equal([]VTime{{1, 0}, {2, 0}}))
			Expect(q.Events()[0].Model).To(Equal(b))
			Expect(q.Events()[0].Kind).To(Equal(Internal))
			Expect(q.Events()[0].Inputs).To(BeNil())
		})

		It("should give dense causal indices within a real time", func() {
			q.ScheduleInternal(a, 1)
			q.ScheduleInternal(b, 1)
			q.ScheduleInternal(c, 1)

			Expect(times(q.Events())).To(Equal([]VTime{{1, 0}, {1, 1}, {1, 2}}))
		})

		It("should insert between buckets", func() {
			q.ScheduleInternal(a, 1)
			q.ScheduleInternal(a, 3)
			q.ScheduleInternal(b, 2)
			q.ScheduleInternal(c, 2)

			Expect(times(q.Events())).To(Equal(
				[]VTime{{1, 0}, {2, 0}, {2, 1}, {3, 0}}))
		})

		It("should suppress a duplicate internal event", func() {
			q.ScheduleInternal(a, 1)
			Expect(q.ScheduleInternal(a, 1)).To(Equal(Suppressed))

			Expect(q.Len()).To(Equal(1))
		})

		It("should merge into a queued external event of the same model", func() {
			q.ScheduleExternal("x", 1, b)
			q.ScheduleExternal("y", 1, a)

			Expect(q.ScheduleInternal(a, 1)).To(Equal(Merged))

			events := q.Events()
			Expect(events).To(HaveLen(2))
			Expect(events[1].Kind).To(Equal(Confluent))
			Expect(events[1].Model).To(Equal(a))
			Expect(events[1].Time).To(Equal(VTime{1, 1}))
			Expect(events[1].Inputs).To(Equal([]string{"y"}))
		})

		It("should suppress an internal event onto a confluent one", func() {
			q.ScheduleExternal("y", 1, a)
			q.ScheduleInternal(a, 1)

			Expect(q.ScheduleInternal(a, 1)).To(Equal(Suppressed))
			Expect(q.Len()).To(Equal(1))
			Expect(q.Events()[0].Kind).To(Equal(Confluent))
		})

		It("should find the same model behind other models", func() {
			q.ScheduleInternal(b, 1)
			q.ScheduleInternal(c, 1)
			q.ScheduleExternal("y", 1, a)

			Expect(q.ScheduleInternal(a, 1)).To(Equal(Merged))
			Expect(q.Len()).To(Equal(3))
			Expect(q.Events()[2].Kind).To(Equal(Confluent))
		})
	})

	Context("when scheduling external events", func() {
		It("should merge into a queued internal event of the same model", func() {
			q.ScheduleInternal(b, 4)
			q.ScheduleInternal(a, 4)

			Expect(q.ScheduleExternal("in", 4, a)).To(Equal(Merged))

			events := q.Events()
			Expect(events).To(HaveLen(2))
			Expect(events[1].Kind).To(Equal(Confluent))
			Expect(events[1].Time).To(Equal(VTime{4, 1}))
			Expect(events[1].Inputs).To(Equal([]string{"in"}))
		})

		It("should append to the bag of a queued external event", func() {
			q.ScheduleExternal("first", 1, a)
			Expect(q.ScheduleExternal("second", 1, a)).To(Equal(Appended))

			Expect(q.Len()).To(Equal(1))
			Expect(q.Events()[0].Kind).To(Equal(External))
			Expect(q.Events()[0].Inputs).To(Equal([]string{"first", "second"}))
		})

		It("should append to the bag of a queued confluent event", func() {
			q.ScheduleInternal(a, 1)
			q.ScheduleExternal("first", 1, a)
			q.ScheduleExternal("second", 1, a)

			Expect(q.Len()).To(Equal(1))
			Expect(q.Events()[0].Kind).To(Equal(Confluent))
			Expect(q.Events()[0].Inputs).To(Equal([]string{"first", "second"}))
		})

		It("should take the next causal index after other models", func() {
			q.ScheduleInternal(b, 1)
			q.ScheduleExternal("x", 1, c)
			q.ScheduleExternal("y", 1, a)

			Expect(times(q.Events())).To(Equal([]VTime{{1, 0}, {1, 1}, {1, 2}}))
			Expect(q.Events()[2].Kind).To(Equal(External))
		})

		It("should keep real times apart that differ in the last bit", func() {
			x := 0.1
			q.ScheduleInternal(a, x+0.2)

			Expect(q.ScheduleExternal("y", 0.3, a)).To(Equal(Inserted))

			events := q.Events()
			Expect(events).To(HaveLen(2))
			Expect(events[0].Kind).To(Equal(External))
			Expect(events[0].Time).To(Equal(VTime{0.3, 0}))
			Expect(events[1].Kind).To(Equal(Internal))
			Expect(events[1].Time).To(Equal(VTime{x + 0.2, 0}))
		})

		It("should insert before a later real time", func() {
			q.ScheduleInternal(b, 5)
			q.ScheduleExternal("y", 3, a)

			Expect(times(q.Events())).To(Equal([]VTime{{3, 0}, {5, 0}}))
		})

		It("should not share input slices between events", func() {
			q.ScheduleExternal("first", 1, a)
			before := q.Events()[0]

			q.ScheduleExternal("second", 1, a)

			Expect(before.Inputs).To(Equal([]string{"first"}))
		})
	})

	Context("when popping", func() {
		It("should pop the whole bucket at the smallest real time", func() {
			q.ScheduleInternal(a, 2)
			q.ScheduleInternal(b, 1)
			q.ScheduleExternal("x", 1, c)

			Expect(q.PeekNextTime()).To(Equal(1.0))

			batch := q.PopNextBatch()
			Expect(batch).To(HaveLen(2))
			Expect(batch[0].Model).To(Equal(b))
			Expect(batch[1].Model).To(Equal(c))
			Expect(q.Len()).To(Equal(1))
			Expect(q.PeekNextTime()).To(Equal(2.0))
		})

		It("should not mutate the queue when peeking", func() {
			q.ScheduleInternal(a, 2)
			q.ScheduleInternal(b, 2)
			snapshot := q.Events()

			for i := 0; i < 3; i++ {
				Expect(q.PeekNextTime()).To(Equal(2.0))
			}

			Expect(q.Events()).To(Equal(snapshot))
		})

		It("should restart causal indices after popping the current real time", func() {
			q.ScheduleInternal(a, 1)
			q.ScheduleInternal(b, 1)
			q.PopNextBatch()

			q.ScheduleExternal("x", 1, c)
			q.ScheduleInternal(a, 1)

			Expect(times(q.Events())).To(Equal([]VTime{{1, 0}, {1, 1}}))
			Expect(q.PeekNextTime()).To(Equal(1.0))
		})

		It("should panic when empty", func() {
			Expect(q.IsEmpty()).To(BeTrue())
			Expect(func() { q.PopNextBatch() }).To(Panic())
			Expect(func() { q.PeekNextTime() }).To(Panic())
		})

		It("should refuse to schedule in the past", func() {
			q.ScheduleInternal(a, 5)
			q.PopNextBatch()

			Expect(func() { q.ScheduleInternal(a, 4) }).To(Panic())
			Expect(func() { q.ScheduleExternal("x", 4, a) }).To(Panic())
		})

		It("should refuse non-finite times", func() {
			Expect(func() { q.ScheduleInternal(a, math.NaN()) }).To(Panic())
			Expect(func() { q.ScheduleInternal(a, Never) }).To(Panic())
			Expect(func() { q.ScheduleExternal("x", math.Inf(-1), a) }).To(Panic())
		})
	})

	Context("when cancelling internal events", func() {
		It("should remove a stale internal event and renumber its bucket", func() {
			q.ScheduleInternal(a, 3)
			q.ScheduleInternal(b, 3)
			q.ScheduleInternal(c, 3)

			Expect(q.CancelInternal(a, 5)).To(Equal(1))

			events := q.Events()
			Expect(events).To(HaveLen(2))
			Expect(events[0].Model).To(Equal(b))
			Expect(times(events)).To(Equal([]VTime{{3, 0}, {3, 1}}))
		})

		It("should keep the event at the excepted time", func() {
			q.ScheduleInternal(a, 3)

			Expect(q.CancelInternal(a, 3)).To(Equal(0))
			Expect(q.Len()).To(Equal(1))
		})

		It("should turn a confluent event back into an external one", func() {
			q.ScheduleExternal("x", 3, a)
			q.ScheduleInternal(a, 3)

			Expect(q.CancelInternal(a, Never)).To(Equal(1))
			Expect(q.Events()[0].Kind).To(Equal(External))
			Expect(q.Events()[0].Inputs).To(Equal([]string{"x"}))
		})

		It("should copy the inputs of a confluent event it falls back from", func() {
			q.ScheduleExternal("x", 3, a)
			q.ScheduleInternal(a, 3)
			before := q.Events()[0]

			q.CancelInternal(a, Never)
			after := q.Events()[0]
			after.Inputs[0] = "changed"

			Expect(before.Inputs).To(Equal([]string{"x"}))
		})

		It("should leave external events alone", func() {
			q.ScheduleExternal("x", 3, a)

			Expect(q.CancelInternal(a, Never)).To(Equal(0))
			Expect(q.Len()).To(Equal(1))
		})
	})

	It("should keep one event per model per bucket and pop in order", func() {
		rng := rand.New(rand.NewSource(42))
		models := []ModelID{a, b, c, 3, 4}

		lastReal := math.Inf(-1)
		now := 0.0

		for round := 0; round < 200; round++ {
			for i := 0; i < 5; i++ {
				m := models[rng.Intn(len(models))]
				r := now + float64(rng.Intn(4))

				if rng.Intn(2) == 0 {
					q.ScheduleInternal(m, r)
				} else {
					q.ScheduleExternal("in", r, m)
				}

				expectSorted(q)
			}

			if q.IsEmpty() {
				continue
			}

			now = q.PeekNextTime()
			batch := q.PopNextBatch()

			Expect(now).To(BeNumerically(">=", lastReal))
			lastReal = now

			seen := make(map[ModelID]bool)
			for i, e := range batch {
				Expect(e.Time).To(Equal(VTime{Real: now, Index: uint64(i)}))
				Expect(seen[e.Model]).To(BeFalse())

				seen[e.Model] = true
			}
		}
	})
})
