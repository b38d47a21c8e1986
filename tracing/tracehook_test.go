package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/machine"
)

func newPipeline() *devs.Simulator[string] {
	s := devs.NewSimulator[string]()

	press := s.AddModel("press", machine.NewPress())
	drill := s.AddModel("drill", machine.NewDrill())
	s.AddCoupling(press, drill)
	s.RouteInputTo(press)
	s.TakeOutputFrom(drill)

	s.AddInput("12", 1.5)
	s.AddInput("2", 2.7)

	return s
}

var _ = Describe("TraceHook", func() {
	var (
		s   *devs.Simulator[string]
		mem *MemoryTraceWriter
	)

	BeforeEach(func() {
		s = newPipeline()
		mem = NewMemoryTraceWriter()
	})

	It("should record transitions, outputs and schedules", func() {
		CollectTrace[string](s, mem, nil)

		_, err := s.Simulate()
		Expect(err).NotTo(HaveOccurred())

		records := mem.Records(nil)
		Expect(records[0]).To(Equal(Record{
			ID:      records[0].ID,
			Step:    1,
			Time:    1.5,
			Index:   0,
			Model:   "press",
			Kind:    KindExternal,
			Payload: "12",
		}))
		Expect(records[1].Kind).To(Equal(KindSchedule))
		Expect(records[1].Time).To(Equal(2.5))
		Expect(records[1].Payload).To(Equal("inserted"))

		completed := mem.Records(func(r Record) bool {
			return r.Kind == KindOutput && r.Model == "drill"
		})
		Expect(completed).To(HaveLen(14))
		Expect(completed[0].Time).To(Equal(4.5))
		Expect(completed[13].Time).To(Equal(30.5))
		Expect(completed[0].Payload).To(Equal("1 part completed"))
	})

	It("should drop filtered records", func() {
		h := CollectTrace[string](s, mem, func(p string) string {
			return "<" + p + ">"
		})
		h.SetFilter(func(r Record) bool { return r.Kind == KindConfluent })

		_, err := s.Simulate()
		Expect(err).NotTo(HaveOccurred())

		Expect(mem.Len()).To(BeNumerically(">", 0))
		for _, r := range mem.Records(nil) {
			Expect(r.Kind).To(Equal(KindConfluent))
			Expect(r.Payload).To(HavePrefix("<"))
		}
	})

	It("should refuse the same writer twice", func() {
		CollectTrace[string](s, mem, nil)

		Expect(func() { CollectTrace[string](s, mem, nil) }).To(Panic())
	})
})
