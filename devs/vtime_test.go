package devs

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("VTime", func() {
	DescribeTable("Compare",
		func(a, b VTime, want int) {
			Expect(a.Compare(b)).To(Equal(want))
			Expect(b.Compare(a)).To(Equal(-want))
		},
		Entry("real coordinate first", VTime{1, 5}, VTime{2, 0}, -1),
		Entry("causal index breaks ties", VTime{1, 0}, VTime{1, 1}, -1),
		Entry("equal", VTime{1.5, 2}, VTime{1.5, 2}, 0),
		Entry("later real wins over index", VTime{3, 0}, VTime{2, 9}, 1),
	)

	It("should require both fields for equality", func() {
		Expect(VTime{1, 0}.Equal(VTime{1, 0})).To(BeTrue())
		Expect(VTime{1, 0}.Equal(VTime{1, 1})).To(BeFalse())
		Expect(VTime{1, 0}.Before(VTime{1, 1})).To(BeTrue())
	})

	It("should not round real coordinates", func() {
		x := 0.1
		a := VTime{Real: x + 0.2}
		b := VTime{Real: 0.3}

		Expect(a.Equal(b)).To(BeFalse())
	})

	It("should print as a pair", func() {
		Expect(VTime{2.5, 3}.String()).To(Equal("(2.5, 3)"))
	})

	It("should recognise Never", func() {
		Expect(IsNever(Never)).To(BeTrue())
		Expect(IsNever(math.MaxFloat64)).To(BeFalse())
	})
})
