package tracing

import (
	"encoding/csv"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CSVTraceWriter", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should write a header and one row per record", func() {
		w := NewCSVTraceWriter(filepath.Join(dir, "trace"))
		w.Init()

		w.Write(Record{
			ID: "evt-1", Step: 1, Time: 1.5, Model: "press",
			Kind: KindExternal, Payload: "12",
		})
		w.Write(Record{
			ID: "rec-1", Step: 2, Time: 2.5, Index: 1, Model: "press",
			Kind: KindOutput, Payload: "a, b",
		})
		w.Close()

		Expect(w.Path()).To(Equal(filepath.Join(dir, "trace.csv")))

		f, err := os.Open(w.Path())
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		rows, err := csv.NewReader(f).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(Equal([][]string{
			{"ID", "Step", "Time", "Index", "Model", "Kind", "Payload"},
			{"evt-1", "1", "1.5", "0", "press", "external", "12"},
			{"rec-1", "2", "2.5", "1", "press", "output", "a, b"},
		}))
	})

	It("should refuse to overwrite a file", func() {
		path := filepath.Join(dir, "taken.csv")
		Expect(os.WriteFile(path, nil, 0o644)).To(Succeed())

		w := NewCSVTraceWriter(path)

		Expect(w.Init).To(Panic())
	})
})
