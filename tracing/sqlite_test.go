package tracing

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SQLite trace", func() {
	var (
		dir    string
		writer *SQLiteTraceWriter
		reader *SQLiteTraceReader
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		writer = NewSQLiteTraceWriter(filepath.Join(dir, "trace"))
		writer.Init()

		s := newPipeline()
		CollectTrace[string](s, writer, nil)

		_, err := s.Simulate()
		Expect(err).NotTo(HaveOccurred())
		writer.Flush()

		reader = NewSQLiteTraceReader(writer.Filename())
		reader.Init()
	})

	AfterEach(func() {
		Expect(reader.Close()).To(Succeed())
		Expect(writer.Close()).To(Succeed())
	})

	It("should create the database file", func() {
		_, err := os.Stat(filepath.Join(dir, "trace.sqlite3"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should list the models", func() {
		Expect(reader.ListModels()).To(Equal([]string{"drill", "press"}))
	})

	It("should filter by model and kind", func() {
		records := reader.ListRecords(RecordQuery{
			Model: "drill",
			Kind:  KindOutput,
		})

		Expect(records).To(HaveLen(14))
		Expect(records[0].Time).To(Equal(4.5))
		Expect(records[0].Payload).To(Equal("1 part completed"))
	})

	It("should filter by time range", func() {
		records := reader.ListRecords(RecordQuery{
			Model:           "drill",
			Kind:            KindOutput,
			EnableTimeRange: true,
			StartTime:       4.5,
			EndTime:         8.5,
		})

		times := make([]float64, len(records))
		for i, r := range records {
			times[i] = r.Time
		}

		Expect(times).To(Equal([]float64{4.5, 6.5, 8.5}))
	})

	It("should keep the write order", func() {
		records := reader.ListRecords(RecordQuery{})

		Expect(records[0].Model).To(Equal("press"))
		Expect(records[0].Kind).To(Equal(KindExternal))
		Expect(records[0].Payload).To(Equal("12"))

		for i := 1; i < len(records); i++ {
			Expect(records[i].Step).To(BeNumerically(">=", records[i-1].Step))
		}
	})

	It("should refuse to overwrite a database", func() {
		again := NewSQLiteTraceWriter(filepath.Join(dir, "trace"))

		Expect(again.Init).To(Panic())
	})
})
