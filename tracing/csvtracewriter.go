package tracing

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/devs/idgen"
)

var csvHeader = []string{"ID", "Step", "Time", "Index", "Model", "Kind", "Payload"}

// CSVTraceWriter is a trace writer that can store the records into a CSV
// file.
type CSVTraceWriter struct {
	path string
	file *os.File
	csv  *csv.Writer

	records    []Record
	bufferSize int
}

// NewCSVTraceWriter creates a new CSVTraceWriter. The ".csv" extension is
// added to path when missing. An empty path picks a unique file name.
func NewCSVTraceWriter(path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Path returns the name of the file the writer writes to.
func (t *CSVTraceWriter) Path() string {
	return t.path
}

// Init creates the tracing csv file. It panics if the file already exists.
func (t *CSVTraceWriter) Init() {
	if t.path == "" {
		t.path = "devs_trace_" + idgen.NewRunID()
	}

	if !strings.HasSuffix(t.path, ".csv") {
		t.path += ".csv"
	}

	_, err := os.Stat(t.path)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", t.path))
	}

	file, err := os.Create(t.path)
	if err != nil {
		panic(err)
	}

	t.file = file
	t.csv = csv.NewWriter(file)
	t.mustWrite(csvHeader)

	atexit.Register(func() {
		t.Close()
	})
}

// Write buffers a record.
func (t *CSVTraceWriter) Write(r Record) {
	t.records = append(t.records, r)
	if len(t.records) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered records to the CSV file.
func (t *CSVTraceWriter) Flush() {
	for _, r := range t.records {
		t.mustWrite([]string{
			r.ID,
			strconv.FormatUint(r.Step, 10),
			strconv.FormatFloat(r.Time, 'g', -1, 64),
			strconv.FormatUint(r.Index, 10),
			r.Model,
			r.Kind,
			r.Payload,
		})
	}

	t.records = nil

	t.csv.Flush()
	if err := t.csv.Error(); err != nil {
		panic(err)
	}
}

// Close flushes the remaining records and closes the file. Calling Close
// more than once is harmless.
func (t *CSVTraceWriter) Close() {
	if t.file == nil {
		return
	}

	t.Flush()

	err := t.file.Close()
	if err != nil {
		panic(err)
	}

	t.file = nil
}

func (t *CSVTraceWriter) mustWrite(row []string) {
	if err := t.csv.Write(row); err != nil {
		panic(err)
	}
}
