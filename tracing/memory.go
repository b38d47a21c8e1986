package tracing

import (
	"slices"
	"sync"
)

// MemoryTraceWriter keeps records in memory. It can be read while the
// simulation is writing to it.
type MemoryTraceWriter struct {
	lock    sync.RWMutex
	records []Record
}

// NewMemoryTraceWriter creates an empty MemoryTraceWriter.
func NewMemoryTraceWriter() *MemoryTraceWriter {
	return &MemoryTraceWriter{}
}

// Init does nothing.
func (w *MemoryTraceWriter) Init() {}

// Write stores a record.
func (w *MemoryTraceWriter) Write(r Record) {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.records = append(w.records, r)
}

// Flush does nothing.
func (w *MemoryTraceWriter) Flush() {}

// Len returns the number of records stored.
func (w *MemoryTraceWriter) Len() int {
	w.lock.RLock()
	defer w.lock.RUnlock()

	return len(w.records)
}

// Records returns a copy of the stored records, optionally limited to those
// accepted by filter.
func (w *MemoryTraceWriter) Records(filter RecordFilter) []Record {
	w.lock.RLock()
	defer w.lock.RUnlock()

	if filter == nil {
		return slices.Clone(w.records)
	}

	var out []Record
	for _, r := range w.records {
		if filter(r) {
			out = append(out, r)
		}
	}

	return out
}
