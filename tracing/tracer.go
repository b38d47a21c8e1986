package tracing

// TraceWriter can write records to a storage.
type TraceWriter interface {
	// Init prepares the storage. It is called once before the first Write.
	Init()

	// Write buffers a record.
	Write(r Record)

	// Flush moves buffered records to the storage.
	Flush()
}
