// Package tracing records what happens during a simulation run and stores it
// in CSV files, SQLite databases, or memory.
package tracing

// Record kinds. Transition records reuse the event kind names.
const (
	KindInternal  = "internal"
	KindExternal  = "external"
	KindConfluent = "confluent"
	KindOutput    = "output"
	KindSchedule  = "schedule"
)

// A Record is one traced happening: a transition, an output or a scheduling
// decision.
type Record struct {
	ID      string  `json:"id"`
	Step    uint64  `json:"step"`
	Time    float64 `json:"time"`
	Index   uint64  `json:"index"`
	Model   string  `json:"model"`
	Kind    string  `json:"kind"`
	Payload string  `json:"payload"`
}

// RecordFilter is a function that can filter interesting records. If this
// function returns true, the record is considered useful.
type RecordFilter func(r Record) bool
