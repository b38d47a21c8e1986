package devs

import "fmt"

// EventKind tells which transition function an event triggers.
type EventKind int

// Event kinds.
const (
	// Internal events fire a model's scheduled internal transition.
	Internal EventKind = iota
	// External events deliver inputs to a model.
	External
	// Confluent events are an internal and an external event of the same
	// model coinciding at the same instant.
	Confluent
)

func (k EventKind) String() string {
	switch k {
	case Internal:
		return "internal"
	case External:
		return "external"
	case Confluent:
		return "confluent"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// An Event is something going to happen to a model at a given instant.
//
// Events are immutable. When the queue merges two events it replaces the old
// entry with a new Event; the Inputs slice of an event is never modified after
// the event is created.
type Event[P any] struct {
	ID     string
	Kind   EventKind
	Time   VTime
	Model  ModelID
	Inputs []P
}

func (e Event[P]) String() string {
	return fmt.Sprintf("%s %s@%s", e.ID, e.Kind, e.Time)
}
