package devs

import "fmt"

// Model is the capability set every simulated model exposes to the kernel.
// The kernel never depends on concrete model types.
type Model[P any] interface {
	// Output is the DEVS output function. It is called on the state before
	// the transition of the same instant and must not change the state. The
	// boolean result is false when the model emits nothing.
	Output() (P, bool)

	// InternalTransition is called once per internal event of the model.
	InternalTransition(now float64)

	// ExternalTransition is called once per external event. Inputs holds
	// every input that reached the model at this instant, in arrival order.
	ExternalTransition(inputs []P, now float64)

	// ConfluentTransition replaces the internal and external transitions
	// when both fall on the same instant.
	ConfluentTransition(inputs []P, now float64)

	// NextInternalTime returns the absolute time of the model's next internal
	// event, or Never.
	NextInternalTime() float64
}

// ModelID is a handle to a model registered with a Simulator. Handles are only
// meaningful for the simulator that issued them.
type ModelID int

// World is the outside world. Coupling from World routes exogenous inputs;
// coupling to World makes a model's output part of the trace.
const World ModelID = -1

func (id ModelID) String() string {
	if id == World {
		return "world"
	}

	return fmt.Sprintf("model#%d", int(id))
}
