package devs

import "errors"

var (
	// ErrUnknownModel is returned when a coupling names a model that is not
	// registered with the simulator, or couples the outside world to itself.
	ErrUnknownModel = errors.New("devs: unknown model")

	// ErrNoInputRoute is returned when exogenous inputs exist but no model
	// receives them.
	ErrNoInputRoute = errors.New("devs: inputs scheduled but no model receives them")

	// ErrStepLimit is returned when a run stops because it reached the
	// configured maximum number of steps with events still queued.
	ErrStepLimit = errors.New("devs: step limit reached")
)
