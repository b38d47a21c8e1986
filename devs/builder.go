package devs

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/hooking"
	"github.com/sarchlab/devs/idgen"
)

// Builder can build Simulators.
type Builder[P any] struct {
	maxSteps uint64
	horizon  float64
	ids      idgen.Generator
	log      *logrus.Entry
}

// MakeBuilder creates a builder with no step limit and no horizon.
func MakeBuilder[P any]() Builder[P] {
	return Builder[P]{
		horizon: Never,
	}
}

// WithMaxSteps bounds the number of batches a run may process. Zero means no
// limit.
func (b Builder[P]) WithMaxSteps(n uint64) Builder[P] {
	b.maxSteps = n
	return b
}

// WithHorizon stops the run before the first batch later than t.
func (b Builder[P]) WithHorizon(t float64) Builder[P] {
	if math.IsNaN(t) {
		panic(fmt.Sprintf("devs: invalid horizon %v", t))
	}

	b.horizon = t

	return b
}

// WithIDGenerator sets where event IDs come from.
func (b Builder[P]) WithIDGenerator(g idgen.Generator) Builder[P] {
	b.ids = g
	return b
}

// WithLogger sets the logger used for the simulator's debug messages.
func (b Builder[P]) WithLogger(l *logrus.Entry) Builder[P] {
	b.log = l
	return b
}

// Build creates a new Simulator.
func (b Builder[P]) Build() *Simulator[P] {
	ids := b.ids
	if ids == nil {
		ids = idgen.NewPrefixed("evt-")
	}

	log := b.log
	if log == nil {
		log = logrus.WithField("component", "devs")
	}

	return &Simulator[P]{
		HookableBase: hooking.NewHookableBase(),
		ids:          ids,
		log:          log,
		queue:        NewEventQueue[P](ids),
		nameIndex:    make(map[string]ModelID),
		couplings:    NewCouplings(),
		inputs:       NewInputSchedule[P](),
		maxSteps:     b.maxSteps,
		horizon:      b.horizon,
	}
}
