// Package machine provides the part-processing machines used by the example
// pipeline: a press feeding a drill.
//
// A machine holds a number of parts. It works on one part at a time, taking a
// fixed processing time per part, and emits its output each time a part is
// done. Inputs are part counts encoded as decimal strings.
package machine

import (
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/devs"
)

// State is the observable state of a machine.
type State struct {
	Parts    int     `json:"parts"`
	Next     float64 `json:"next"`
	Rejected int     `json:"rejected"`
}

// Machine is a single-server part processor.
type Machine struct {
	name           string
	processingTime float64
	output         string

	parts    int
	next     float64
	rejected int
}

// New creates an idle machine that takes processingTime per part and emits
// output when a part is done.
func New(name string, processingTime float64, output string) *Machine {
	if !(processingTime > 0) {
		panic("machine: processing time must be positive")
	}

	return &Machine{
		name:           name,
		processingTime: processingTime,
		output:         output,
		next:           devs.Never,
	}
}

// Standard press and drill settings.
const (
	PressProcessingTime = 1.0
	PressOutput         = "1"
	DrillProcessingTime = 2.0
	DrillOutput         = "1 part completed"
)

// NewPress creates a press: one time unit per part, emitting one part.
func NewPress() *Machine {
	return New("press", PressProcessingTime, PressOutput)
}

// NewDrill creates a drill: two time units per part.
func NewDrill() *Machine {
	return New("drill", DrillProcessingTime, DrillOutput)
}

// Name returns the name of the machine.
func (m *Machine) Name() string {
	return m.name
}

// Parts returns the number of parts held, including the one being processed.
func (m *Machine) Parts() int {
	return m.parts
}

// Rejected returns the number of inputs that were not valid part counts.
func (m *Machine) Rejected() int {
	return m.rejected
}

// State returns a snapshot of the machine state.
func (m *Machine) State() State {
	return State{Parts: m.parts, Next: m.next, Rejected: m.rejected}
}

// Output emits the machine's output. It is only called when a part is done.
func (m *Machine) Output() (string, bool) {
	return m.output, true
}

// InternalTransition finishes the current part and starts the next one, if
// any.
func (m *Machine) InternalTransition(now float64) {
	if m.parts > 0 {
		m.parts--
	}

	if m.parts > 0 {
		m.next = now + m.processingTime
		return
	}

	m.next = devs.Never
}

// ExternalTransition adds the received parts. An idle machine starts working
// right away; a busy one keeps its current schedule.
func (m *Machine) ExternalTransition(inputs []string, now float64) {
	wasIdle := m.parts == 0

	m.parts += m.acceptParts(inputs, now)

	if wasIdle && m.parts > 0 {
		m.next = now + m.processingTime
	}
}

// ConfluentTransition finishes the current part, then takes the new parts.
func (m *Machine) ConfluentTransition(inputs []string, now float64) {
	m.InternalTransition(now)
	m.ExternalTransition(inputs, now)
}

// NextInternalTime returns when the current part is done.
func (m *Machine) NextInternalTime() float64 {
	return m.next
}

func (m *Machine) acceptParts(inputs []string, now float64) int {
	total := 0

	for _, in := range inputs {
		n, err := strconv.Atoi(in)
		if err != nil || n < 0 {
			m.rejected++
			logrus.WithFields(logrus.Fields{
				"machine": m.name,
				"input":   in,
				"time":    now,
			}).Warn("rejected input, not a part count")

			continue
		}

		total += n
	}

	return total
}

var _ devs.Model[string] = (*Machine)(nil)
