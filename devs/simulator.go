package devs

import (
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/hooking"
	"github.com/sarchlab/devs/idgen"
)

type registeredModel[P any] struct {
	name  string
	model Model[P]
}

// producedOutput is step-local: one per model that emitted during a batch.
type producedOutput[P any] struct {
	model  ModelID
	output P
}

// A Simulator runs a coupled network of models.
//
// Configuration (AddModel, AddCoupling, AddInput, hooks) happens before
// Simulate. Simulate runs on the caller's goroutine. CurrentTime, Steps,
// PendingEvents, TraceSoFar, Inspect, Pause and Continue may be called from
// other goroutines while it runs, but never from inside a hook.
type Simulator[P any] struct {
	*hooking.HookableBase

	ids       idgen.Generator
	log       *logrus.Entry
	queue     *EventQueue[P]
	models    []registeredModel[P]
	nameIndex map[string]ModelID
	couplings *Couplings
	inputs    *InputSchedule[P]

	maxSteps uint64
	horizon  float64

	stepLock sync.Mutex
	now      VTime
	steps    uint64
	trace    Trace[P]
	ran      bool

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex
}

// NewSimulator creates a Simulator with default settings.
func NewSimulator[P any]() *Simulator[P] {
	return MakeBuilder[P]().Build()
}

// AddModel registers m under a unique name and returns its handle. The caller
// keeps ownership of m, which must stay valid for the whole run.
func (s *Simulator[P]) AddModel(name string, m Model[P]) ModelID {
	s.mustNotHaveRun("AddModel")

	if m == nil {
		panic("devs: model " + name + " is nil")
	}

	if _, dup := s.nameIndex[name]; dup {
		panic("devs: model " + name + " already registered")
	}

	id := ModelID(len(s.models))
	s.models = append(s.models, registeredModel[P]{name: name, model: m})
	s.nameIndex[name] = id

	return id
}

// AddCoupling directs the output of src to the external input of dst.
// Either end may be World.
func (s *Simulator[P]) AddCoupling(src, dst ModelID) {
	s.mustNotHaveRun("AddCoupling")
	s.couplings.Add(src, dst)
}

// RouteInputTo makes m the recipient of the exogenous input schedule.
func (s *Simulator[P]) RouteInputTo(m ModelID) {
	s.AddCoupling(World, m)
}

// TakeOutputFrom makes the output of m part of the trace.
func (s *Simulator[P]) TakeOutputFrom(m ModelID) {
	s.AddCoupling(m, World)
}

// AddInput schedules an input from the outside world at real time r.
func (s *Simulator[P]) AddInput(input P, r float64) {
	s.mustNotHaveRun("AddInput")
	s.inputs.Add(input, r)
}

// Model returns the model registered under id.
func (s *Simulator[P]) Model(id ModelID) Model[P] {
	return s.models[id].model
}

// ModelName returns the name id was registered with. World is named "world".
func (s *Simulator[P]) ModelName(id ModelID) string {
	if id == World {
		return "world"
	}

	if !s.isRegistered(id) {
		return id.String()
	}

	return s.models[id].name
}

// ModelByName looks a model up by its registered name.
func (s *Simulator[P]) ModelByName(name string) (ModelID, bool) {
	id, ok := s.nameIndex[name]

	return id, ok
}

// ModelNames returns the names of all models in registration order.
func (s *Simulator[P]) ModelNames() []string {
	names := make([]string, len(s.models))
	for i, m := range s.models {
		names[i] = m.name
	}

	return names
}

// Simulate runs until the queue is empty, the horizon is passed, or the step
// limit is hit, and returns the outputs that reached the outside world. A
// simulator can only run once.
func (s *Simulator[P]) Simulate() (Trace[P], error) {
	s.mustRunOnce()

	if err := s.validate(); err != nil {
		return nil, err
	}

	s.seed()

	for {
		if s.queue.IsEmpty() {
			s.log.WithField("steps", s.steps).Debug("event queue drained")
			return s.TraceSoFar(), nil
		}

		if next := s.queue.PeekNextTime(); next > s.horizon {
			s.log.WithField("next", next).Debug("horizon reached")
			return s.TraceSoFar(), nil
		}

		if s.maxSteps > 0 && s.steps >= s.maxSteps {
			return s.TraceSoFar(), fmt.Errorf(
				"%w: %d steps, next event at %v",
				ErrStepLimit, s.steps, s.queue.PeekNextTime())
		}

		s.pauseLock.Lock()
		s.step()
		s.pauseLock.Unlock()
	}
}

func (s *Simulator[P]) validate() error {
	for _, src := range s.couplings.Sources() {
		dst, _ := s.couplings.Destination(src)

		if src == World && dst == World {
			return fmt.Errorf("%w: coupling %v -> %v", ErrUnknownModel, src, dst)
		}

		for _, end := range []ModelID{src, dst} {
			if end != World && !s.isRegistered(end) {
				return fmt.Errorf("%w: coupling %v -> %v", ErrUnknownModel, src, dst)
			}
		}
	}

	if _, ok := s.couplings.Destination(World); !ok && s.inputs.Len() > 0 {
		return ErrNoInputRoute
	}

	return nil
}

func (s *Simulator[P]) seed() {
	s.stepLock.Lock()
	defer s.stepLock.Unlock()

	dst, ok := s.couplings.Destination(World)
	if !ok {
		return
	}

	s.inputs.Ascend(func(r float64, inputs []P) bool {
		for _, in := range inputs {
			s.queue.ScheduleExternal(in, r, dst)
		}

		return true
	})
}

func (s *Simulator[P]) step() {
	s.stepLock.Lock()
	defer s.stepLock.Unlock()

	r := s.queue.PeekNextTime()
	batch := s.queue.PopNextBatch()

	s.steps++
	s.now = batch[len(batch)-1].Time

	s.invoke(HookPosBeforeStep, r, batch)

	outputs := s.collectOutputs(batch)
	s.route(r, batch, outputs)
	s.dispatch(r, batch)
	s.reschedule(r, batch)

	s.invoke(HookPosAfterStep, r, batch)
}

// collectOutputs calls the output function of every model with an internal
// or confluent event, before any transition of the batch.
func (s *Simulator[P]) collectOutputs(batch []*Event[P]) []producedOutput[P] {
	outputs := make([]producedOutput[P], 0, len(batch))

	for _, e := range batch {
		if e.Kind == External {
			continue
		}

		out, ok := s.models[e.Model].model.Output()
		if !ok {
			continue
		}

		outputs = append(outputs, producedOutput[P]{model: e.Model, output: out})
	}

	return outputs
}

func (s *Simulator[P]) route(
	r float64,
	batch []*Event[P],
	outputs []producedOutput[P],
) {
	for _, o := range outputs {
		dst, ok := s.couplings.Destination(o.model)

		s.invoke(HookPosOutput, r, OutputRecord[P]{
			Source:      o.model,
			Destination: dst,
			Output:      o.output,
			Routed:      ok,
		})

		switch {
		case !ok:
			s.log.WithField("model", s.ModelName(o.model)).
				Debug("output dropped, model has no coupling")
		case dst == World:
			s.trace = append(s.trace, TraceEntry[P]{Time: r, Output: o.output})
		case !s.absorb(batch, dst, o.output):
			s.queue.ScheduleExternal(o.output, r, dst)
		}
	}
}

// absorb delivers input to dst inside the current batch when dst already
// reacts at this instant, so that dst still gets a single transition.
func (s *Simulator[P]) absorb(batch []*Event[P], dst ModelID, input P) bool {
	for i, e := range batch {
		if e.Model != dst {
			continue
		}

		kind := e.Kind
		if kind == Internal {
			kind = Confluent
		}

		inputs := make([]P, 0, len(e.Inputs)+1)
		inputs = append(inputs, e.Inputs...)
		inputs = append(inputs, input)

		batch[i] = &Event[P]{
			ID:     s.ids.Generate(),
			Kind:   kind,
			Time:   e.Time,
			Model:  dst,
			Inputs: inputs,
		}

		return true
	}

	return false
}

func (s *Simulator[P]) dispatch(r float64, batch []*Event[P]) {
	for _, e := range batch {
		m := s.models[e.Model].model

		s.invoke(HookPosBeforeTransition, r, e)

		switch e.Kind {
		case Internal:
			m.InternalTransition(r)
		case External:
			m.ExternalTransition(slices.Clone(e.Inputs), r)
		case Confluent:
			m.ConfluentTransition(slices.Clone(e.Inputs), r)
		}

		s.invoke(HookPosAfterTransition, r, e)
	}
}

// reschedule asks every model of the batch for its next internal event. The
// previous internal slot of a model is withdrawn if it moved.
func (s *Simulator[P]) reschedule(r float64, batch []*Event[P]) {
	seen := make(map[ModelID]bool, len(batch))

	for _, e := range batch {
		if seen[e.Model] {
			continue
		}
		seen[e.Model] = true

		next := s.models[e.Model].model.NextInternalTime()
		s.queue.CancelInternal(e.Model, next)

		if IsNever(next) {
			continue
		}

		outcome := s.queue.ScheduleInternal(e.Model, next)
		s.invoke(HookPosSchedule, r, ScheduleRecord{
			Model:   e.Model,
			Time:    next,
			Outcome: outcome,
		})
	}
}

func (s *Simulator[P]) invoke(pos *hooking.HookPos, r float64, item any) {
	s.Fire(s, hooking.Clock{Now: r, Step: s.steps}, pos, item)
}

// CurrentTime returns the timestamp of the last event processed.
func (s *Simulator[P]) CurrentTime() VTime {
	s.stepLock.Lock()
	defer s.stepLock.Unlock()

	return s.now
}

// Steps returns the number of batches processed so far.
func (s *Simulator[P]) Steps() uint64 {
	s.stepLock.Lock()
	defer s.stepLock.Unlock()

	return s.steps
}

// PendingEvents returns a copy of the queued events.
func (s *Simulator[P]) PendingEvents() []Event[P] {
	s.stepLock.Lock()
	defer s.stepLock.Unlock()

	return s.queue.Events()
}

// TraceSoFar returns a copy of the outputs emitted to the outside world so
// far.
func (s *Simulator[P]) TraceSoFar() Trace[P] {
	s.stepLock.Lock()
	defer s.stepLock.Unlock()

	return slices.Clone(s.trace)
}

// Inspect runs f between two steps, when no model is in the middle of a
// transition.
func (s *Simulator[P]) Inspect(f func()) {
	s.stepLock.Lock()
	defer s.stepLock.Unlock()

	f()
}

// Pause stops the simulation before the next step until Continue is called.
func (s *Simulator[P]) Pause() {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if s.isPaused {
		return
	}

	s.pauseLock.Lock()
	s.isPaused = true
}

// Continue resumes a paused simulation.
func (s *Simulator[P]) Continue() {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if !s.isPaused {
		return
	}

	s.pauseLock.Unlock()
	s.isPaused = false
}

// IsPaused reports whether Pause is in effect.
func (s *Simulator[P]) IsPaused() bool {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	return s.isPaused
}

func (s *Simulator[P]) isRegistered(id ModelID) bool {
	return id >= 0 && int(id) < len(s.models)
}

func (s *Simulator[P]) mustNotHaveRun(op string) {
	if s.ran {
		panic("devs: " + op + " called after the simulation started")
	}
}

func (s *Simulator[P]) mustRunOnce() {
	s.stepLock.Lock()
	defer s.stepLock.Unlock()

	if s.ran {
		panic("devs: Simulate called twice")
	}

	s.ran = true
	s.Seal()
}
