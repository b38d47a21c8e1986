package devs

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/sarchlab/devs/idgen"
)

// ScheduleOutcome reports what a scheduling call did to the queue.
type ScheduleOutcome int

// Scheduling outcomes.
const (
	// Inserted means a new event entered the queue.
	Inserted ScheduleOutcome = iota
	// Merged means an internal and an external event of the same model were
	// combined into a confluent event.
	Merged
	// Appended means an input joined the input bag of an event already queued
	// for the same model and instant.
	Appended
	// Suppressed means the model already had an internal reaction queued at
	// that instant and nothing changed.
	Suppressed
)

func (o ScheduleOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Merged:
		return "merged"
	case Appended:
		return "appended"
	case Suppressed:
		return "suppressed"
	default:
		return fmt.Sprintf("ScheduleOutcome(%d)", int(o))
	}
}

// EventQueue keeps events sorted by super-dense time.
//
// Events sharing a real coordinate form a bucket. Causal indices inside a
// bucket are dense and follow insertion order. A model owns at most one event
// per bucket: scheduling a second reaction for the same model at the same
// real time merges into the existing entry instead of adding one.
//
// The queue is not safe for concurrent use.
type EventQueue[P any] struct {
	events []*Event[P]
	ids    idgen.Generator

	popped  bool
	lastPop VTime
}

// NewEventQueue creates an empty queue. Event IDs are drawn from ids.
func NewEventQueue[P any](ids idgen.Generator) *EventQueue[P] {
	if ids == nil {
		ids = idgen.NewSequential()
	}

	return &EventQueue[P]{ids: ids}
}

// ScheduleInternal schedules the internal transition of model at real time
// r.
func (q *EventQueue[P]) ScheduleInternal(model ModelID, r float64) ScheduleOutcome {
	q.mustBeSchedulable(r)

	lo, hi := q.bucket(r)
	for i := lo; i < hi; i++ {
		existing := q.events[i]
		if existing.Model != model {
			continue
		}

		switch existing.Kind {
		case External:
			q.events[i] = q.newEvent(
				Confluent, existing.Time, model, slices.Clone(existing.Inputs))

			return Merged
		case Internal, Confluent:
			return Suppressed
		}
	}

	q.insert(hi, q.newEvent(Internal, q.nextTime(r, lo, hi), model, nil))

	return Inserted
}

// ScheduleExternal delivers input to model at real time r.
func (q *EventQueue[P]) ScheduleExternal(
	input P,
	r float64,
	model ModelID,
) ScheduleOutcome {
	q.mustBeSchedulable(r)

	lo, hi := q.bucket(r)
	for i := lo; i < hi; i++ {
		existing := q.events[i]
		if existing.Model != model {
			continue
		}

		switch existing.Kind {
		case Internal:
			q.events[i] = q.newEvent(
				Confluent, existing.Time, model, []P{input})

			return Merged
		case External, Confluent:
			inputs := make([]P, 0, len(existing.Inputs)+1)
			inputs = append(inputs, existing.Inputs...)
			inputs = append(inputs, input)
			q.events[i] = q.newEvent(existing.Kind, existing.Time, model, inputs)

			return Appended
		}
	}

	q.insert(hi, q.newEvent(External, q.nextTime(r, lo, hi), model, []P{input}))

	return Inserted
}

// CancelInternal withdraws the internal reaction model has queued at any real
// time other than except. An internal event is removed; a confluent event
// falls back to an external event carrying the same inputs. Later entries of
// the affected bucket are renumbered so causal indices stay dense. It returns
// the number of events affected.
func (q *EventQueue[P]) CancelInternal(model ModelID, except float64) int {
	affected := 0

	for i := 0; i < len(q.events); i++ {
		e := q.events[i]
		if e.Model != model || e.Time.Real == except {
			continue
		}

		switch e.Kind {
		case Internal:
			q.removeAt(i)
			i--
			affected++
		case Confluent:
			q.events[i] = q.newEvent(
				External, e.Time, model, slices.Clone(e.Inputs))
			affected++
		case External:
		}
	}

	return affected
}

func (q *EventQueue[P]) removeAt(i int) {
	r := q.events[i].Time.Real
	q.events = slices.Delete(q.events, i, i+1)

	for j := i; j < len(q.events) && q.events[j].Time.Real == r; j++ {
		shifted := *q.events[j]
		shifted.Time.Index--
		q.events[j] = &shifted
	}
}

// PopNextBatch removes and returns every event at the smallest real
// coordinate in the queue, in causal order. The queue must not be empty.
func (q *EventQueue[P]) PopNextBatch() []*Event[P] {
	q.mustNotBeEmpty("PopNextBatch")

	_, hi := q.bucket(q.events[0].Time.Real)

	batch := make([]*Event[P], hi)
	copy(batch, q.events[:hi])
	q.events = slices.Delete(q.events, 0, hi)

	q.popped = true
	q.lastPop = batch[hi-1].Time

	return batch
}

// PeekNextTime returns the smallest real coordinate in the queue without
// removing anything. The queue must not be empty.
func (q *EventQueue[P]) PeekNextTime() float64 {
	q.mustNotBeEmpty("PeekNextTime")

	return q.events[0].Time.Real
}

// IsEmpty reports whether no event is queued.
func (q *EventQueue[P]) IsEmpty() bool {
	return len(q.events) == 0
}

// Len returns the number of queued events.
func (q *EventQueue[P]) Len() int {
	return len(q.events)
}

// Events returns a copy of the queued events in time order.
func (q *EventQueue[P]) Events() []Event[P] {
	events := make([]Event[P], len(q.events))
	for i, e := range q.events {
		events[i] = *e
	}

	return events
}

// bucket returns the half-open index range of the events at real time r. When
// there is none, lo == hi is where an event at r would be inserted.
func (q *EventQueue[P]) bucket(r float64) (lo, hi int) {
	lo = sort.Search(len(q.events), func(i int) bool {
		return q.events[i].Time.Real >= r
	})

	hi = lo
	for hi < len(q.events) && q.events[hi].Time.Real == r {
		hi++
	}

	return lo, hi
}

// nextTime is the timestamp of an event appended to the bucket [lo, hi) at r.
// An empty bucket starts at causal index 0.
func (q *EventQueue[P]) nextTime(r float64, lo, hi int) VTime {
	if hi > lo {
		return VTime{Real: r, Index: q.events[hi-1].Time.Index + 1}
	}

	return VTime{Real: r}
}

func (q *EventQueue[P]) insert(at int, e *Event[P]) {
	q.events = slices.Insert(q.events, at, e)
}

func (q *EventQueue[P]) newEvent(
	kind EventKind,
	t VTime,
	model ModelID,
	inputs []P,
) *Event[P] {
	return &Event[P]{
		ID:     q.ids.Generate(),
		Kind:   kind,
		Time:   t,
		Model:  model,
		Inputs: inputs,
	}
}

func (q *EventQueue[P]) mustBeSchedulable(r float64) {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		panic(fmt.Sprintf("devs: cannot schedule an event at %v", r))
	}

	if q.popped && r < q.lastPop.Real {
		panic(fmt.Sprintf(
			"devs: cannot schedule an event in the past, r %v, now %v",
			r, q.lastPop.Real,
		))
	}
}

func (q *EventQueue[P]) mustNotBeEmpty(op string) {
	if len(q.events) == 0 {
		panic("devs: " + op + " called on an empty event queue")
	}
}
