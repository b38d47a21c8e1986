package tracing

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/hooking"
	"github.com/sarchlab/devs/idgen"
)

// NamedHookable is a hookable simulation that can name its models.
type NamedHookable interface {
	hooking.Hookable
	ModelName(id devs.ModelID) string
}

// CollectTrace attaches a hook to sim that writes every transition, output
// and scheduling decision to w. Payloads are rendered with format, or with
// fmt's %v when format is nil.
func CollectTrace[P any](
	sim NamedHookable,
	w TraceWriter,
	format func(P) string,
) *TraceHook[P] {
	for _, hook := range sim.Hooks() {
		hook, ok := hook.(*TraceHook[P])
		if ok && hook.writer == w {
			panic(fmt.Sprintf(
				"tracing: simulation already has writer %s",
				reflect.TypeOf(w)))
		}
	}

	h := NewTraceHook(sim, w, format)
	sim.AcceptHook(h)

	return h
}

// A TraceHook turns simulator hook invocations into records.
type TraceHook[P any] struct {
	sim    NamedHookable
	writer TraceWriter
	format func(P) string
	ids    idgen.Generator
	filter RecordFilter
}

// NewTraceHook creates a hook writing to w. It does not attach itself.
func NewTraceHook[P any](
	sim NamedHookable,
	w TraceWriter,
	format func(P) string,
) *TraceHook[P] {
	if format == nil {
		format = func(p P) string { return fmt.Sprint(p) }
	}

	return &TraceHook[P]{
		sim:    sim,
		writer: w,
		format: format,
		ids:    idgen.NewPrefixed("rec-"),
	}
}

// SetFilter drops every record for which f returns false.
func (h *TraceHook[P]) SetFilter(f RecordFilter) {
	h.filter = f
}

// Func converts the hook context into a record.
func (h *TraceHook[P]) Func(ctx hooking.HookCtx) {
	r, ok := h.record(ctx)
	if !ok {
		return
	}

	if h.filter != nil && !h.filter(r) {
		return
	}

	h.writer.Write(r)
}

func (h *TraceHook[P]) record(ctx hooking.HookCtx) (Record, bool) {
	switch ctx.Pos {
	case devs.HookPosBeforeTransition:
		evt, ok := ctx.Item.(*devs.Event[P])
		if !ok {
			return Record{}, false
		}

		return Record{
			ID:      evt.ID,
			Step:    ctx.Step,
			Time:    evt.Time.Real,
			Index:   evt.Time.Index,
			Model:   h.sim.ModelName(evt.Model),
			Kind:    evt.Kind.String(),
			Payload: h.joinInputs(evt.Inputs),
		}, true
	case devs.HookPosOutput:
		out, ok := ctx.Item.(devs.OutputRecord[P])
		if !ok {
			return Record{}, false
		}

		return Record{
			ID:      h.ids.Generate(),
			Step:    ctx.Step,
			Time:    ctx.Now,
			Model:   h.sim.ModelName(out.Source),
			Kind:    KindOutput,
			Payload: h.format(out.Output),
		}, true
	case devs.HookPosSchedule:
		s, ok := ctx.Item.(devs.ScheduleRecord)
		if !ok {
			return Record{}, false
		}

		return Record{
			ID:      h.ids.Generate(),
			Step:    ctx.Step,
			Time:    s.Time,
			Model:   h.sim.ModelName(s.Model),
			Kind:    KindSchedule,
			Payload: s.Outcome.String(),
		}, true
	}

	return Record{}, false
}

func (h *TraceHook[P]) joinInputs(inputs []P) string {
	parts := make([]string, len(inputs))
	for i, in := range inputs {
		parts[i] = h.format(in)
	}

	return strings.Join(parts, ";")
}
