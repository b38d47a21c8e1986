package devs

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/hooking"
)

// namer resolves model handles into names for log lines.
type namer interface {
	ModelName(id ModelID) string
}

// EventLogger is a hook that logs every transition and output at debug level.
type EventLogger[P any] struct {
	log   *logrus.Entry
	names namer
}

// NewEventLogger returns a hook writing to log. Model names are resolved
// through names, usually the simulator the hook is attached to.
func NewEventLogger[P any](log *logrus.Entry, names namer) *EventLogger[P] {
	return &EventLogger[P]{log: log, names: names}
}

// Func writes the event information into the logger.
func (h *EventLogger[P]) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosBeforeTransition:
		evt, ok := ctx.Item.(*Event[P])
		if !ok {
			return
		}

		h.log.WithFields(logrus.Fields{
			"step":   ctx.Step,
			"time":   evt.Time.String(),
			"kind":   evt.Kind.String(),
			"model":  h.names.ModelName(evt.Model),
			"inputs": evt.Inputs,
		}).Debug("transition")
	case HookPosOutput:
		rec, ok := ctx.Item.(OutputRecord[P])
		if !ok {
			return
		}

		to := "none"
		if rec.Routed {
			to = h.names.ModelName(rec.Destination)
		}

		h.log.WithFields(logrus.Fields{
			"step":   ctx.Step,
			"time":   FormatTime(ctx.Now),
			"model":  h.names.ModelName(rec.Source),
			"to":     to,
			"output": rec.Output,
		}).Debug("output")
	}
}
