package devs

import "github.com/sarchlab/devs/hooking"

// HookPosBeforeStep triggers after a batch is popped, before any output is
// collected. Item is the batch, a []*Event[P].
var HookPosBeforeStep = &hooking.HookPos{Name: "BeforeStep"}

// HookPosAfterStep triggers once the batch's models are rescheduled. Item is
// the batch.
var HookPosAfterStep = &hooking.HookPos{Name: "AfterStep"}

// HookPosOutput triggers for every non-empty output a model emits. Item is an
// OutputRecord[P].
var HookPosOutput = &hooking.HookPos{Name: "Output"}

// HookPosBeforeTransition triggers before a transition function is called.
// Item is the *Event[P] being dispatched.
var HookPosBeforeTransition = &hooking.HookPos{Name: "BeforeTransition"}

// HookPosAfterTransition triggers after a transition function returns. Item
// is the *Event[P] that was dispatched.
var HookPosAfterTransition = &hooking.HookPos{Name: "AfterTransition"}

// HookPosSchedule triggers when a model's next internal event is put in the
// queue. Item is a ScheduleRecord.
var HookPosSchedule = &hooking.HookPos{Name: "Schedule"}

// OutputRecord describes one output and where the simulator routed it.
type OutputRecord[P any] struct {
	Source      ModelID
	Destination ModelID
	Output      P
	Routed      bool
}

// ScheduleRecord describes an internal event requested by a model after a
// transition.
type ScheduleRecord struct {
	Model   ModelID
	Time    float64
	Outcome ScheduleOutcome
}
