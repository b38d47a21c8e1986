package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/hooking"
)

// A ProgressBar is a tracker of the progress
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// IncrementInProgress adds the number of in-progress element.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// MoveInProgressToFinished reduces the number of in progress item by a certain
// amount and increase the finished item by the same amount.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress -= amount
	b.Finished += amount
}

// Snapshot returns the current counters.
func (b *ProgressBar) Snapshot() (finished, inProgress, total uint64) {
	b.Lock()
	defer b.Unlock()

	return b.Finished, b.InProgress, b.Total
}

// StepProgressHook advances a progress bar once for every processed batch.
type StepProgressHook struct {
	bar *ProgressBar
}

// NewStepProgressHook creates a hook that advances bar.
func NewStepProgressHook(bar *ProgressBar) *StepProgressHook {
	return &StepProgressHook{bar: bar}
}

// Func moves the bar forward after each step.
func (h *StepProgressHook) Func(ctx hooking.HookCtx) {
	if ctx.Is(devs.HookPosBeforeStep) {
		h.bar.IncrementInProgress(1)
		return
	}

	if ctx.Is(devs.HookPosAfterStep) {
		h.bar.MoveInProgressToFinished(1)
	}
}
