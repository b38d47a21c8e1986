// Package hooking lets observers attach to a running simulation without the
// simulation knowing who is listening.
package hooking

import "slices"

// HookPos names a stage of a simulation step that hooks can observe.
type HookPos struct {
	Name string
}

func (p *HookPos) String() string {
	return p.Name
}

// Clock locates a hook site in simulated time.
type Clock struct {
	// Now is the real coordinate of the batch being processed.
	Now float64

	// Step counts the batches processed so far, starting from 1.
	Step uint64
}

// HookCtx describes one firing of a hook.
type HookCtx struct {
	Clock

	// Domain is the simulation raising the hook.
	Domain Hookable

	// Pos is the stage of the step the hook fires from.
	Pos *HookPos

	// Item is what the stage is about: an event, an output, a schedule.
	Item any
}

// Is reports whether the hook fires from one of positions.
func (ctx HookCtx) Is(positions ...*HookPos) bool {
	return slices.Contains(positions, ctx.Pos)
}

// Hookable is a simulation that hooks can be attached to.
type Hookable interface {
	// AcceptHook registers a hook. Hooks are registered before the run
	// starts and are never removed.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// Hooks returns all the hooks registered.
	Hooks() []Hook

	// InvokeHook triggers the registered Hooks.
	InvokeHook(ctx HookCtx)
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A FuncHook adapts a plain function to the Hook interface.
type FuncHook struct {
	f func(ctx HookCtx)
}

// NewFuncHook wraps f into a Hook.
func NewFuncHook(f func(ctx HookCtx)) *FuncHook {
	return &FuncHook{f: f}
}

// Func calls the wrapped function.
func (h *FuncHook) Func(ctx HookCtx) {
	h.f(ctx)
}

type posFilter struct {
	hook      Hook
	positions []*HookPos
}

// OnlyAt returns a hook that forwards to hook the firings from positions and
// ignores the others.
func OnlyAt(hook Hook, positions ...*HookPos) Hook {
	return &posFilter{hook: hook, positions: positions}
}

func (f *posFilter) Func(ctx HookCtx) {
	if ctx.Is(f.positions...) {
		f.hook.Func(ctx)
	}
}

// A HookableBase keeps the hook list of a simulation.
type HookableBase struct {
	hookList []Hook
	sealed   bool
}

// NewHookableBase creates a HookableBase object.
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// Hooks returns a copy of the hooks registered, in registration order.
func (h *HookableBase) Hooks() []Hook {
	return slices.Clone(h.hookList)
}

// AcceptHook registers a hook. It panics once the base is sealed or when the
// same hook is registered twice.
func (h *HookableBase) AcceptHook(hook Hook) {
	if h.sealed {
		panic("hooking: hook registered after the run started")
	}

	if slices.Contains(h.hookList, hook) {
		panic("hooking: duplicated hook")
	}

	h.hookList = append(h.hookList, hook)
}

// Seal stops the base from accepting hooks.
func (h *HookableBase) Seal() {
	h.sealed = true
}

// InvokeHook triggers the registered Hooks in registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hookList {
		hook.Func(ctx)
	}
}

// Fire invokes the hooks at pos on behalf of domain. Without hooks it does
// nothing, so hook sites cost a length check.
func (h *HookableBase) Fire(domain Hookable, clock Clock, pos *HookPos, item any) {
	if len(h.hookList) == 0 {
		return
	}

	h.InvokeHook(HookCtx{
		Clock:  clock,
		Domain: domain,
		Pos:    pos,
		Item:   item,
	})
}

var _ Hookable = (*HookableBase)(nil)
