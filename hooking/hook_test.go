package hooking_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/devs/hooking"
)

var _ = Describe("HookableBase", func() {
	var (
		base  *hooking.HookableBase
		pos   *hooking.HookPos
		other *hooking.HookPos
	)

	BeforeEach(func() {
		base = hooking.NewHookableBase()
		pos = &hooking.HookPos{Name: "Test"}
		other = &hooking.HookPos{Name: "Other"}
	})

	It("should invoke hooks in registration order", func() {
		var calls []string

		base.AcceptHook(hooking.NewFuncHook(func(hooking.HookCtx) {
			calls = append(calls, "first")
		}))
		base.AcceptHook(hooking.NewFuncHook(func(hooking.HookCtx) {
			calls = append(calls, "second")
		}))

		base.InvokeHook(hooking.HookCtx{Domain: base, Pos: pos})

		Expect(calls).To(Equal([]string{"first", "second"}))
		Expect(base.NumHooks()).To(Equal(2))
		Expect(base.Hooks()).To(HaveLen(2))
	})

	It("should build the context when firing", func() {
		var got hooking.HookCtx

		base.AcceptHook(hooking.NewFuncHook(func(ctx hooking.HookCtx) {
			got = ctx
		}))

		base.Fire(base, hooking.Clock{Now: 2.5, Step: 3}, pos, "item")

		Expect(got.Domain).To(BeIdenticalTo(base))
		Expect(got.Pos).To(BeIdenticalTo(pos))
		Expect(got.Now).To(Equal(2.5))
		Expect(got.Step).To(Equal(uint64(3)))
		Expect(got.Item).To(Equal("item"))
		Expect(got.Is(other, pos)).To(BeTrue())
		Expect(got.Is(other)).To(BeFalse())
	})

	It("should fire nothing without hooks", func() {
		Expect(func() {
			base.Fire(base, hooking.Clock{}, pos, nil)
		}).NotTo(Panic())
	})

	It("should filter firings by position", func() {
		var seen []string

		base.AcceptHook(hooking.OnlyAt(
			hooking.NewFuncHook(func(ctx hooking.HookCtx) {
				seen = append(seen, ctx.Pos.String())
			}),
			pos,
		))

		base.Fire(base, hooking.Clock{}, other, nil)
		base.Fire(base, hooking.Clock{}, pos, nil)
		base.Fire(base, hooking.Clock{}, other, nil)

		Expect(seen).To(Equal([]string{"Test"}))
	})

	It("should not expose its hook list", func() {
		base.AcceptHook(hooking.NewFuncHook(func(hooking.HookCtx) {}))

		hooks := base.Hooks()
		hooks[0] = nil

		Expect(base.Hooks()[0]).NotTo(BeNil())
	})

	It("should reject a hook registered twice", func() {
		hook := hooking.NewFuncHook(func(hooking.HookCtx) {})
		base.AcceptHook(hook)

		Expect(func() { base.AcceptHook(hook) }).To(Panic())
	})

	It("should reject hooks once sealed", func() {
		base.Seal()

		Expect(func() {
			base.AcceptHook(hooking.NewFuncHook(func(hooking.HookCtx) {}))
		}).To(Panic())
		Expect(base.NumHooks()).To(BeZero())
	})
})
