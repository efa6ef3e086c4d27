package vm

import (
	"testing"
)

// ---------------------------------------------------------------------------
// Tail-call tests: frame reuse keeps depth flat
// ---------------------------------------------------------------------------

func TestTailCallDepthStaysFlat(t *testing.T) {
	const iterations = 100_000

	rig := newTestRig(t, Limits{MaxCallDepth: 20})
	ctx := rig.g.Main()

	maxDepth := 0
	folded := 0
	var countdown Value
	countdown = rig.fn("countdown", 1, false, func(c *ExecutionContext) {
		if d := c.Depth(); d > maxDepth {
			maxDepth = d
		}
		n := arg(c, 0).SmallInt()
		if n == 0 {
			folded = c.CurrentFrame().TailCalls
			ret(c, FromSmallInt(n))
			return
		}
		fs := c.Top()
		c.Push(countdown)
		c.Push(FromSmallInt(n - 1))
		c.PerformTailCall(fs)
	})

	slot := call(ctx, countdown, 1, FromSmallInt(iterations))
	if got := ctx.Get(slot); got.SmallInt() != 0 {
		t.Errorf("countdown result = %v, want 0", got)
	}
	if maxDepth != 2 {
		t.Errorf("max depth = %d, want 2 (root + one reused frame)", maxDepth)
	}
	if folded != iterations {
		t.Errorf("folded tail calls = %d, want %d", folded, iterations)
	}
}

func TestTailCallReplacesArguments(t *testing.T) {
	rig := newTestRig(t, Limits{})
	ctx := rig.g.Main()

	var forwarded Value
	sink := rig.fn("sink", 1, false, func(c *ExecutionContext) {
		forwarded = arg(c, 0)
		ret(c, arg(c, 0))
	})
	springboard := rig.fn("springboard", 1, false, func(c *ExecutionContext) {
		fs := c.Top()
		c.Push(sink)
		c.Push(FromSmallInt(arg(c, 0).SmallInt() + 1))
		c.PerformTailCall(fs)
	})

	slot := call(ctx, springboard, 1, FromSmallInt(41))
	if forwarded.SmallInt() != 42 {
		t.Errorf("forwarded argument = %v, want 42", forwarded)
	}
	// The tail callee's results replace the springboard call's.
	if got := ctx.Get(slot); got.SmallInt() != 42 {
		t.Errorf("result = %v, want 42", got)
	}
}

func TestTailCallToNativeCompletes(t *testing.T) {
	rig := newTestRig(t, Limits{})
	ctx := rig.g.Main()

	negate := rig.g.Registry().NewGoFunc(func(c *ExecutionContext) int {
		c.Push(FromSmallInt(-c.Arg(0).SmallInt()))
		return 1
	})
	springboard := rig.fn("springboard", 1, false, func(c *ExecutionContext) {
		fs := c.Top()
		c.Push(negate)
		c.Push(arg(c, 0))
		c.PerformTailCall(fs)
	})

	slot := call(ctx, springboard, 1, FromSmallInt(7))
	if got := ctx.Get(slot); got.SmallInt() != -7 {
		t.Errorf("result = %v, want -7", got)
	}
	if ctx.Depth() != 1 {
		t.Errorf("depth = %d, want 1", ctx.Depth())
	}
}
