package vm

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Invoker tests: argument and result adaptation
// ---------------------------------------------------------------------------

func TestCallReturnsResult(t *testing.T) {
	rig := newTestRig(t, Limits{})
	ctx := rig.g.Main()

	double := rig.fn("double", 1, false, func(c *ExecutionContext) {
		n := arg(c, 0).SmallInt()
		ret(c, FromSmallInt(2*n))
	})

	slot := call(ctx, double, 1, FromSmallInt(21))
	if got := ctx.Get(slot); !got.IsSmallInt() || got.SmallInt() != 42 {
		t.Errorf("double(21) = %v, want 42", got)
	}
	if ctx.Top() != slot+1 {
		t.Errorf("top = %d, want %d", ctx.Top(), slot+1)
	}
}

func TestMissingArgumentsAreNil(t *testing.T) {
	rig := newTestRig(t, Limits{})
	ctx := rig.g.Main()

	var second, third Value
	probe := rig.fn("probe", 3, false, func(c *ExecutionContext) {
		second = arg(c, 1)
		third = arg(c, 2)
		ret(c)
	})

	call(ctx, probe, 0, FromSmallInt(1))
	if second != Nil || third != Nil {
		t.Errorf("missing parameters = %v, %v, want nil, nil", second, third)
	}
}

func TestExcessArgumentsDropped(t *testing.T) {
	rig := newTestRig(t, Limits{})
	ctx := rig.g.Main()

	var frameTop, base int
	probe := rig.fn("probe", 1, false, func(c *ExecutionContext) {
		fr := c.CurrentFrame()
		base, frameTop = fr.Base, fr.Top
		ret(c)
	})

	call(ctx, probe, 0, FromSmallInt(1), FromSmallInt(2), FromSmallInt(3))
	if frameTop-base != 1+4 {
		t.Errorf("frame window = %d slots, want %d", frameTop-base, 5)
	}
}

func TestVariadicPacksExcess(t *testing.T) {
	rig := newTestRig(t, Limits{})
	ctx := rig.g.Main()

	var varargs Value
	probe := rig.fn("probe", 1, true, func(c *ExecutionContext) {
		varargs = c.CurrentFrame().Varargs
		ret(c)
	})

	call(ctx, probe, 0, FromSmallInt(1), FromSmallInt(2), FromSmallInt(3))
	tbl := rig.g.Registry().TableOf(varargs)
	if tbl == nil {
		t.Fatalf("varargs = %v, want a table", varargs)
	}
	if len(tbl.Items) != 2 || tbl.Items[0].SmallInt() != 2 || tbl.Items[1].SmallInt() != 3 {
		t.Errorf("varargs items = %v, want [2 3]", tbl.Items)
	}
}

func TestVariadicExactArityGetsNoVarargs(t *testing.T) {
	rig := newTestRig(t, Limits{})
	ctx := rig.g.Main()

	varargs := True
	probe := rig.fn("probe", 1, true, func(c *ExecutionContext) {
		varargs = c.CurrentFrame().Varargs
		ret(c)
	})

	call(ctx, probe, 0, FromSmallInt(1))
	if varargs != Nil {
		t.Errorf("varargs = %v, want nil", varargs)
	}
}

func TestResultTruncationAndPadding(t *testing.T) {
	rig := newTestRig(t, Limits{})
	ctx := rig.g.Main()

	three := rig.fn("three", 0, false, func(c *ExecutionContext) {
		ret(c, FromSmallInt(1), FromSmallInt(2), FromSmallInt(3))
	})

	// Caller wants one: extras discarded.
	slot := call(ctx, three, 1)
	if ctx.Top() != slot+1 || ctx.Get(slot).SmallInt() != 1 {
		t.Errorf("truncated call: top=%d first=%v", ctx.Top(), ctx.Get(slot))
	}
	ctx.SetTop(slot)

	// Caller wants five: shortfall nil-padded.
	slot = call(ctx, three, 5)
	if ctx.Top() != slot+5 {
		t.Fatalf("padded call: top=%d, want %d", ctx.Top(), slot+5)
	}
	if ctx.Get(slot+3) != Nil || ctx.Get(slot+4) != Nil {
		t.Errorf("padding = %v, %v, want nil, nil", ctx.Get(slot+3), ctx.Get(slot+4))
	}
	ctx.SetTop(slot)

	// MultipleResults keeps everything.
	slot = call(ctx, three, MultipleResults)
	if ctx.Top() != slot+3 {
		t.Errorf("multret call: top=%d, want %d", ctx.Top(), slot+3)
	}
}

func TestNestedCallTruncatesInnerResults(t *testing.T) {
	rig := newTestRig(t, Limits{})
	ctx := rig.g.Main()

	c := rig.fn("c", 0, false, func(cx *ExecutionContext) {
		ret(cx, FromSmallInt(1), FromSmallInt(2), FromSmallInt(3))
	})
	var cSlot, topAfter int
	b := rig.fn("b", 0, false, func(cx *ExecutionContext) {
		cSlot = call(cx, c, 1) // b wants a single value from c
		topAfter = cx.Top()
		ret(cx, cx.Get(cSlot))
	})
	a := rig.fn("a", 0, false, func(cx *ExecutionContext) {
		slot := call(cx, b, 1)
		ret(cx, cx.Get(slot))
	})

	slot := call(ctx, a, 1)
	if topAfter != cSlot+1 {
		t.Errorf("top after truncated call = %d, want one above slot %d", topAfter, cSlot)
	}
	if got := ctx.Get(slot); got.SmallInt() != 1 {
		t.Errorf("propagated result = %v, want 1", got)
	}
}

func TestResultPaddingGrowsStack(t *testing.T) {
	rig := newTestRig(t, Limits{InitialStackSlots: 8})
	ctx := rig.g.Main()

	quiet := rig.fn("quiet", 0, false, func(c *ExecutionContext) { ret(c) })

	// Expecting far more results than the backing array holds must grow the
	// stack and nil-pad, never index past it.
	slot := ctx.Top()
	ctx.Push(quiet)
	if err := ctx.ProtectedCall(slot, 100, nil); err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if ctx.Top() != slot+100 {
		t.Fatalf("top = %d, want %d", ctx.Top(), slot+100)
	}
	for i := 0; i < 100; i++ {
		if got := ctx.Get(slot + i); got != Nil {
			t.Fatalf("slot %d = %v, want nil", slot+i, got)
		}
	}
}

func TestResultPaddingPastHardMaximumRaises(t *testing.T) {
	rig := newTestRig(t, Limits{InitialStackSlots: 8, MaxStackSlots: 32})
	ctx := rig.g.Main()

	quiet := rig.fn("quiet", 0, false, func(c *ExecutionContext) { ret(c) })

	slot := ctx.Top()
	ctx.Push(quiet)
	err := ctx.ProtectedCall(slot, 100, nil)
	if !errors.Is(err, ErrStackSizeExceeded) {
		t.Fatalf("err = %v, want ErrStackSizeExceeded", err)
	}
}

func TestGoFuncCall(t *testing.T) {
	rig := newTestRig(t, Limits{})
	ctx := rig.g.Main()

	sum := rig.g.Registry().NewGoFunc(func(c *ExecutionContext) int {
		total := int64(0)
		for i := 0; i < c.NArgs(); i++ {
			total += c.Arg(i).SmallInt()
		}
		c.Push(FromSmallInt(total))
		return 1
	})

	slot := call(ctx, sum, 1, FromSmallInt(1), FromSmallInt(2), FromSmallInt(3))
	if got := ctx.Get(slot); got.SmallInt() != 6 {
		t.Errorf("sum(1,2,3) = %v, want 6", got)
	}
	if ctx.Depth() != 1 {
		t.Errorf("depth after native call = %d, want 1", ctx.Depth())
	}
}

func TestNotCallableRaises(t *testing.T) {
	rig := newTestRig(t, Limits{})
	ctx := rig.g.Main()

	slot := ctx.Top()
	ctx.Push(FromSmallInt(7))
	err := ctx.ProtectedCall(slot, 0, nil)
	if !errors.Is(err, ErrNotCallable) {
		t.Fatalf("calling an integer: err = %v, want ErrNotCallable", err)
	}
}

func TestCallResolverInsertsCallable(t *testing.T) {
	rig := newTestRig(t, Limits{})
	ctx := rig.g.Main()

	var firstArg Value
	handler := rig.fn("handler", 2, false, func(c *ExecutionContext) {
		firstArg = arg(c, 0)
		ret(c, arg(c, 1))
	})
	rig.g.SetCallResolver(func(c *ExecutionContext, v Value) Value {
		if v.IsTable() {
			return handler
		}
		return Nil
	})

	callee := rig.g.Registry().NewTable(&Table{})
	slot := call(ctx, callee, 1, FromSmallInt(9))
	if firstArg != callee {
		t.Errorf("resolved callee's first argument = %v, want the original value", firstArg)
	}
	if got := ctx.Get(slot); got.SmallInt() != 9 {
		t.Errorf("result = %v, want 9", got)
	}
}

func TestCallDepthExceeded(t *testing.T) {
	rig := newTestRig(t, Limits{MaxCallDepth: 20})
	ctx := rig.g.Main()

	var recurse Value
	recurse = rig.fn("recurse", 0, false, func(c *ExecutionContext) {
		call(c, recurse, 0)
		ret(c)
	})

	depthBefore := ctx.Depth()
	topBefore := ctx.Top()
	slot := ctx.Top()
	ctx.Push(recurse)
	err := ctx.ProtectedCall(slot, 0, nil)
	if !errors.Is(err, ErrCallDepthExceeded) {
		t.Fatalf("err = %v, want ErrCallDepthExceeded", err)
	}
	if ctx.Depth() != depthBefore {
		t.Errorf("depth after recovery = %d, want %d", ctx.Depth(), depthBefore)
	}
	// The payload sits just above the restored top.
	if ctx.Top() != topBefore+2 {
		t.Errorf("top after recovery = %d, want %d", ctx.Top(), topBefore+2)
	}

	// The stacks are intact: a fresh call on the same context still works.
	ctx.SetTop(topBefore)
	double := rig.fn("double", 1, false, func(c *ExecutionContext) {
		ret(c, FromSmallInt(2*arg(c, 0).SmallInt()))
	})
	rs := call(ctx, double, 1, FromSmallInt(8))
	if got := ctx.Get(rs); got.SmallInt() != 16 {
		t.Errorf("call after recovery = %v, want 16", got)
	}
}

func TestHookSeesCallAndReturn(t *testing.T) {
	rig := newTestRig(t, Limits{})
	ctx := rig.g.Main()

	var events []HookEvent
	ctx.SetHook(func(c *ExecutionContext, ev HookEvent, fr *Frame) {
		events = append(events, ev)
	}, MaskAll)

	noop := rig.fn("noop", 0, false, func(c *ExecutionContext) { ret(c) })
	call(ctx, noop, 0)
	ctx.SetHook(nil, 0)

	want := []HookEvent{HookCall, HookReturn}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, events[i], want[i])
		}
	}
}
