package vm

import (
	"testing"
)

// ---------------------------------------------------------------------------
// Test rig: a miniature dispatch loop
// ---------------------------------------------------------------------------
// Function bodies are Go callbacks keyed by Proto. The installed ExecFunc
// repeatedly dispatches the current frame's body until the frame it was
// entered for has completed, which is exactly the contract a bytecode loop
// honors. Bodies end their frame with CompleteCall, or request a tail call
// and return to the loop.

type testRig struct {
	t      *testing.T
	g      *GlobalState
	bodies map[*Proto]func(*ExecutionContext)
}

func newTestRig(t *testing.T, limits Limits) *testRig {
	t.Helper()
	rig := &testRig{
		t:      t,
		g:      New(limits),
		bodies: make(map[*Proto]func(*ExecutionContext)),
	}
	rig.g.SetExec(func(ctx *ExecutionContext) {
		entry := ctx.Depth()
		for ctx.Depth() >= entry {
			cl := ctx.ClosureAt(ctx.CurrentFrame())
			if cl == nil {
				t.Fatalf("dispatch loop entered a frame with no closure")
			}
			body := rig.bodies[cl.Proto]
			if body == nil {
				t.Fatalf("no body registered for proto %q", cl.Proto.Name)
			}
			body(ctx)
		}
	})
	return rig
}

// fn registers an interpreted function and returns its value.
func (rig *testRig) fn(name string, numParams int, variadic bool, body func(*ExecutionContext)) Value {
	proto := &Proto{
		Name:         name,
		NumParams:    numParams,
		IsVariadic:   variadic,
		MaxFrameSize: numParams + 4,
	}
	rig.bodies[proto] = body
	return rig.g.Registry().NewClosure(&Closure{Proto: proto})
}

// ret stages the given results and completes the current frame.
func ret(ctx *ExecutionContext, results ...Value) {
	rs := ctx.Top()
	for _, v := range results {
		ctx.Push(v)
	}
	ctx.CompleteCall(rs)
}

// call pushes fn and args and runs the call to completion, returning the
// result slot range [funcSlot, top).
func call(ctx *ExecutionContext, fn Value, nresults int, args ...Value) int {
	funcSlot := ctx.Top()
	ctx.Push(fn)
	for _, a := range args {
		ctx.Push(a)
	}
	ctx.Call(funcSlot, nresults)
	return funcSlot
}

// arg reads the n-th parameter slot of the current frame.
func arg(ctx *ExecutionContext, n int) Value {
	return ctx.Get(ctx.CurrentFrame().Base + n)
}
