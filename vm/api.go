package vm

import "fmt"

// ---------------------------------------------------------------------------
// Embedding API
// ---------------------------------------------------------------------------
// Convenience surface for embedders and native functions: value traffic on
// the context's stack and protected entry points that never panic across the
// API boundary.

// Push appends v to the context's stack.
func (ctx *ExecutionContext) Push(v Value) { ctx.stack.Push(v) }

// Pop removes and returns the topmost value.
func (ctx *ExecutionContext) Pop() Value { return ctx.stack.Pop() }

// Top returns the index of the next free stack slot.
func (ctx *ExecutionContext) Top() int { return ctx.stack.Top() }

// SetTop moves the stack top to n, nil-filling on the way up.
func (ctx *ExecutionContext) SetTop(n int) { ctx.stack.SetTop(n) }

// Get returns the value at absolute stack index i, or Nil.
func (ctx *ExecutionContext) Get(i int) Value { return ctx.stack.Get(i) }

// Set stores v at absolute stack index i.
func (ctx *ExecutionContext) Set(i int, v Value) { ctx.stack.Set(i, v) }

// Arg returns the n-th argument (0-based) of the current native frame, or
// Nil when fewer were passed.
func (ctx *ExecutionContext) Arg(n int) Value {
	fr := ctx.frames.Current()
	i := fr.Base + n
	if i >= ctx.stack.top {
		return Nil
	}
	return ctx.stack.slots[i]
}

// NArgs returns how many arguments the current native frame received.
func (ctx *ExecutionContext) NArgs() int {
	return ctx.stack.top - ctx.frames.Current().Base
}

// PushString interns s and pushes its handle.
func (ctx *ExecutionContext) PushString(s string) {
	ctx.Push(ctx.global.registry.NewString(s))
}

// ToString renders v for diagnostics. Reference values without registry
// entries render as their type name.
func (ctx *ExecutionContext) ToString(v Value) string {
	reg := ctx.global.registry
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		return fmt.Sprintf("%t", v.Bool())
	case v.IsSmallInt():
		return fmt.Sprintf("%d", v.SmallInt())
	case v.IsFloat():
		return fmt.Sprintf("%g", v.Float64())
	case v.IsString():
		s, _ := reg.StringContent(v)
		return s
	case v.IsTable():
		return "table"
	case v.IsFunction():
		return "function"
	case v.IsUserdata():
		return "userdata"
	case v.IsThread():
		return "thread"
	default:
		return "unknown"
	}
}

// ProtectedCall calls the value at funcSlot under a recovery point. On
// failure the stacks are restored, the error payload sits at the restored
// top, and the error is returned; handler (optional) decorates the payload
// before control comes back.
func (ctx *ExecutionContext) ProtectedCall(funcSlot, nresults int, handler ErrorHandler) error {
	rErr := ctx.RunProtectedWithHandler(func(c *ExecutionContext) {
		c.Call(funcSlot, nresults)
	}, handler)
	if rErr != nil {
		return rErr
	}
	return nil
}

// XMove pops n values from ctx and pushes them, order preserved, onto to.
// Both contexts must share a GlobalState.
func (ctx *ExecutionContext) XMove(to *ExecutionContext, n int) error {
	if ctx.global != to.global {
		return ctx.global.runtimeErrorf("cannot move values across global states")
	}
	if err := moveValues(ctx, to, n); err != nil {
		return err
	}
	return nil
}
