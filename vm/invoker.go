package vm

// ---------------------------------------------------------------------------
// Invoker: call preparation, return adaptation, tail-call frame reuse
// ---------------------------------------------------------------------------

// PrepareCall sets up a call to the value at funcSlot, with the arguments in
// [funcSlot+1, top). nresults is the caller's expected result count, or
// MultipleResults.
//
// For a native callee the call executes synchronously to completion,
// including return adaptation, and PrepareCall reports done. For an
// interpreted callee a new frame is pushed and control belongs to the
// dispatch loop; PrepareCall reports not-done.
//
// A non-function callee is resolved through the callable-behavior hook
// first; NotCallable is raised when that fails too.
func (ctx *ExecutionContext) PrepareCall(funcSlot, nresults int) (done bool) {
	v := ctx.resolveCallee(funcSlot)
	reg := ctx.global.registry

	if fn := reg.GoFuncOf(v); fn != nil {
		ctx.runGoFunc(fn, funcSlot, nresults)
		return true
	}

	cl := reg.ClosureOf(v)
	if cl == nil {
		ctx.raiseKind(KindNotCallable)
	}

	fr := ctx.frames.push()
	if fr == nil {
		ctx.raiseKind(KindCallDepth)
	}
	fr.FuncSlot = funcSlot
	fr.ExpectedResults = nresults
	ctx.enterClosure(fr, cl)
	ctx.callHook(HookCall, fr)
	return false
}

// Call runs the value at funcSlot to completion: native callees directly,
// interpreted callees by handing the pushed frame to the dispatch loop.
func (ctx *ExecutionContext) Call(funcSlot, nresults int) {
	if ctx.PrepareCall(funcSlot, nresults) {
		return
	}
	if ctx.global.exec == nil {
		ctx.RaiseError("no dispatch loop installed")
	}
	ctx.global.exec(ctx)
}

// CompleteCall finishes the current frame. Results live in
// [firstResultSlot, top); min(expected, actual) of them move down to the
// callee's former function slot, any shortfall against a fixed expectation
// is nil-padded, the frame is popped, and top lands one past the last
// result. The caller's base is restored from the now-current frame.
func (ctx *ExecutionContext) CompleteCall(firstResultSlot int) {
	fr := ctx.frames.Current()
	ctx.callHook(HookReturn, fr)

	// The frame's slot range is being abandoned; close its upvalues while
	// the slots still hold their values.
	ctx.closeUpvalues(fr.Base)

	s := ctx.stack
	actual := s.top - firstResultSlot
	if actual < 0 {
		actual = 0
	}
	wanted := fr.ExpectedResults

	n := actual
	if wanted != MultipleResults && wanted < actual {
		n = wanted
	}
	copy(s.slots[fr.FuncSlot:fr.FuncSlot+n], s.slots[firstResultSlot:firstResultSlot+n])
	newTop := fr.FuncSlot + n
	if wanted != MultipleResults {
		// The caller may expect more results than the stack currently holds
		// (the embedding API carries no frame window guaranteeing room).
		if pad := fr.FuncSlot + wanted; pad > s.top {
			s.EnsureCapacity(pad - s.top)
		}
		for newTop < fr.FuncSlot+wanted {
			s.slots[newTop] = Nil
			newTop++
		}
	}
	s.top = newTop

	ctx.frames.pop()
	if ctx.frames.current >= 0 {
		s.base = ctx.frames.Current().Base
	}
}

// PerformTailCall replaces the current frame's callee with the value at
// funcSlot, reusing the frame instead of pushing a new one: upvalues in the
// frame's range are closed, callee plus arguments shift down to the frame's
// function slot, and execution enters the new callee directly. Frame depth
// stays flat across arbitrarily long tail-call chains.
//
// Reports done when the new callee was native and has already completed
// (through the reused frame); otherwise the dispatch loop continues in the
// same frame.
func (ctx *ExecutionContext) PerformTailCall(funcSlot int) (done bool) {
	fr := ctx.frames.Current()
	ctx.callHook(HookTailCall, fr)

	ctx.closeUpvalues(fr.Base)

	// Shift callee + args down in place.
	s := ctx.stack
	n := s.top - funcSlot
	copy(s.slots[fr.FuncSlot:fr.FuncSlot+n], s.slots[funcSlot:s.top])
	s.top = fr.FuncSlot + n
	fr.TailCalls++

	v := ctx.resolveCallee(fr.FuncSlot)
	reg := ctx.global.registry

	if fn := reg.GoFuncOf(v); fn != nil {
		// Native callee: run it synchronously and return its results
		// through the reused frame.
		s.EnsureCapacity(minGoFuncStack)
		ctx.nativeDepth++
		nres := fn(ctx)
		ctx.nativeDepth--
		ctx.CompleteCall(s.top - nres)
		return true
	}

	cl := reg.ClosureOf(v)
	if cl == nil {
		ctx.raiseKind(KindNotCallable)
	}
	ctx.enterClosure(fr, cl)
	return false
}

// resolveCallee returns the callable at funcSlot. When the slot holds a
// non-function, the callable-behavior hook is consulted; its result is
// inserted at funcSlot with the original value shifted up as the first
// argument. Raises NotCallable when no callable behavior exists.
func (ctx *ExecutionContext) resolveCallee(funcSlot int) Value {
	s := ctx.stack
	v := s.slots[funcSlot]
	if v.IsFunction() {
		return v
	}
	if ctx.global.resolve == nil {
		ctx.raiseKind(KindNotCallable)
	}
	resolved := ctx.global.resolve(ctx, v)
	if !resolved.IsFunction() {
		ctx.raiseKind(KindNotCallable)
	}
	s.EnsureCapacity(1)
	copy(s.slots[funcSlot+1:s.top+1], s.slots[funcSlot:s.top])
	s.slots[funcSlot] = resolved
	s.top++
	return resolved
}

// enterClosure adapts the arguments above fr.FuncSlot to cl's calling
// convention and points fr at the closure's entry. Shared by call entry and
// tail-call frame reuse.
func (ctx *ExecutionContext) enterClosure(fr *Frame, cl *Closure) {
	s := ctx.stack
	proto := cl.Proto
	funcSlot := fr.FuncSlot
	base := funcSlot + 1

	nargs := s.top - base
	fr.Varargs = Nil
	switch {
	case nargs > proto.NumParams && proto.IsVariadic:
		// Pack the excess into a fresh varargs table.
		extra := nargs - proto.NumParams
		t := &Table{Items: make([]Value, extra)}
		copy(t.Items, s.slots[base+proto.NumParams:s.top])
		fr.Varargs = ctx.global.registry.NewTable(t)
		s.top = base + proto.NumParams
	case nargs > proto.NumParams:
		// Excess arguments to a fixed-arity callee are dropped.
		s.top = base + proto.NumParams
	}

	s.EnsureCapacity(proto.MaxFrameSize)

	fr.Base = base
	fr.Top = base + proto.MaxFrameSize
	fr.ResumePoint = proto.Entry
	fr.IsGo = false

	// Missing arguments and declared locals start out nil.
	for i := s.top; i < fr.Top; i++ {
		s.slots[i] = Nil
	}
	s.top = fr.Top
	s.base = base
}

// runGoFunc executes a native callee synchronously: a native frame is
// pushed for depth accounting and hook visibility, the function runs with
// its arguments at [base, top), and its pushed results are adapted like any
// other return.
func (ctx *ExecutionContext) runGoFunc(fn GoFunc, funcSlot, nresults int) {
	fr := ctx.frames.push()
	if fr == nil {
		ctx.raiseKind(KindCallDepth)
	}
	fr.FuncSlot = funcSlot
	fr.Base = funcSlot + 1
	fr.Top = ctx.stack.top
	fr.ExpectedResults = nresults
	fr.IsGo = true
	ctx.stack.base = fr.Base
	ctx.stack.EnsureCapacity(minGoFuncStack)
	ctx.callHook(HookCall, fr)

	ctx.nativeDepth++
	nres := fn(ctx)
	ctx.nativeDepth--

	ctx.CompleteCall(ctx.stack.top - nres)
}
