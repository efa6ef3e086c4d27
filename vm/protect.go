package vm

// ---------------------------------------------------------------------------
// Protected calls and error unwinding
// ---------------------------------------------------------------------------
// Raising panics with a private sentinel; RunProtected is the only recover
// site. The panic never crosses an API boundary: it is converted into a
// *RuntimeError at the nearest recovery point, or the fatal hook fires.

// RecoveryPoint captures the state a catch restores: frame depth, stack top,
// and the call-depth counters. Points form a per-context singly linked list,
// innermost first.
type RecoveryPoint struct {
	frameDepth  int // frames.current at entry
	stackTop    int
	stackBase   int
	nativeDepth int
	prev        *RecoveryPoint
}

// stackUnwind is the panic payload used for non-local error transfer.
type stackUnwind struct {
	err *RuntimeError
}

// ErrorHandler runs on catch, before state is reported to the caller. It
// receives the error payload and returns the payload to surface instead
// (message decoration, traceback capture). An error raised inside the
// handler escalates as HandlerError and never re-enters the handler.
type ErrorHandler func(*ExecutionContext, Value) Value

// RunProtected invokes fn under a new recovery point. On normal completion
// it returns nil. If fn raises, the context's frame stack, value stack, and
// call-depth counters are restored to their values at entry, every open
// upvalue at or above the restored top is closed, the error payload is
// staged at the restored top, and the error is returned.
func (ctx *ExecutionContext) RunProtected(fn func(*ExecutionContext)) *RuntimeError {
	return ctx.RunProtectedWithHandler(fn, nil)
}

// RunProtectedWithHandler is RunProtected with a user error handler.
func (ctx *ExecutionContext) RunProtectedWithHandler(fn func(*ExecutionContext), handler ErrorHandler) (rErr *RuntimeError) {
	rp := &RecoveryPoint{
		frameDepth:  ctx.frames.current,
		stackTop:    ctx.stack.top,
		stackBase:   ctx.stack.base,
		nativeDepth: ctx.nativeDepth,
		prev:        ctx.recoveries,
	}
	ctx.recoveries = rp

	defer func() {
		r := recover()
		if r == nil {
			ctx.recoveries = rp.prev
			return
		}
		uw, ok := r.(stackUnwind)
		if !ok {
			panic(r)
		}
		ctx.recoveries = rp.prev

		// Frames above the recovery point are being discarded; close their
		// upvalues before the slots lose meaning.
		ctx.closeUpvalues(rp.stackTop)
		ctx.frames.current = rp.frameDepth
		ctx.stack.base = rp.stackBase
		ctx.nativeDepth = rp.nativeDepth

		payload := uw.err.Value
		if handler != nil && uw.err.Kind != KindHandler {
			ctx.inHandler = true
			payload = handler(ctx, payload)
			ctx.inHandler = false
			uw.err.Value = payload
		}

		// The margin guarantees room for the payload even on a full stack.
		ctx.stack.slots[rp.stackTop] = payload
		ctx.stack.top = rp.stackTop + 1
		rErr = uw.err
	}()

	fn(ctx)
	return nil
}

// Raise performs a non-local jump to the most recent recovery point,
// carrying errValue as the payload. With no recovery point installed, the
// embedder's fatal hook runs and the process terminates.
func (ctx *ExecutionContext) Raise(errValue Value) {
	ctx.raise(&RuntimeError{Kind: KindRuntime, Value: errValue})
}

// RaiseError formats a message, interns it, and raises it as a runtime error.
func (ctx *ExecutionContext) RaiseError(format string, args ...any) {
	ctx.raise(ctx.global.runtimeErrorf(format, args...))
}

func (ctx *ExecutionContext) raiseKind(kind ErrKind) {
	ctx.raise(ctx.global.newKindError(kind))
}

func (ctx *ExecutionContext) raise(err *RuntimeError) {
	if ctx.inHandler {
		// Already inside a user error handler: escalate with the fixed
		// message, never re-invoking the handler.
		ctx.inHandler = false
		err = ctx.global.newKindError(KindHandler)
	}
	if ctx.recoveries == nil {
		ctx.global.fatalError(ctx, err)
	}
	panic(stackUnwind{err})
}
