package vm

// ---------------------------------------------------------------------------
// Coroutine manager
// ---------------------------------------------------------------------------
// Each coroutine body runs on its own goroutine, used purely as a green
// thread: control is handed over through unbuffered channels, so exactly one
// ExecutionContext of a GlobalState executes at any instant and all others
// are parked at their last suspend (or not-yet-started) point. Resume always
// runs the coroutine to its next suspend, return, or error before returning.

// transfer carries one control handoff from a coroutine to its resumer.
type transfer struct {
	n    int           // values staged on the coroutine's stack top
	err  *RuntimeError // terminal error, if any
	done bool          // body returned
}

// killSignal unwinds an abandoned coroutine's goroutine during Destroy.
type killSignal struct{}

// NewThread creates a suspended ExecutionContext that will run entry (a
// function value) when first resumed. The returned handle keeps the context
// alive in the registry.
func (g *GlobalState) NewThread(entry Value) (Value, *ExecutionContext) {
	co := newExecutionContext(g)
	co.entry = entry
	co.status = StatusNotStarted
	handle := g.registry.registerThread(co)
	log.Debugf("created coroutine %s", co.ID)
	return handle, co
}

// Resume transfers control to co, passing the top nargs values of ctx's
// stack as arguments. It returns only when co suspends, returns, or fails:
// the number of values co handed back (now on ctx's stack) and, for an
// uncaught error inside co, the error itself. Resuming a Dead or Running
// context fails with InvalidCoroutineState.
func (ctx *ExecutionContext) Resume(co *ExecutionContext, nargs int) (int, error) {
	switch co.status {
	case StatusNotStarted:
		return ctx.resumeFirst(co, nargs)
	case StatusSuspended:
		return ctx.resumeSuspended(co, nargs)
	default:
		return 0, co.global.newKindError(KindCoroutineState)
	}
}

func (ctx *ExecutionContext) resumeFirst(co *ExecutionContext, nargs int) (int, error) {
	// Stage the entry function and the arguments on co's stack; the body
	// goroutine finds its call at funcSlot.
	if err := co.stack.grow(nargs + 1); err != nil {
		return 0, err
	}
	funcSlot := co.stack.top
	co.stack.slots[funcSlot] = co.entry
	co.stack.top++
	if err := moveValues(ctx, co, nargs); err != nil {
		return 0, err
	}

	co.resumeBaseline = co.nativeDepth
	co.status = StatusRunning
	co.resumeCh = make(chan int)
	co.reportCh = make(chan transfer)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(killSignal); ok {
					return
				}
				panic(r)
			}
		}()
		var nres int
		rErr := co.RunProtected(func(c *ExecutionContext) {
			c.Call(funcSlot, MultipleResults)
			nres = c.stack.top - funcSlot
		})
		co.reportCh <- transfer{n: nres, err: rErr, done: true}
	}()

	return ctx.awaitTransfer(co)
}

func (ctx *ExecutionContext) resumeSuspended(co *ExecutionContext, nargs int) (int, error) {
	// co is parked inside Yield; its stack is safe to fill from here.
	if err := moveValues(ctx, co, nargs); err != nil {
		return 0, err
	}
	co.resumeBaseline = co.nativeDepth
	co.status = StatusRunning
	co.resumeCh <- nargs
	return ctx.awaitTransfer(co)
}

func (ctx *ExecutionContext) awaitTransfer(co *ExecutionContext) (int, error) {
	tr := <-co.reportCh
	if tr.err != nil {
		co.status = StatusDead
		log.Debugf("coroutine %s died: %s", co.ID, tr.err.Error())
		return 0, tr.err
	}
	if tr.done {
		co.status = StatusDead
	} else {
		co.status = StatusSuspended
	}
	if err := moveValues(co, ctx, tr.n); err != nil {
		return 0, err
	}
	return tr.n, nil
}

// Yield suspends ctx, handing the top nresults values of its stack to the
// matching Resume, and parks until the next Resume. It returns the number of
// arguments that Resume staged on the stack top. Yielding with a native
// frame above the resume point fails CrossBoundaryYield: such a frame
// cannot be transparently re-entered. Yielding outside a coroutine fails
// InvalidCoroutineState.
func (ctx *ExecutionContext) Yield(nresults int) int {
	if ctx.reportCh == nil || ctx.status != StatusRunning {
		ctx.raiseKind(KindCoroutineState)
	}
	if ctx.nativeDepth > ctx.resumeBaseline {
		ctx.raiseKind(KindCrossBoundaryYield)
	}
	ctx.reportCh <- transfer{n: nresults}
	nargs, ok := <-ctx.resumeCh
	if !ok {
		panic(killSignal{})
	}
	return nargs
}

// Destroy releases an abandoned context: its open upvalues are closed, its
// parked goroutine (if any) unwinds, and its registry handle is dropped.
// A Running context cannot be destroyed.
func (co *ExecutionContext) Destroy() {
	if co.status == StatusRunning {
		return
	}
	co.closeUpvalues(0)
	if co.status == StatusSuspended && co.resumeCh != nil {
		close(co.resumeCh)
	}
	co.status = StatusDead
	co.global.registry.releaseThread(co.threadID)
	log.Debugf("destroyed coroutine %s", co.ID)
}

// moveValues pops n values from the top of from's stack and pushes them, in
// order, onto to's stack. The transfer is exact: the values arrive at to's
// top in the order they sat on from's.
func moveValues(from, to *ExecutionContext, n int) *RuntimeError {
	if n == 0 {
		return nil
	}
	if err := to.stack.grow(n); err != nil {
		return err
	}
	src := from.stack.slots[from.stack.top-n : from.stack.top]
	copy(to.stack.slots[to.stack.top:to.stack.top+n], src)
	to.stack.top += n
	from.stack.top -= n
	return nil
}
