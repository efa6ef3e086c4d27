package vm

import (
	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// ExecutionContext
// ---------------------------------------------------------------------------

// Status is the lifecycle state of an ExecutionContext.
type Status int

const (
	StatusNotStarted Status = iota
	StatusRunning
	StatusSuspended
	StatusDead
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not started"
	case StatusRunning:
		return "running"
	case StatusSuspended:
		return "suspended"
	case StatusDead:
		return "dead"
	default:
		return "unknown"
	}
}

// ExecutionContext is an independently resumable unit of execution: one
// value stack, one frame stack, one open-upvalue list. No other context may
// touch them. All contexts created from one GlobalState share it.
type ExecutionContext struct {
	ID     uuid.UUID
	global *GlobalState

	stack        *ValueStack
	frames       *FrameStack
	openUpvalues *Upvalue

	status     Status
	recoveries *RecoveryPoint
	inHandler  bool

	// nativeDepth counts Go-function invocations currently on this
	// context's call chain; resumeBaseline is its value at the last resume
	// point. Yield fails when depth exceeds the baseline: a native frame
	// cannot be transparently re-entered.
	nativeDepth    int
	resumeBaseline int

	// Coroutine plumbing. The context body runs on its own goroutine;
	// control is handed over through unbuffered channels, so at most one
	// context executes at any instant.
	entry    Value
	resumeCh chan int
	reportCh chan transfer
	threadID uint32

	hook     HookFunc
	hookMask HookMask
	inHook   bool
}

func newExecutionContext(g *GlobalState) *ExecutionContext {
	ctx := &ExecutionContext{
		ID:     uuid.New(),
		global: g,
		entry:  Nil,
	}
	ctx.stack = newValueStack(ctx, g.limits.InitialStackSlots, g.limits.MaxStackSlots)
	ctx.frames = newFrameStack(g.limits.InitialFrameDepth, g.limits.MaxCallDepth)

	// Pseudo-root frame: anchors the embedding API's pushes and gives
	// unwinding a floor. Never resumed, never popped.
	ctx.stack.Push(Nil)
	root := ctx.frames.push()
	root.FuncSlot = 0
	root.Base = 1
	root.Top = 1
	root.ExpectedResults = MultipleResults
	root.IsGo = true
	ctx.stack.base = 1
	return ctx
}

// Global returns the shared GlobalState.
func (ctx *ExecutionContext) Global() *GlobalState { return ctx.global }

// Status returns the context's lifecycle state.
func (ctx *ExecutionContext) Status() Status { return ctx.status }

// Depth returns the number of active frames, including the pseudo-root.
func (ctx *ExecutionContext) Depth() int { return ctx.frames.Depth() }

// CurrentFrame returns the innermost frame.
func (ctx *ExecutionContext) CurrentFrame() *Frame { return ctx.frames.Current() }

// FrameAt returns the frame at depth i (0 is the pseudo-root), or nil.
func (ctx *ExecutionContext) FrameAt(i int) *Frame {
	if i < 0 || i > ctx.frames.current {
		return nil
	}
	return &ctx.frames.frames[i]
}

// SetResumePoint records the dispatch loop's program counter in the current
// frame, so a later snapshot or resume knows where execution stands.
func (ctx *ExecutionContext) SetResumePoint(pc int) {
	ctx.frames.Current().ResumePoint = pc
}

// ClosureAt resolves the closure occupying fr's function slot, or nil for a
// native or root frame.
func (ctx *ExecutionContext) ClosureAt(fr *Frame) *Closure {
	return ctx.global.registry.ClosureOf(ctx.stack.slots[fr.FuncSlot])
}
