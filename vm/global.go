package vm

import (
	"os"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("kestrel.vm")

// ---------------------------------------------------------------------------
// GlobalState: state shared by every ExecutionContext
// ---------------------------------------------------------------------------

// Limits bounds the per-context stacks. Zero fields fall back to the
// compiled-in defaults.
type Limits struct {
	MaxStackSlots     int
	MaxCallDepth      int
	InitialStackSlots int
	InitialFrameDepth int
}

// ExecFunc is the external bytecode dispatch loop. It is invoked with the
// just-entered frame as current and must return once that frame (and every
// frame pushed above it) has completed via CompleteCall.
type ExecFunc func(*ExecutionContext)

// CallResolver is the callable-behavior resolution hook, consulted when a
// call target is not itself a function. It returns the callable stand-in
// (which receives the original value as its first argument), or Nil.
type CallResolver func(*ExecutionContext, Value) Value

// FatalFunc is the embedder's hook for errors raised with no RunProtected
// boundary in place. The process terminates after it returns.
type FatalFunc func(*ExecutionContext, *RuntimeError)

// GlobalState is shared, read/write, by all ExecutionContexts created from
// it. Cooperative scheduling guarantees at most one context runs at a time,
// so nothing here is locked.
type GlobalState struct {
	registry *ObjectRegistry
	limits   Limits

	exec    ExecFunc
	resolve CallResolver
	fatal   FatalFunc

	mainCtx *ExecutionContext

	// Preallocated error payloads, one per built-in kind. AllocationFailure
	// in particular must be raisable without allocating.
	kindPayloads map[ErrKind]Value

	exit func(int) // overridable for tests of the fatal path
}

// New creates a GlobalState and its main ExecutionContext.
func New(limits Limits) *GlobalState {
	g := &GlobalState{
		registry: NewObjectRegistry(),
		limits:   limits,
		exit:     os.Exit,
	}
	g.kindPayloads = make(map[ErrKind]Value, len(kindSentinels))
	for kind, sentinel := range kindSentinels {
		g.kindPayloads[kind] = g.registry.NewString(sentinel.Error())
	}
	g.mainCtx = newExecutionContext(g)
	g.mainCtx.status = StatusRunning
	return g
}

// Registry returns the shared object registry.
func (g *GlobalState) Registry() *ObjectRegistry { return g.registry }

// Main returns the main ExecutionContext.
func (g *GlobalState) Main() *ExecutionContext { return g.mainCtx }

// SetExec installs the bytecode dispatch loop.
func (g *GlobalState) SetExec(fn ExecFunc) { g.exec = fn }

// SetCallResolver installs the callable-behavior resolution hook.
func (g *GlobalState) SetCallResolver(fn CallResolver) { g.resolve = fn }

// SetFatal installs the embedder's fatal hook.
func (g *GlobalState) SetFatal(fn FatalFunc) { g.fatal = fn }

// fatalError runs the fatal hook and terminates the process. Reached only
// when an error is raised with no recovery point installed.
func (g *GlobalState) fatalError(ctx *ExecutionContext, err *RuntimeError) {
	log.Criticalf("unprotected error in context %s: %s", ctx.ID, err.Error())
	if g.fatal != nil {
		g.fatal(ctx, err)
	}
	g.exit(1)
}
