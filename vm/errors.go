package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Error kinds
// ---------------------------------------------------------------------------
// Every in-language failure funnels through ExecutionContext.raise and is
// recovered at the nearest RunProtected boundary. At Go-facing API
// boundaries the unwind is converted into an ordinary error value; errors.Is
// against the sentinels below identifies the kind.

// ErrKind classifies a raised runtime error.
type ErrKind int

const (
	// KindRuntime is an ordinary in-language error with a user payload.
	KindRuntime ErrKind = iota
	// KindAllocation reports an allocation failure. Its payload is
	// preallocated so raising it never allocates.
	KindAllocation
	// KindCallDepth reports that the frame stack hit its hard maximum.
	KindCallDepth
	// KindStackSize reports that the value stack hit its hard maximum.
	KindStackSize
	// KindHandler reports an error raised while a user error handler was
	// already running. It escalates with a fixed message and never re-enters
	// the handler.
	KindHandler
	// KindCoroutineState reports a resume on a Dead or Running context.
	KindCoroutineState
	// KindCrossBoundaryYield reports a yield attempted above a native frame.
	KindCrossBoundaryYield
	// KindNotCallable reports a call on a value with no callable behavior.
	KindNotCallable
)

// Sentinel errors, one per kind, for errors.Is matching.
var (
	ErrRuntime            = errors.New("runtime error")
	ErrAllocationFailure  = errors.New("not enough memory")
	ErrCallDepthExceeded  = errors.New("call depth exceeded")
	ErrStackSizeExceeded  = errors.New("stack size exceeded")
	ErrInHandler          = errors.New("error in error handling")
	ErrCoroutineState     = errors.New("cannot resume coroutine")
	ErrCrossBoundaryYield = errors.New("attempt to yield across a native call boundary")
	ErrNotCallable        = errors.New("attempt to call a non-callable value")
)

var kindSentinels = map[ErrKind]error{
	KindRuntime:            ErrRuntime,
	KindAllocation:         ErrAllocationFailure,
	KindCallDepth:          ErrCallDepthExceeded,
	KindStackSize:          ErrStackSizeExceeded,
	KindHandler:            ErrInHandler,
	KindCoroutineState:     ErrCoroutineState,
	KindCrossBoundaryYield: ErrCrossBoundaryYield,
	KindNotCallable:        ErrNotCallable,
}

// RuntimeError is the recovered form of a raised error. Value carries the
// in-language payload (for KindRuntime, whatever was passed to Raise; for
// the built-in kinds, a preallocated message string).
type RuntimeError struct {
	Kind  ErrKind
	Value Value
	msg   string
}

func (e *RuntimeError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return kindSentinels[e.Kind].Error()
}

// Unwrap maps the error onto its kind sentinel so callers can use errors.Is.
func (e *RuntimeError) Unwrap() error {
	return kindSentinels[e.Kind]
}

// newKindError builds a RuntimeError for a built-in kind, using the
// GlobalState's preallocated payload for that kind.
func (g *GlobalState) newKindError(kind ErrKind) *RuntimeError {
	return &RuntimeError{Kind: kind, Value: g.kindPayloads[kind]}
}

func (g *GlobalState) runtimeErrorf(format string, args ...any) *RuntimeError {
	msg := fmt.Sprintf(format, args...)
	return &RuntimeError{Kind: KindRuntime, Value: g.Registry().NewString(msg), msg: msg}
}
