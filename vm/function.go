package vm

// ---------------------------------------------------------------------------
// Callable entities
// ---------------------------------------------------------------------------
// The core does not own instruction encoding; a Proto carries only what the
// Invoker needs to set up a frame. The bytecode itself is opaque to this
// package and is interpreted by the external dispatch loop.

// Proto describes a compiled function: its calling convention and the frame
// it needs. Entry is the program counter the dispatch loop starts at.
type Proto struct {
	Name         string // diagnostics only
	NumParams    int    // declared fixed-parameter count
	IsVariadic   bool   // packs excess arguments into a varargs table
	MaxFrameSize int    // declared maximum frame size, in slots
	Entry        int    // entry program counter
}

// Closure pairs a Proto with the upvalues it captured.
type Closure struct {
	Proto    *Proto
	Upvalues []*Upvalue
}

// GoFunc is a native function. It receives the context it runs in, takes its
// arguments from the current frame's slots, pushes its results onto the
// value stack, and returns how many it pushed.
type GoFunc func(ctx *ExecutionContext) int

// minGoFuncStack is the free-slot guarantee a native function can rely on
// without calling EnsureCapacity itself.
const minGoFuncStack = 20
