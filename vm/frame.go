package vm

// ---------------------------------------------------------------------------
// Frame and FrameStack
// ---------------------------------------------------------------------------

const (
	// DefaultMaxCallDepth is the hard maximum of simultaneously active frames.
	DefaultMaxCallDepth = 200

	// DefaultInitialFrameDepth is the frame capacity a fresh context starts with.
	DefaultInitialFrameDepth = 8
)

// MultipleResults as an expected-result count means "keep everything the
// callee returns".
const MultipleResults = -1

// noResumePoint marks a frame the dispatch loop never resumes (native
// frames and the pseudo-root frame).
const noResumePoint = -1

// Frame describes one active call's stack region and resumption point. All
// slot references are indices into the owning context's ValueStack, so frame
// records survive stack reallocation untouched.
type Frame struct {
	FuncSlot        int   // slot holding the callee
	Base            int   // first slot of the frame's register window
	Top             int   // one past the last slot of the window
	ResumePoint     int   // saved program counter; noResumePoint for native frames
	ExpectedResults int   // fixed count, or MultipleResults
	TailCalls       int   // diagnostics: tail calls folded into this frame
	Varargs         Value // packed excess arguments, Nil unless variadic
	IsGo            bool  // native frame; yields cannot cross it
}

// FrameStack is a contiguous sequence of Frames with an index of the current
// (innermost) frame. Frames are created by index increment and destroyed by
// index decrement; no per-frame allocation happens on the call path.
// FrameStack growth is independent of ValueStack growth and requires no
// correction pass.
type FrameStack struct {
	frames   []Frame
	current  int // index of the active frame
	maxDepth int // hard maximum for current
}

func newFrameStack(initial, maxDepth int) *FrameStack {
	if initial <= 0 {
		initial = DefaultInitialFrameDepth
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxCallDepth
	}
	return &FrameStack{
		frames:   make([]Frame, initial),
		current:  -1,
		maxDepth: maxDepth,
	}
}

// Depth returns the number of active frames.
func (fs *FrameStack) Depth() int { return fs.current + 1 }

// Current returns the active frame.
func (fs *FrameStack) Current() *Frame {
	if fs.current < 0 {
		panic("FrameStack.Current: no active frame")
	}
	return &fs.frames[fs.current]
}

// push allocates the next frame by index increment, doubling the backing
// array when full. Returns nil (without changing any state) when the hard
// depth limit is hit; the caller raises CallDepthExceeded.
func (fs *FrameStack) push() *Frame {
	if fs.current+1 >= fs.maxDepth {
		return nil
	}
	fs.current++
	if fs.current >= len(fs.frames) {
		grown := make([]Frame, 2*len(fs.frames))
		copy(grown, fs.frames)
		fs.frames = grown
	}
	fr := &fs.frames[fs.current]
	*fr = Frame{ResumePoint: noResumePoint, Varargs: Nil}
	return fr
}

// pop destroys the current frame by index decrement.
func (fs *FrameStack) pop() {
	if fs.current < 0 {
		panic("FrameStack.pop: frame stack underflow")
	}
	fs.current--
}
