package vm

// ---------------------------------------------------------------------------
// ValueStack: growable tagged-value stack
// ---------------------------------------------------------------------------

const (
	// StackMargin reserves slots beyond lastUsable so the error path can
	// stage a payload even when the stack is nominally full.
	StackMargin = 5

	// DefaultMaxStackSlots is the hard maximum of usable stack slots.
	DefaultMaxStackSlots = 1_000_000

	// DefaultInitialStackSlots is the usable size a fresh context starts with.
	DefaultInitialStackSlots = 40
)

// ValueStack is a contiguous sequence of Values with the invariant
// 0 <= base <= top <= lastUsable <= capacity. Slots are addressed by index;
// growth never invalidates an index, only the cached pointers that open
// upvalues hold into the backing array (the correction pass rebases those).
// The stack only grows, never shrinks.
type ValueStack struct {
	slots      []Value
	base       int // start of the current frame's region
	top        int // next free slot
	lastUsable int // capacity - StackMargin
	maxSlots   int // hard maximum for top

	ctx *ExecutionContext // owner, for the correction pass and raising
}

func newValueStack(ctx *ExecutionContext, initial, maxSlots int) *ValueStack {
	if initial <= 0 {
		initial = DefaultInitialStackSlots
	}
	if maxSlots <= 0 {
		maxSlots = DefaultMaxStackSlots
	}
	s := &ValueStack{
		slots:    make([]Value, initial+StackMargin),
		maxSlots: maxSlots,
		ctx:      ctx,
	}
	for i := range s.slots {
		s.slots[i] = Nil
	}
	s.lastUsable = len(s.slots) - StackMargin
	return s
}

// Capacity returns the total backing capacity, including the margin.
func (s *ValueStack) Capacity() int { return len(s.slots) }

// Top returns the index of the next free slot.
func (s *ValueStack) Top() int { return s.top }

// EnsureCapacity guarantees n free slots below lastUsable, reallocating if
// needed. Growth doubles the capacity when n fits within it, otherwise grows
// to capacity + n + margin. Exceeding the hard maximum raises
// StackSizeExceeded without disturbing the current contents.
func (s *ValueStack) EnsureCapacity(n int) {
	if err := s.grow(n); err != nil {
		s.ctx.raise(err)
	}
}

// grow is the non-raising form of EnsureCapacity, for paths (coroutine
// argument transfer) that must report failure to a different context.
func (s *ValueStack) grow(n int) *RuntimeError {
	if s.lastUsable-s.top >= n {
		return nil
	}
	if s.top+n > s.maxSlots {
		return s.ctx.global.newKindError(KindStackSize)
	}

	capacity := len(s.slots)
	var newCap int
	if n <= capacity {
		newCap = 2 * capacity
	} else {
		newCap = capacity + n + StackMargin
	}
	if newCap > s.maxSlots+StackMargin {
		newCap = s.maxSlots + StackMargin
	}

	newSlots := make([]Value, newCap)
	copy(newSlots, s.slots)
	for i := capacity; i < newCap; i++ {
		newSlots[i] = Nil
	}
	s.slots = newSlots
	s.lastUsable = newCap - StackMargin

	// Correction pass: every alias into the old backing array must be
	// rebased to denote the same logical slot in the new one.
	s.ctx.rebaseUpvalues()
	return nil
}

// Push appends v, growing the stack first if top reached lastUsable.
func (s *ValueStack) Push(v Value) {
	if s.top >= s.lastUsable {
		s.EnsureCapacity(1)
	}
	s.slots[s.top] = v
	s.top++
}

// Pop removes and returns the topmost value.
func (s *ValueStack) Pop() Value {
	if s.top <= 0 {
		panic("ValueStack.Pop: stack underflow")
	}
	s.top--
	return s.slots[s.top]
}

// Get returns the value at absolute index i.
func (s *ValueStack) Get(i int) Value {
	if i < 0 || i >= s.top {
		return Nil
	}
	return s.slots[i]
}

// Set stores v at absolute index i, which must be below top.
func (s *ValueStack) Set(i int, v Value) {
	if i < 0 || i >= s.top {
		panic("ValueStack.Set: index out of range")
	}
	s.slots[i] = v
}

// SetTop moves top to n, nil-filling newly exposed slots on the way up.
func (s *ValueStack) SetTop(n int) {
	if n < 0 {
		panic("ValueStack.SetTop: negative top")
	}
	if n > s.top {
		s.EnsureCapacity(n - s.top)
		for i := s.top; i < n; i++ {
			s.slots[i] = Nil
		}
	}
	s.top = n
}
