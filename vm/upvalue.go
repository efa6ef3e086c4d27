package vm

// ---------------------------------------------------------------------------
// Upvalues
// ---------------------------------------------------------------------------
// An open upvalue aliases a live ValueStack slot; closures capturing the same
// slot share one Upvalue. The logical reference is the slot index. As a fast
// path the upvalue also caches a pointer into the backing array; that cache
// is the one thing stack reallocation invalidates, so the correction pass
// (rebaseUpvalues) runs on every growth. Closing copies the value out and
// severs the stack alias.

// Upvalue is a reference to a stack slot (while open) or an owned value
// (once closed).
type Upvalue struct {
	slot   int      // stack index while open; -1 once closed
	cached *Value   // fast path: &stack.slots[slot] while open, &closed after
	closed Value    // owned copy once closed
	next   *Upvalue // open list, ordered by descending slot
}

// Get returns the value the upvalue currently denotes.
func (uv *Upvalue) Get() Value { return *uv.cached }

// Set stores v through the upvalue.
func (uv *Upvalue) Set(v Value) { *uv.cached = v }

// IsOpen reports whether the upvalue still aliases a stack slot.
func (uv *Upvalue) IsOpen() bool { return uv.slot >= 0 }

// Slot returns the aliased stack index, or -1 once closed.
func (uv *Upvalue) Slot() int { return uv.slot }

// FindUpvalue returns the open upvalue for slot, creating and linking it in
// descending-slot order if none exists yet.
func (ctx *ExecutionContext) FindUpvalue(slot int) *Upvalue {
	p := &ctx.openUpvalues
	for *p != nil && (*p).slot > slot {
		p = &(*p).next
	}
	if *p != nil && (*p).slot == slot {
		return *p
	}
	uv := &Upvalue{
		slot:   slot,
		cached: &ctx.stack.slots[slot],
		next:   *p,
	}
	*p = uv
	return uv
}

// closeUpvalues closes every open upvalue whose slot is at or above from.
// The list is ordered by descending slot, so closing a frame's range is a
// prefix walk.
func (ctx *ExecutionContext) closeUpvalues(from int) {
	for ctx.openUpvalues != nil && ctx.openUpvalues.slot >= from {
		uv := ctx.openUpvalues
		ctx.openUpvalues = uv.next
		uv.closed = *uv.cached
		uv.cached = &uv.closed
		uv.slot = -1
		uv.next = nil
	}
}

// rebaseUpvalues is the stack correction pass: after the backing array moved,
// every open upvalue's cached pointer is recomputed from its slot index.
func (ctx *ExecutionContext) rebaseUpvalues() {
	for uv := ctx.openUpvalues; uv != nil; uv = uv.next {
		uv.cached = &ctx.stack.slots[uv.slot]
	}
}

// OpenUpvalueSlots returns the slots of the currently open upvalues in list
// order (descending). Diagnostics and snapshots only.
func (ctx *ExecutionContext) OpenUpvalueSlots() []int {
	var slots []int
	for uv := ctx.openUpvalues; uv != nil; uv = uv.next {
		slots = append(slots, uv.slot)
	}
	return slots
}
