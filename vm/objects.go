package vm

// ---------------------------------------------------------------------------
// ObjectRegistry: the object/GC collaborator surface
// ---------------------------------------------------------------------------
// The execution core treats every non-immediate value as an opaque handle.
// The registry resolves those handles and keeps the referenced objects alive:
// once an object ID is NaN-boxed into a Value, Go's GC can no longer see the
// reference, so the registry maintains the Go-visible one. Root enumeration
// for the (external) collector walks live stack and frame slots.

// Table is a generic indexed collection. The core only needs it for packing
// variadic arguments; everything richer belongs to the object subsystem.
type Table struct {
	Items []Value
}

// ObjectRegistry allocates and resolves the opaque references encoded in
// Values. One registry is shared by every ExecutionContext of a GlobalState;
// cooperative scheduling means it needs no locking.
type ObjectRegistry struct {
	strings   map[uint32]string
	stringIDs map[string]uint32

	tables   map[uint32]*Table
	closures map[uint32]*Closure
	goFuncs  map[uint32]GoFunc
	userdata map[uint32]any
	threads  map[uint32]*ExecutionContext

	nextString   uint32
	nextTable    uint32
	nextClosure  uint32
	nextGoFunc   uint32
	nextUserdata uint32
	nextThread   uint32
}

// NewObjectRegistry creates an empty registry.
func NewObjectRegistry() *ObjectRegistry {
	return &ObjectRegistry{
		strings:   make(map[uint32]string),
		stringIDs: make(map[string]uint32),
		tables:    make(map[uint32]*Table),
		closures:  make(map[uint32]*Closure),
		goFuncs:   make(map[uint32]GoFunc),
		userdata:  make(map[uint32]any),
		threads:   make(map[uint32]*ExecutionContext),
	}
}

// ---------------------------------------------------------------------------
// Strings (interned)
// ---------------------------------------------------------------------------

// NewString interns s and returns its handle. Interning makes string
// equality a Value comparison, and lets preallocated error payloads be
// re-raised without allocating.
func (r *ObjectRegistry) NewString(s string) Value {
	if id, ok := r.stringIDs[s]; ok {
		return fromRef(tagString, id)
	}
	r.nextString++
	id := r.nextString
	r.strings[id] = s
	r.stringIDs[s] = id
	return fromRef(tagString, id)
}

// StringContent returns the string referenced by v.
func (r *ObjectRegistry) StringContent(v Value) (string, bool) {
	if !v.IsString() {
		return "", false
	}
	s, ok := r.strings[v.refID()]
	return s, ok
}

// ---------------------------------------------------------------------------
// Tables
// ---------------------------------------------------------------------------

// NewTable registers t and returns its handle.
func (r *ObjectRegistry) NewTable(t *Table) Value {
	r.nextTable++
	id := r.nextTable
	r.tables[id] = t
	return fromRef(tagTable, id)
}

// TableOf returns the table referenced by v, or nil.
func (r *ObjectRegistry) TableOf(v Value) *Table {
	if !v.IsTable() {
		return nil
	}
	return r.tables[v.refID()]
}

// ---------------------------------------------------------------------------
// Functions
// ---------------------------------------------------------------------------

// NewClosure registers cl and returns its handle.
func (r *ObjectRegistry) NewClosure(cl *Closure) Value {
	r.nextClosure++
	id := r.nextClosure | closureMarker
	r.closures[id] = cl
	return fromRef(tagFunc, id)
}

// NewGoFunc registers fn and returns its handle.
func (r *ObjectRegistry) NewGoFunc(fn GoFunc) Value {
	r.nextGoFunc++
	id := r.nextGoFunc | goFuncMarker
	r.goFuncs[id] = fn
	return fromRef(tagFunc, id)
}

// ClosureOf returns the closure referenced by v, or nil.
func (r *ObjectRegistry) ClosureOf(v Value) *Closure {
	if !v.IsClosure() {
		return nil
	}
	return r.closures[v.refID()]
}

// GoFuncOf returns the native function referenced by v, or nil.
func (r *ObjectRegistry) GoFuncOf(v Value) GoFunc {
	if !v.IsGoFunc() {
		return nil
	}
	return r.goFuncs[v.refID()]
}

// ---------------------------------------------------------------------------
// Userdata
// ---------------------------------------------------------------------------

// NewUserdata registers an opaque embedder object and returns its handle.
func (r *ObjectRegistry) NewUserdata(obj any) Value {
	r.nextUserdata++
	id := r.nextUserdata
	r.userdata[id] = obj
	return fromRef(tagUserdata, id)
}

// UserdataOf returns the userdata referenced by v, or nil.
func (r *ObjectRegistry) UserdataOf(v Value) any {
	if !v.IsUserdata() {
		return nil
	}
	return r.userdata[v.refID()]
}

// ---------------------------------------------------------------------------
// Threads
// ---------------------------------------------------------------------------

func (r *ObjectRegistry) registerThread(ctx *ExecutionContext) Value {
	r.nextThread++
	id := r.nextThread
	r.threads[id] = ctx
	ctx.threadID = id
	return fromRef(tagThread, id)
}

// ThreadOf returns the ExecutionContext referenced by v, or nil.
func (r *ObjectRegistry) ThreadOf(v Value) *ExecutionContext {
	if !v.IsThread() {
		return nil
	}
	return r.threads[v.refID()]
}

func (r *ObjectRegistry) releaseThread(id uint32) {
	delete(r.threads, id)
}

// ---------------------------------------------------------------------------
// GC roots
// ---------------------------------------------------------------------------

// Roots enumerates every live Value slot of ctx for the external collector:
// the value stack up to top, frame varargs, and the open upvalue cells.
// Closed upvalue cells are owned by the closures that captured them and are
// reached through the registry, not through any context.
func (ctx *ExecutionContext) Roots(yield func(Value)) {
	for i := 0; i < ctx.stack.top; i++ {
		yield(ctx.stack.slots[i])
	}
	for i := 0; i <= ctx.frames.current; i++ {
		fr := &ctx.frames.frames[i]
		if fr.Varargs != Nil {
			yield(fr.Varargs)
		}
	}
	for uv := ctx.openUpvalues; uv != nil; uv = uv.next {
		yield(uv.Get())
	}
}
