package vm

// ---------------------------------------------------------------------------
// Debug hooks
// ---------------------------------------------------------------------------
// The debug subsystem observes call, return, and tail-call events. Events
// carry the current frame; name resolution is the hook's business.

// HookEvent identifies what the Invoker just did.
type HookEvent int

const (
	HookCall HookEvent = iota
	HookReturn
	HookTailCall
)

func (ev HookEvent) String() string {
	switch ev {
	case HookCall:
		return "call"
	case HookReturn:
		return "return"
	case HookTailCall:
		return "tailcall"
	default:
		return "unknown"
	}
}

// HookMask selects which events a hook receives.
type HookMask uint8

const (
	MaskCall HookMask = 1 << iota
	MaskReturn
	MaskTailCall
	MaskAll = MaskCall | MaskReturn | MaskTailCall
)

func (ev HookEvent) mask() HookMask {
	switch ev {
	case HookCall:
		return MaskCall
	case HookReturn:
		return MaskReturn
	default:
		return MaskTailCall
	}
}

// HookFunc receives hook events. The frame pointer is only valid for the
// duration of the callback.
type HookFunc func(ctx *ExecutionContext, ev HookEvent, fr *Frame)

// SetHook installs fn for the events selected by mask. A nil fn or empty
// mask disables hooking.
func (ctx *ExecutionContext) SetHook(fn HookFunc, mask HookMask) {
	ctx.hook = fn
	ctx.hookMask = mask
}

// callHook dispatches one event. Hooks never nest, and an error raised
// inside a hook escalates as HandlerError rather than re-entering it.
func (ctx *ExecutionContext) callHook(ev HookEvent, fr *Frame) {
	if ctx.hook == nil || ctx.hookMask&ev.mask() == 0 || ctx.inHook {
		return
	}
	ctx.inHook = true
	wasInHandler := ctx.inHandler
	ctx.inHandler = true
	defer func() {
		ctx.inHook = false
		ctx.inHandler = wasInHandler
	}()
	ctx.hook(ctx, ev, fr)
}
