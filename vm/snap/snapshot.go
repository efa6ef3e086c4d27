// Package snap captures execution-state snapshots for diagnostics and crash
// reports. A snapshot is a flat record of one context's stacks at a moment
// of suspension; it carries raw value words, so it is only meaningful to
// tooling that also has the originating registry or treats values opaquely.
package snap

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/kestrel-lang/kestrel/vm"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snap: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// FrameRecord is the serialized form of one activation frame.
type FrameRecord struct {
	FuncSlot        int    `cbor:"1,keyasint"`
	Base            int    `cbor:"2,keyasint"`
	Top             int    `cbor:"3,keyasint"`
	ResumePoint     int    `cbor:"4,keyasint"`
	ExpectedResults int    `cbor:"5,keyasint"`
	TailCalls       int    `cbor:"6,keyasint"`
	IsGo            bool   `cbor:"7,keyasint"`
	FuncName        string `cbor:"8,keyasint,omitempty"`
}

// Snapshot is one context's execution state at a moment of suspension.
type Snapshot struct {
	ContextID        string        `cbor:"1,keyasint"`
	Status           string        `cbor:"2,keyasint"`
	CapturedAt       time.Time     `cbor:"3,keyasint"`
	Stack            []uint64      `cbor:"4,keyasint"`
	Frames           []FrameRecord `cbor:"5,keyasint"`
	OpenUpvalueSlots []int         `cbor:"6,keyasint"`
}

// Capture records ctx's current stacks. The context must not be running on
// another goroutine while captured.
func Capture(ctx *vm.ExecutionContext) *Snapshot {
	s := &Snapshot{
		ContextID:        ctx.ID.String(),
		Status:           ctx.Status().String(),
		CapturedAt:       time.Now().UTC(),
		Stack:            make([]uint64, ctx.Top()),
		OpenUpvalueSlots: ctx.OpenUpvalueSlots(),
	}
	for i := 0; i < ctx.Top(); i++ {
		s.Stack[i] = uint64(ctx.Get(i))
	}
	for i := 0; i < ctx.Depth(); i++ {
		fr := ctx.FrameAt(i)
		rec := FrameRecord{
			FuncSlot:        fr.FuncSlot,
			Base:            fr.Base,
			Top:             fr.Top,
			ResumePoint:     fr.ResumePoint,
			ExpectedResults: fr.ExpectedResults,
			TailCalls:       fr.TailCalls,
			IsGo:            fr.IsGo,
		}
		if cl := ctx.ClosureAt(fr); cl != nil {
			rec.FuncName = cl.Proto.Name
		}
		s.Frames = append(s.Frames, rec)
	}
	return s
}

// Marshal serializes a Snapshot to canonical CBOR bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// Unmarshal deserializes a Snapshot from CBOR bytes.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snap: unmarshal snapshot: %w", err)
	}
	return &s, nil
}
