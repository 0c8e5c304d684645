package lottie

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-drift/lottie/pkg/graphics"
)

type countingStepper struct {
	steps atomic.Int32
}

func (s *countingStepper) CheckStep() {
	s.steps.Add(1)
}

// inlineDispatch runs notifications on the calling goroutine.
var inlineDispatch = DispatchFunc(func(fn func()) { fn() })

// syncRendererShared returns a frameRendererShared whose self-scheduling is
// disabled (its queue is already closed), so generation passes can be driven
// synchronously from the test.
func syncRendererShared() *frameRendererShared {
	queue := newTaskQueue()
	queue.close()
	return &frameRendererShared{queue: queue}
}

func startedState(t *testing.T, ref *OwnerRef, count int) *SharedState {
	t.Helper()
	state := NewSharedState(newTestDecoder(8, 8, 30, count), FrameRequest{})
	if !state.IsValid() {
		t.Fatal("test state invalid")
	}
	state.Start(ref, 0, 0, 0)
	return state
}

func TestGenerateFramesBatchesOwnerNotifications(t *testing.T) {
	stepper := &countingStepper{}
	ref := NewOwnerRef(stepper, inlineDispatch)
	s1 := startedState(t, ref, 10)
	s2 := startedState(t, ref, 10)

	r := syncRendererShared()
	r.append(s1)
	r.append(s2)

	// One pass promotes a frame in both states; the shared owner is told once.
	r.generateFrames()
	if got := stepper.steps.Load(); got != 1 {
		t.Fatalf("CheckStep called %d times for one pass over a shared owner, want 1", got)
	}

	// Follow-up passes only prerender until the consumer frees a slot.
	r.generateFrames()
	if got := stepper.steps.Load(); got != 1 {
		t.Fatalf("prerender pass notified the owner (%d calls)", got)
	}
}

func TestGenerateFramesSeparateOwners(t *testing.T) {
	// Two owners with distinct func-typed dispatchers promoted in one pass;
	// func dispatchers must flow through notification delivery untouched.
	stepper1 := &countingStepper{}
	stepper2 := &countingStepper{}
	s1 := startedState(t, NewOwnerRef(stepper1, DispatchFunc(func(fn func()) { fn() })), 10)
	s2 := startedState(t, NewOwnerRef(stepper2, DispatchFunc(func(fn func()) { fn() })), 10)

	r := syncRendererShared()
	r.append(s1)
	r.append(s2)
	r.generateFrames()

	if stepper1.steps.Load() != 1 || stepper2.steps.Load() != 1 {
		t.Fatalf("steps = %d, %d; want one each", stepper1.steps.Load(), stepper2.steps.Load())
	}
}

func TestGenerateFramesSkipsInvalidatedOwner(t *testing.T) {
	stepper := &countingStepper{}
	ref := NewOwnerRef(stepper, inlineDispatch)
	state := startedState(t, ref, 10)

	r := syncRendererShared()
	r.append(state)
	ref.Invalidate()
	r.generateFrames()

	if got := stepper.steps.Load(); got != 0 {
		t.Fatalf("CheckStep called %d times after invalidation, want 0", got)
	}
}

func TestUpdateFrameRequestAppliesToNextRender(t *testing.T) {
	state := startedState(t, nil, 10)
	r := syncRendererShared()
	r.append(state)
	r.generateFrames()

	request := FrameRequest{Box: graphics.SizeOf(4, 4)}
	r.updateFrameRequest(state, request)
	// Consume the pending frame so the next promotion renders fresh.
	state.MarkFrameDisplayed(state.NextFrameDisplayTime())
	state.MarkFrameShown()
	r.generateFrames()
	if state.NextFrameDisplayTime() == TimeUnknown {
		t.Fatal("no frame promoted after the slot was freed")
	}
	state.MarkFrameDisplayed(state.NextFrameDisplayTime())
	state.MarkFrameShown()

	frame := state.FrameForPaint()
	if !frame.Request.Equal(request) {
		t.Fatalf("painted request = %+v, want %+v", frame.Request, request)
	}
}

func TestRemoveUnregisteredPanics(t *testing.T) {
	r := syncRendererShared()
	defer func() {
		if recover() == nil {
			t.Fatal("remove of an unregistered state did not panic")
		}
	}()
	r.remove(startedState(t, nil, 10))
}

func waitPending(t *testing.T, state *SharedState) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for state.NextFrameDisplayTime() == TimeUnknown {
		if time.Now().After(deadline) {
			t.Fatal("no frame became pending")
		}
		runtime.Gosched()
	}
}

// TestFrameRendererDrivesFullCycle runs a real worker end to end: register,
// consume every frame of a cycle, deregister.
func TestFrameRendererDrivesFullCycle(t *testing.T) {
	const count = 10
	renderer := NewFrameRenderer()
	defer renderer.Stop()

	stepper := &countingStepper{}
	ref := NewOwnerRef(stepper, inlineDispatch)
	state := startedState(t, ref, count)
	renderer.Append(state)

	for i := 0; i < count; i++ {
		waitPending(t, state)
		position := state.MarkFrameDisplayed(state.NextFrameDisplayTime())
		if want := Time(1000 * i / 30); position != want {
			t.Fatalf("frame %d: position = %d, want %d", i, position, want)
		}
		if !state.MarkFrameShown() {
			t.Fatalf("frame %d: MarkFrameShown() = false", i)
		}
		renderer.FrameShown()
	}
	if stepper.steps.Load() == 0 {
		t.Error("owner was never notified")
	}

	ref.Invalidate()
	renderer.Remove(state)
}
