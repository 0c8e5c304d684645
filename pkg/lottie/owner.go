package lottie

import "sync/atomic"

// Stepper is implemented by the timeline object that owns playback pacing.
// CheckStep is invoked on the owner's dispatcher whenever one of its
// animations produced a newly presentable frame.
type Stepper interface {
	CheckStep()
}

// Dispatcher executes consumer-side closures on the consumer's own execution
// context (a UI loop, typically). Dispatch must be safe to call from any
// goroutine and must run closures in submission order.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatchFunc adapts a function to the Dispatcher interface.
type DispatchFunc func(fn func())

// Dispatch calls f(fn).
func (f DispatchFunc) Dispatch(fn func()) { f(fn) }

// ownerCell bundles a live owner with the dispatcher its notifications run on.
type ownerCell struct {
	stepper    Stepper
	dispatcher Dispatcher
}

// OwnerRef is a liveness-checked weak reference to a Stepper. The background
// worker holds OwnerRefs across generation passes; the owner invalidates its
// ref on shutdown, after which every dereference yields nothing. The ref is
// never dereferenced without an immediate liveness check, since the owner's
// lifetime is independent of the animation state's.
type OwnerRef struct {
	cell atomic.Pointer[ownerCell]
}

// NewOwnerRef returns a live reference to the stepper, notified via the
// given dispatcher.
func NewOwnerRef(stepper Stepper, dispatcher Dispatcher) *OwnerRef {
	ref := &OwnerRef{}
	ref.cell.Store(&ownerCell{stepper: stepper, dispatcher: dispatcher})
	return ref
}

// Invalidate severs the reference. Notifications already scheduled observe
// the invalidation and are dropped.
func (r *OwnerRef) Invalidate() {
	r.cell.Store(nil)
}

// get returns the owner cell, or nil when the owner is gone.
func (r *OwnerRef) get() *ownerCell {
	return r.cell.Load()
}
