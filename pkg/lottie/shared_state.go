package lottie

import (
	"fmt"
	"image"
	"sync/atomic"

	lottieerrors "github.com/go-drift/lottie/pkg/errors"
	"github.com/go-drift/lottie/pkg/graphics"
)

// framesInRing is the number of frame slots each animation cycles through.
// Two slots of look-ahead is enough to hide decode latency; four keeps the
// producer and consumer from ever touching the same slot.
const framesInRing = 4

// counterUninitialized is the counter value before Start arms the state.
const counterUninitialized = -1

// counterPhase describes what the background producer does at one counter
// value: promote a slot to the presentation target, or prerender ahead.
type counterPhase struct {
	prerender bool
	slot      int
}

// counterPhases maps each counter value in [0, 2*framesInRing) to its phase.
//
// The counter encodes the whole handoff protocol: the presented slot is
// counter/2 mod N. Even values promote the following slot (present target
// counter/2+1 mod N) and advance the counter by one; odd values mean a frame
// is pending consumer pickup, so the producer prerenders starting one slot
// past the pending one. The pending slot itself is ((counter+1) mod 2N)/2.
var counterPhases = buildCounterPhases()

func buildCounterPhases() [2 * framesInRing]counterPhase {
	var table [2 * framesInRing]counterPhase
	for c := range table {
		if c%2 == 0 {
			table[c] = counterPhase{slot: (c/2 + 1) % framesInRing}
		} else {
			table[c] = counterPhase{prerender: true, slot: ((c+1)/2 + 1) % framesInRing}
		}
	}
	return table
}

// pendingSlot returns the slot awaiting consumer pickup for an odd counter
// value: the slot that becomes the presentation target on the next advance.
func pendingSlot(c int) int {
	return ((c + 1) % (2 * framesInRing)) / 2
}

// RenderResult reports one background step: whether any work was done and,
// when a frame became presentable, the owner to notify.
type RenderResult struct {
	Rendered bool
	Notify   *OwnerRef
}

// SharedState is the per-animation frame ring: a fixed ring of Frame slots
// advanced by a single background producer and consumed by a single
// foreground reader, synchronized through one atomic counter.
//
// The counter is the only synchronization point. Every slot write the
// producer performs happens before its release store of the next counter
// value, and the consumer's acquire load happens before it reads those slot
// fields, so no slot data is ever partially visible. The consumer hands
// slots back the same way through MarkFrameShown. Timing fields (delay,
// skippedFrames) follow the same discipline: the consumer writes them only
// while the counter is odd and the producer reads them only after observing
// an even value.
//
// Calling any operation out of phase (for example FrameForPaint before Start)
// is a programming error and panics.
type SharedState struct {
	content []byte
	factory DecoderFactory
	decoder Decoder
	cache   Cache

	counter atomic.Int32
	frames  [framesInRing]Frame

	owner         *OwnerRef
	started       Time
	delay         Time
	skippedFrames int
	frameIndex    int

	size        graphics.Size
	frameRate   int
	framesCount int
}

// NewSharedState builds a frame ring over a live decoder and renders the
// cover frame for the given request. The returned state reports IsValid()
// false (and never produces frames) when the decoder's properties are out of
// the supported range.
func NewSharedState(decoder Decoder, request FrameRequest) *SharedState {
	s := &SharedState{decoder: decoder}
	s.construct(request)
	return s
}

// NewCachedSharedState builds a frame ring that renders through cache,
// falling back to decoder (re-opened from content via factory when dropped)
// on cache misses. decoder may be nil when the cache is already populated.
func NewCachedSharedState(content []byte, decoder Decoder, cache Cache, factory DecoderFactory, request FrameRequest) *SharedState {
	s := &SharedState{
		content: content,
		factory: factory,
		decoder: decoder,
		cache:   cache,
	}
	s.construct(request)
	return s
}

func (s *SharedState) construct(request FrameRequest) {
	s.counter.Store(counterUninitialized)
	for i := range s.frames {
		s.frames[i].Display = TimeUnknown
		s.frames[i].Displayed = FrameDisplayTimeAlreadyDone
	}
	s.calculateProperties()
	if !s.IsValid() {
		return
	}
	// The first produced frame restarts the cycle at index zero, matching
	// the cover rendered below.
	s.frameIndex = s.framesCount - 1
	var cover *image.RGBA
	if s.cache != nil {
		cover = s.cache.TakeFirstFrame()
	}
	if cover == nil {
		if s.cache != nil {
			s.cache.Init(s.size, s.frameRate, s.framesCount, request)
		}
		cover = s.RenderFrame(nil, request, 0)
	}
	s.frames[0].Original = cover
	s.frames[0].Request = request
}

func (s *SharedState) calculateProperties() {
	if s.decoder == nil && s.cache == nil {
		panic("lottie: SharedState without a decoder or cache")
	}
	var size graphics.Size
	var rate float64
	var count int
	if s.decoder != nil {
		size = s.decoder.NativeSize()
		rate = s.decoder.FrameRate()
		count = s.decoder.FramesCount()
	} else {
		size = s.cache.OriginalSize()
		rate = float64(s.cache.FrameRate())
		count = s.cache.FramesCount()
	}
	if size.Width <= 0 || size.Width >= maxSize || size.Height <= 0 || size.Height >= maxSize {
		size = graphics.Size{}
	}
	s.size = size
	if rate >= 1 && rate <= maxFrameRate {
		s.frameRate = int(rate)
	}
	if count > 0 && count <= maxFramesCount {
		s.framesCount = count
	}
}

// IsValid reports whether the animation can produce frames. An invalid state
// is inert: it renders nothing and reports empty Information.
func (s *SharedState) IsValid() bool {
	return s.framesCount > 0 && s.frameRate > 0 && !s.size.Empty()
}

// Information describes the animation, or a zero value when invalid.
func (s *SharedState) Information() Information {
	if !s.IsValid() {
		return Information{}
	}
	return Information{
		FrameRate:   s.frameRate,
		FramesCount: s.framesCount,
		Size:        s.size,
	}
}

// Initialized reports whether Start has armed the state.
func (s *SharedState) Initialized() bool {
	return s.counterValue() != counterUninitialized
}

// Start arms the state machine for its owner. It is valid exactly once,
// before any render step. started, delay and skippedFrames seed the display
// time mapping; see AddTimelineDelay for how the timeline adjusts them later.
func (s *SharedState) Start(owner *OwnerRef, started, delay Time, skippedFrames int) {
	if s.Initialized() {
		panic("lottie: SharedState.Start called twice")
	}
	s.owner = owner
	s.started = started
	s.delay = delay
	s.skippedFrames = skippedFrames
	s.counter.Store(0)
}

// RenderFrame decodes the frame at index for the request into the buffer,
// reallocating it when the size does not match, and returns the buffer in
// use. Cached frames are copied instead of decoded; freshly decoded frames
// are appended to the cache, and the decoder is released once the cache
// holds a full cycle.
func (s *SharedState) RenderFrame(into *image.RGBA, request FrameRequest, index int) *image.RGBA {
	if !s.IsValid() {
		return into
	}
	size := s.size
	if !request.Box.Empty() {
		size = request.Size(s.size)
	}
	if !goodStorageForFrame(into, size) {
		into = newFrameStorage(size)
	}
	if s.cache != nil && s.cache.RenderFrame(into, request, index) {
		return into
	}
	if s.decoder == nil {
		decoder, err := s.factory(s.content)
		if err != nil {
			// The content decoded before, so this is a collaborator
			// defect; the state goes inert instead of looping on it.
			lottieerrors.Report(&lottieerrors.Error{
				Op:   "lottie.SharedState.RenderFrame",
				Kind: lottieerrors.KindDecode,
				Err:  err,
			})
			s.framesCount = 0
			return into
		}
		s.decoder = decoder
	}
	clearFrameStorage(into)
	s.decoder.RenderFrameSync(index, into)
	if s.cache != nil {
		s.cache.AppendFrame(into, request, index)
		if s.cache.FramesReady() == s.cache.FramesCount() {
			s.decoder = nil
		}
	}
	return into
}

// isRendered reports whether the slot holds a frame awaiting display.
func isRendered(frame *Frame) bool {
	return frame.Displayed == TimeUnknown
}

// renderNextFrameInto decodes the next cycle frame into the slot and tags it.
func (s *SharedState) renderNextFrameInto(frame *Frame, request FrameRequest) {
	s.frameIndex = (s.frameIndex + 1) % s.framesCount
	index := s.frameIndex
	frame.Original = s.RenderFrame(frame.Original, request, index)
	frame.Request = request
	PrepareFrameByRequest(frame, false)
	frame.Index = index
	frame.Position = Time(1000) * Time(index) / Time(s.frameRate)
	frame.Displayed = TimeUnknown
}

// RenderNextFrame performs one background step: prerender an upcoming slot
// or promote the next presentation target. It returns whether any work was
// done and, on promotion, the owner to notify.
func (s *SharedState) RenderNextFrame(request FrameRequest) RenderResult {
	if !s.IsValid() {
		return RenderResult{}
	}
	c := s.counterValue()
	if c < 0 || c >= len(counterPhases) {
		panic(fmt.Sprintf("lottie: SharedState.RenderNextFrame: counter %d", c))
	}
	phase := counterPhases[c]
	if phase.prerender {
		frame := s.getFrame(phase.slot)
		next := s.getFrame((phase.slot + 1) % framesInRing)
		if !isRendered(frame) {
			s.renderNextFrameInto(frame, request)
			return RenderResult{Rendered: true}
		} else if !isRendered(next) {
			s.renderNextFrameInto(next, request)
			return RenderResult{Rendered: true}
		}
		return RenderResult{}
	}
	frame := s.getFrame(phase.slot)
	if !isRendered(frame) {
		s.renderNextFrameInto(frame, request)
	}
	frame.Display = s.countFrameDisplayTime(frame.Index)

	// Release this frame to the consumer.
	s.counter.Store(int32((c + 1) % (2 * framesInRing)))
	return RenderResult{Rendered: true, Notify: s.owner}
}

// countFrameDisplayTime maps a cycle index to its wall-clock display time.
func (s *SharedState) countFrameDisplayTime(index int) Time {
	return s.started + s.delay + Time(1000)*Time(s.skippedFrames+index)/Time(s.frameRate)
}

func (s *SharedState) counterValue() int {
	return int(s.counter.Load())
}

func (s *SharedState) getFrame(index int) *Frame {
	return &s.frames[index]
}

// FrameForPaint returns the slot currently designated as the presentation
// target. The slot must hold a displayed frame; anything else is a protocol
// violation and panics.
func (s *SharedState) FrameForPaint() *Frame {
	c := s.counterValue()
	if c < 0 {
		panic("lottie: FrameForPaint before Start")
	}
	frame := s.getFrame(c / 2)
	if frame.Original == nil {
		panic("lottie: FrameForPaint on a frame without an image")
	}
	if frame.Displayed == TimeUnknown {
		panic("lottie: FrameForPaint on a frame that was never displayed")
	}
	return frame
}

// NextFrameDisplayTime returns the scheduled wall-clock time of the pending
// frame, FrameDisplayTimeAlreadyDone when that frame was already handed out
// but not yet shown, or TimeUnknown when no frame is pending.
func (s *SharedState) NextFrameDisplayTime() Time {
	c := s.counterValue()
	switch {
	case c < 0 || c >= 2*framesInRing:
		panic(fmt.Sprintf("lottie: NextFrameDisplayTime: counter %d", c))
	case c%2 == 0:
		return TimeUnknown
	}
	frame := s.getFrame(pendingSlot(c))
	if frame.Displayed != TimeUnknown {
		// Frame already displayed, but not yet shown.
		return FrameDisplayTimeAlreadyDone
	}
	if frame.Display == TimeUnknown {
		panic("lottie: NextFrameDisplayTime on a frame without a schedule")
	}
	return frame.Display
}

// MarkFrameDisplayed marks the pending frame as shown to the user at the
// given time. Only the first mark sticks. It returns the frame's position on
// the animation's timeline. Calling it when no frame is pending panics.
func (s *SharedState) MarkFrameDisplayed(now Time) Time {
	c := s.counterValue()
	if c < 0 || c >= 2*framesInRing || c%2 == 0 {
		panic(fmt.Sprintf("lottie: MarkFrameDisplayed: counter %d", c))
	}
	frame := s.getFrame(pendingSlot(c))
	if frame.Displayed == TimeUnknown {
		frame.Displayed = now
	}
	return frame.Position
}

// MarkFrameShown advances the counter so the pending frame becomes the
// presentation target, provided it was already marked displayed. It returns
// false when the consumer must keep waiting.
func (s *SharedState) MarkFrameShown() bool {
	c := s.counterValue()
	switch {
	case c < 0 || c >= 2*framesInRing:
		panic(fmt.Sprintf("lottie: MarkFrameShown: counter %d", c))
	case c%2 == 0:
		return false
	}
	next := (c + 1) % (2 * framesInRing)
	frame := s.getFrame(pendingSlot(c))
	if frame.Displayed == TimeUnknown {
		return false
	}
	s.counter.Store(int32(next))
	return true
}

// AddTimelineDelay shifts the not-yet-displayed schedule by delayed
// milliseconds and folds skippedFrames into the future index-to-time
// mapping. The timeline calls it after a pause or when looping past the
// last frame; it is only meaningful while a frame is pending, any other
// phase panics.
func (s *SharedState) AddTimelineDelay(delayed Time, skippedFrames int) {
	if delayed == 0 && skippedFrames == 0 {
		return
	}
	c := s.counterValue()
	if c < 0 || c >= 2*framesInRing || c%2 == 0 {
		panic(fmt.Sprintf("lottie: AddTimelineDelay: counter %d", c))
	}
	s.delay += delayed

	// The pending frame shifts by exactly the delay; skipped frames only
	// remap indices the producer stamps from here on.
	frame := s.getFrame(pendingSlot(c))
	if frame.Displayed == TimeUnknown {
		if frame.Display == TimeUnknown {
			panic("lottie: AddTimelineDelay on a frame without a schedule")
		}
		frame.Display = s.countFrameDisplayTime(frame.Index)
	}
	s.skippedFrames += skippedFrames
}
