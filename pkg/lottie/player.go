package lottie

import (
	"errors"
	"time"

	lottieerrors "github.com/go-drift/lottie/pkg/errors"
)

// PlayerOptions configure a Player.
type PlayerOptions struct {
	// Factory opens the rasterization decoder for parsed content. Required.
	Factory DecoderFactory

	// Cache, when set, serves frames without re-rasterizing and records the
	// ones that had to be decoded.
	Cache Cache

	// Renderer is the background worker to register with. Nil selects the
	// process-wide shared renderer.
	Renderer *FrameRenderer

	// Dispatcher runs consumer-side closures (frame notifications, timer
	// wake-ups) on the consumer's execution context. Nil runs them inline
	// on the posting goroutine, which is only safe in single-goroutine
	// tests.
	Dispatcher Dispatcher

	// Request is the initial frame request.
	Request FrameRequest

	// Playback selects timeline policy.
	Playback PlaybackOptions
}

// Player is the timeline object a UI holds for one playing animation. It
// parses content asynchronously, registers the frame ring with a renderer
// and drives the consumer side of the ring: arming a wake timer for the next
// scheduled frame, marking frames displayed, and folding pause or loop
// delays back into the schedule.
//
// All Player methods except construction must be called on the dispatcher's
// execution context; the Player is not internally locked, mirroring the
// single-consumer contract of SharedState.
type Player struct {
	options    PlayerOptions
	renderer   *FrameRenderer
	dispatcher Dispatcher
	ref        *OwnerRef

	state *SharedState
	info  Information

	nextFrameTime Time
	timer         *time.Timer

	// lastFramePosition identifies the final frame of a cycle, where loop
	// policy folds a full cycle into the schedule.
	lastFramePosition Time

	paused       bool
	pausedAt     Time
	pendingDelay Time

	shut bool

	listeners        map[int]func(Update)
	failureListeners map[int]func(error)
	nextListenerID   int
}

// NewPlayer starts parsing content and returns immediately. Once parsing
// finishes, the player fires an Information update (or a failure) on the
// dispatcher and begins producing frames.
func NewPlayer(content []byte, options PlayerOptions) *Player {
	if options.Factory == nil {
		panic("lottie: NewPlayer without a decoder factory")
	}
	p := &Player{
		options:          options,
		renderer:         options.Renderer,
		dispatcher:       options.Dispatcher,
		nextFrameTime:    TimeUnknown,
		listeners:        make(map[int]func(Update)),
		failureListeners: make(map[int]func(error)),
	}
	if p.renderer == nil {
		p.renderer = SharedFrameRenderer()
	}
	if p.dispatcher == nil {
		p.dispatcher = DispatchFunc(func(fn func()) { fn() })
	}
	p.ref = NewOwnerRef(p, p.dispatcher)

	go func() {
		defer lottieerrors.Recover("lottie.NewPlayer")
		state, err := initShared(content, options.Factory, options.Cache, options.Request)
		p.dispatcher.Dispatch(func() {
			if err != nil {
				p.parseFailed(err)
			} else {
				p.parseDone(state)
			}
		})
	}()
	return p
}

func (p *Player) parseDone(state *SharedState) {
	if p.shut {
		return
	}
	p.state = state
	p.info = state.Information()
	p.lastFramePosition = Time(1000) * Time(p.info.FramesCount-1) / Time(p.info.FrameRate)
	state.Start(p.ref, Now(), 0, 0)
	p.renderer.Append(state)
	info := p.info
	p.notify(Update{Information: &info})
}

func (p *Player) parseFailed(err error) {
	lottieerrors.Report(&lottieerrors.Error{
		Op:   "lottie.Player",
		Kind: failureKind(err),
		Err:  err,
	})
	for _, listener := range p.failureListeners {
		listener(err)
	}
}

func failureKind(err error) lottieerrors.ErrorKind {
	if errors.Is(err, ErrNotSupported) {
		return lottieerrors.KindNotSupported
	}
	return lottieerrors.KindParse
}

// Ready reports whether parsing completed and frames are being produced.
func (p *Player) Ready() bool {
	return p.state != nil
}

// Information describes the playing animation; zero until Ready.
func (p *Player) Information() Information {
	return p.info
}

// Updates registers a listener for playback events and returns an
// unsubscribe function.
func (p *Player) Updates(fn func(Update)) func() {
	id := p.nextListenerID
	p.nextListenerID++
	p.listeners[id] = fn
	return func() { delete(p.listeners, id) }
}

// Failures registers a listener for parse failures and returns an
// unsubscribe function.
func (p *Player) Failures(fn func(error)) func() {
	id := p.nextListenerID
	p.nextListenerID++
	p.failureListeners[id] = fn
	return func() { delete(p.failureListeners, id) }
}

func (p *Player) notify(update Update) {
	for _, listener := range p.listeners {
		listener(update)
	}
}

// Frame returns the image to paint for the request. A changed request is
// recorded on the presented slot and forwarded to the renderer for future
// frames; the presented slot itself is re-derived immediately.
func (p *Player) Frame(request FrameRequest) *Frame {
	if p.state == nil {
		panic("lottie: Player.Frame before ready")
	}
	frame := p.state.FrameForPaint()
	changed := !frame.Request.Equal(request) &&
		(request.Strict || !frame.Request.Strict)
	if changed {
		frame.Request = request
		p.renderer.UpdateFrameRequest(p.state, request)
	}
	PrepareFrameByRequest(frame, !changed)
	return frame
}

// MarkFrameDisplayed records that the pending frame reached the screen and
// returns its timeline position.
func (p *Player) MarkFrameDisplayed(now Time) Time {
	if p.state == nil {
		panic("lottie: Player.MarkFrameDisplayed before ready")
	}
	return p.state.MarkFrameDisplayed(now)
}

// MarkFrameShown advances presentation past the displayed frame and wakes
// the renderer to refill the ring.
func (p *Player) MarkFrameShown() bool {
	if p.state == nil {
		panic("lottie: Player.MarkFrameShown before ready")
	}
	if !p.state.MarkFrameShown() {
		return false
	}
	p.renderer.FrameShown()
	p.CheckStep()
	return true
}

// Pause suspends the display schedule. Frames already in the ring stay
// there; the schedule shifts by the paused duration on Resume.
func (p *Player) Pause() {
	if p.paused || p.shut {
		return
	}
	p.paused = true
	p.pausedAt = Now()
	p.stopTimer()
}

// Resume continues playback, shifting every not-yet-displayed frame by the
// time spent paused.
func (p *Player) Resume() {
	if !p.paused || p.shut {
		return
	}
	p.paused = false
	delayed := Now() - p.pausedAt
	if delayed > 0 {
		p.pendingDelay += delayed
	}
	if p.state != nil && p.nextFrameTime != TimeUnknown {
		p.nextFrameTime = TimeUnknown
	}
	p.CheckStep()
}

// CheckStep advances the consumer side: it arms the wake timer for the
// pending frame, or looks for a newly scheduled one. The renderer invokes it
// through the owner ref after every promotion; the UI may call it after
// painting.
func (p *Player) CheckStep() {
	if p.shut || p.paused || p.state == nil {
		return
	}
	if p.nextFrameTime != TimeUnknown {
		p.checkNextFrameRender()
	} else {
		p.checkNextFrameAvailability()
	}
}

func (p *Player) checkNextFrameAvailability() {
	next := p.state.NextFrameDisplayTime()
	if next == TimeUnknown || next == FrameDisplayTimeAlreadyDone {
		// Nothing scheduled yet, or the frame is already out and we are
		// waiting for the paint to be reported.
		return
	}
	if p.pendingDelay != 0 {
		p.state.AddTimelineDelay(p.pendingDelay, 0)
		p.pendingDelay = 0
		next = p.state.NextFrameDisplayTime()
	}
	p.nextFrameTime = next
	p.checkNextFrameRender()
}

func (p *Player) checkNextFrameRender() {
	now := Now()
	if now < p.nextFrameTime {
		p.armTimer(p.nextFrameTime - now)
		return
	}
	p.stopTimer()
	p.nextFrameTime = TimeUnknown

	position := p.state.MarkFrameDisplayed(now)
	if p.options.Playback.Loop && position == p.lastFramePosition && p.info.FramesCount > 1 {
		// Fold one full cycle into the schedule so the restarted indices
		// keep advancing in wall-clock time.
		p.state.AddTimelineDelay(0, p.info.FramesCount)
	}
	p.notify(Update{DisplayFrame: &DisplayFrameRequest{Position: position}})
}

func (p *Player) armTimer(in Time) {
	if p.timer != nil {
		return
	}
	p.timer = time.AfterFunc(time.Duration(in)*time.Millisecond, func() {
		p.dispatcher.Dispatch(func() {
			p.timer = nil
			p.CheckStep()
		})
	})
}

func (p *Player) stopTimer() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Shutdown severs the owner reference and deregisters the animation. It is
// safe to call more than once. In-flight render steps finish harmlessly on
// the worker; no notification reaches the player afterwards.
func (p *Player) Shutdown() {
	if p.shut {
		return
	}
	p.shut = true
	p.ref.Invalidate()
	p.stopTimer()
	if p.state != nil {
		p.renderer.Remove(p.state)
		p.state = nil
	}
}
