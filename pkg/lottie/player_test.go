package lottie

import (
	"errors"
	"sync"
	"testing"
	"time"

	lottieerrors "github.com/go-drift/lottie/pkg/errors"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now Time
}

func (c *fakeClock) Now() Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}

// testDispatcher queues dispatched closures and runs them on the test
// goroutine, making it the player's consumer context.
type testDispatcher struct {
	tasks chan func()
}

func newTestDispatcher() *testDispatcher {
	return &testDispatcher{tasks: make(chan func(), 64)}
}

func (d *testDispatcher) Dispatch(fn func()) {
	d.tasks <- fn
}

// pumpUntil runs dispatched closures until the condition holds.
func (d *testDispatcher) pumpUntil(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !condition() {
		select {
		case fn := <-d.tasks:
			fn()
		case <-deadline:
			t.Fatal("condition not reached")
		}
	}
}

type playerFixture struct {
	clock      *fakeClock
	dispatcher *testDispatcher
	renderer   *FrameRenderer
	player     *Player

	updates   []Update
	positions []Time
	failures  []error
}

func newPlayerFixture(t *testing.T, content []byte, factory DecoderFactory, playback PlaybackOptions) *playerFixture {
	t.Helper()
	f := &playerFixture{
		clock:      &fakeClock{now: 1000},
		dispatcher: newTestDispatcher(),
		renderer:   NewFrameRenderer(),
	}
	previous := SetClock(f.clock)
	t.Cleanup(func() { SetClock(previous) })
	t.Cleanup(f.renderer.Stop)

	f.player = NewPlayer(content, PlayerOptions{
		Factory:    factory,
		Renderer:   f.renderer,
		Dispatcher: f.dispatcher,
		Playback:   playback,
	})
	t.Cleanup(f.player.Shutdown)
	f.player.Updates(func(update Update) {
		f.updates = append(f.updates, update)
		if update.DisplayFrame != nil {
			f.positions = append(f.positions, update.DisplayFrame.Position)
		}
	})
	f.player.Failures(func(err error) {
		f.failures = append(f.failures, err)
	})
	return f
}

func (f *playerFixture) waitDisplayed(t *testing.T, frames int) {
	t.Helper()
	f.dispatcher.pumpUntil(t, func() bool { return len(f.positions) >= frames })
}

func TestPlayerParseAndInformation(t *testing.T) {
	f := newPlayerFixture(t, []byte(minimalJSON), testFactory(16, 16, 30, 60), PlaybackOptions{})
	f.dispatcher.pumpUntil(t, func() bool { return f.player.Ready() })

	if len(f.updates) == 0 || f.updates[0].Information == nil {
		t.Fatal("no information update after parsing")
	}
	info := f.player.Information()
	if info.FrameRate != 30 || info.FramesCount != 60 {
		t.Fatalf("Information() = %+v", info)
	}
}

func TestPlayerParseFailure(t *testing.T) {
	handler := &recordingErrorHandler{}
	lottieerrors.SetHandler(handler)
	defer lottieerrors.SetHandler(nil)

	f := newPlayerFixture(t, []byte("not json"), testFactory(16, 16, 30, 60), PlaybackOptions{})
	f.dispatcher.pumpUntil(t, func() bool { return len(f.failures) > 0 })

	if !errors.Is(f.failures[0], ErrParseFailed) {
		t.Fatalf("failure = %v, want ErrParseFailed", f.failures[0])
	}
	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.errors) != 1 || handler.errors[0].Kind != lottieerrors.KindParse {
		t.Fatalf("reported = %+v, want one parse error", handler.errors)
	}
}

func TestPlayerUnsupportedContent(t *testing.T) {
	handler := &recordingErrorHandler{}
	lottieerrors.SetHandler(handler)
	defer lottieerrors.SetHandler(nil)

	f := newPlayerFixture(t, []byte(minimalJSON), testFactory(0, 0, 30, 60), PlaybackOptions{})
	f.dispatcher.pumpUntil(t, func() bool { return len(f.failures) > 0 })

	if !errors.Is(f.failures[0], ErrNotSupported) {
		t.Fatalf("failure = %v, want ErrNotSupported", f.failures[0])
	}
	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.errors) != 1 || handler.errors[0].Kind != lottieerrors.KindNotSupported {
		t.Fatalf("reported = %+v, want one not-supported error", handler.errors)
	}
}

func TestPlayerPlaysFramesInOrder(t *testing.T) {
	const rate = 10
	const count = 10
	f := newPlayerFixture(t, []byte(minimalJSON), testFactory(8, 8, rate, count), PlaybackOptions{})
	f.waitDisplayed(t, 1)

	for i := 1; i < count; i++ {
		f.clock.Advance(100)
		if !f.player.MarkFrameShown() {
			t.Fatalf("frame %d: MarkFrameShown() = false", i)
		}
		f.waitDisplayed(t, i+1)
	}
	for i, position := range f.positions {
		if want := Time(100 * i); position != want {
			t.Fatalf("frame %d displayed at position %d, want %d", i, position, want)
		}
	}

	// After the last frame is shown it becomes the paint target.
	f.player.MarkFrameShown()
	frame := f.player.Frame(FrameRequest{})
	if frame.Index != count-1 {
		t.Fatalf("painting index %d, want %d", frame.Index, count-1)
	}
}

func TestPlayerLoopRestartsCycle(t *testing.T) {
	const count = 5
	f := newPlayerFixture(t, []byte(minimalJSON), testFactory(8, 8, 10, count), PlaybackOptions{Loop: true})
	f.waitDisplayed(t, 1)

	want := []Time{0, 100, 200, 300, 400, 0, 100}
	for i := 1; i < len(want); i++ {
		f.clock.Advance(100)
		f.player.MarkFrameShown()
		f.waitDisplayed(t, i+1)
	}
	for i, position := range want {
		if f.positions[i] != position {
			t.Fatalf("positions = %v, want %v", f.positions[:len(want)], want)
		}
	}
}

func TestPlayerPauseShiftsSchedule(t *testing.T) {
	const rate = 10
	f := newPlayerFixture(t, []byte(minimalJSON), testFactory(8, 8, rate, 30), PlaybackOptions{})
	f.waitDisplayed(t, 1)
	started := f.player.state.started

	f.player.Pause()
	f.clock.Advance(500)
	f.player.Resume()
	f.player.MarkFrameShown()

	// The next frame keeps its index but its schedule moved past the pause.
	f.dispatcher.pumpUntil(t, func() bool {
		return f.player.nextFrameTime != TimeUnknown || len(f.positions) > 1
	})
	want := started + 500 + 100
	if f.player.nextFrameTime != want {
		t.Fatalf("next frame scheduled at %d, want %d", f.player.nextFrameTime, want)
	}

	f.clock.Advance(600)
	f.waitDisplayed(t, 2)
	if f.positions[1] != 100 {
		t.Fatalf("second position = %d, want 100", f.positions[1])
	}
}

func TestPlayerShutdownBeforeParse(t *testing.T) {
	f := newPlayerFixture(t, []byte(minimalJSON), testFactory(8, 8, 10, 10), PlaybackOptions{})
	f.player.Shutdown()
	f.player.Shutdown()

	// Run the parse completion; it must not start playback.
	select {
	case fn := <-f.dispatcher.tasks:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("parse never completed")
	}
	if f.player.Ready() || len(f.updates) != 0 {
		t.Fatalf("playback started after shutdown: ready=%v updates=%d", f.player.Ready(), len(f.updates))
	}
}

func TestPlayerShutdownStopsNotifications(t *testing.T) {
	f := newPlayerFixture(t, []byte(minimalJSON), testFactory(8, 8, 10, 10), PlaybackOptions{})
	f.waitDisplayed(t, 1)
	f.player.Shutdown()

	if f.player.Ready() {
		t.Fatal("player still ready after shutdown")
	}
	// Anything the worker dispatched in flight is dropped by the ref check.
	for {
		select {
		case fn := <-f.dispatcher.tasks:
			fn()
		default:
			if len(f.positions) != 1 {
				t.Fatalf("%d frames displayed, want the 1 from before shutdown", len(f.positions))
			}
			return
		}
	}
}
