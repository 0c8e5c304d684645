// Package ui implements the terminal animation previewer.
//
// Frames are drawn with half-block characters: each terminal cell carries two
// vertically stacked pixels, the upper one as the foreground of "▀" and the
// lower one as the background.
package ui

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/go-drift/lottie/cmd/lottieplay/internal/config"
	"github.com/go-drift/lottie/pkg/graphics"
	"github.com/go-drift/lottie/pkg/lottie"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
)

type keyMap struct {
	Pause key.Binding
	Quit  key.Binding
}

var keys = keyMap{
	Pause: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "pause/resume"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// taskMsg carries a player notification onto the update loop.
type taskMsg func()

// Model is the previewer's bubbletea model. The player's dispatcher feeds
// the update loop, so every player interaction happens on it.
type Model struct {
	path     string
	settings *config.Resolved

	tasks  chan func()
	player *lottie.Player

	info     lottie.Information
	failure  error
	request  lottie.FrameRequest
	canvas   string
	position lottie.Time
	frames   int
	paused   bool

	width  int
	height int
}

// New builds the previewer and starts parsing content in the background.
func New(path string, content []byte, factory lottie.DecoderFactory, settings *config.Resolved) *Model {
	m := &Model{
		path:     path,
		settings: settings,
		tasks:    make(chan func(), 256),
		request: lottie.FrameRequest{
			Box:     settings.Box,
			Colored: settings.Colored,
		},
	}
	m.player = lottie.NewPlayer(content, lottie.PlayerOptions{
		Factory:    factory,
		Cache:      lottie.NewMemoryCache(),
		Dispatcher: lottie.DispatchFunc(func(fn func()) { m.tasks <- fn }),
		Request:    m.request,
		Playback:   lottie.PlaybackOptions{Loop: settings.Loop},
	})
	m.player.Updates(func(update lottie.Update) {
		if update.Information != nil {
			m.info = *update.Information
			m.fitRequest()
		}
		if update.DisplayFrame != nil {
			m.position = update.DisplayFrame.Position
			m.frames++
			// Advance the displayed frame to the paint target, then paint it.
			m.player.MarkFrameShown()
			m.paint()
		}
	})
	m.player.Failures(func(err error) {
		m.failure = err
	})
	return m
}

func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		return taskMsg(<-m.tasks)
	}
}

// Init starts pumping player notifications.
func (m *Model) Init() tea.Cmd {
	return m.listen()
}

// Update handles key presses, terminal resizes and player notifications.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskMsg:
		msg()
		return m, m.listen()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.fitRequest()
		m.paint()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.player.Shutdown()
			return m, tea.Quit
		case key.Matches(msg, keys.Pause):
			if m.paused {
				m.player.Resume()
			} else {
				m.player.Pause()
			}
			m.paused = !m.paused
			return m, nil
		}
	}
	return m, nil
}

// fitRequest bounds the frame to the configured box, or to the terminal when
// none is configured. Height is doubled: every cell holds two pixels.
func (m *Model) fitRequest() {
	box := m.settings.Box
	if box.Empty() && m.width > 0 && m.height > 4 {
		box = graphics.SizeOf(m.width, (m.height-4)*2)
	}
	if box.Empty() || m.info.Size.Empty() {
		return
	}
	m.request.Box = m.info.Size.ScaledToFit(box)
}

func (m *Model) paint() {
	if !m.player.Ready() || m.frames == 0 {
		return
	}
	frame := m.player.Frame(m.request)
	m.canvas = renderHalfBlocks(lottie.PrepareFrameByRequest(frame, true))
}

// View renders the current frame between a title and a status line.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.path))
	b.WriteString("\n")

	switch {
	case m.failure != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("cannot play: %v", m.failure)))
	case m.canvas == "":
		b.WriteString(statusStyle.Render("loading..."))
	default:
		b.WriteString(m.canvas)
		b.WriteString("\n")
		status := fmt.Sprintf("%dx%d  %d fps  frame %s",
			m.info.Size.Width, m.info.Size.Height, m.info.FrameRate,
			(time.Duration(m.position) * time.Millisecond).String())
		if m.paused {
			status += "  [paused]"
		}
		b.WriteString(statusStyle.Render(status))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space pause/resume · q quit"))
	return b.String()
}

// renderHalfBlocks converts an image to terminal text, two pixels per cell.
func renderHalfBlocks(img *image.RGBA) string {
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	var b strings.Builder
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			top, topSet := pixelColor(img, x, y)
			bottom, bottomSet := pixelColor(img, x, y+1)
			switch {
			case !topSet && !bottomSet:
				b.WriteString(" ")
			case topSet && bottomSet:
				b.WriteString(lipgloss.NewStyle().
					Foreground(top).Background(bottom).Render("▀"))
			case topSet:
				b.WriteString(lipgloss.NewStyle().Foreground(top).Render("▀"))
			default:
				b.WriteString(lipgloss.NewStyle().Foreground(bottom).Render("▄"))
			}
		}
		if y+2 < height {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// pixelColor returns the terminal color at (x, y) and whether the pixel is
// visible at all.
func pixelColor(img *image.RGBA, x, y int) (lipgloss.Color, bool) {
	if y >= img.Rect.Dy() {
		return "", false
	}
	offset := img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)
	r, g, b, a := img.Pix[offset], img.Pix[offset+1], img.Pix[offset+2], img.Pix[offset+3]
	if a < 16 {
		return "", false
	}
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b)), true
}

// Run plays the animation until the user quits.
func Run(m *Model) error {
	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
