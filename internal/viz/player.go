package viz

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/asciivid/internal/animation"
	"github.com/san-kum/asciivid/internal/audio"
	"github.com/san-kum/asciivid/internal/deltacodec"
	"github.com/san-kum/asciivid/internal/export"
	"github.com/san-kum/asciivid/internal/glyph"
	"github.com/san-kum/asciivid/internal/mapper"
	"github.com/san-kum/asciivid/internal/playback"
	"github.com/san-kum/asciivid/internal/render"
)

// TickInterval is how often the player polls the engine.
const TickInterval = time.Second / 60

// reserved rows for the header, progress bar, meter and hints.
const chromeRows = 5

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// AudioSink follows the transport. audio.Player satisfies it.
type AudioSink interface {
	Play()
	Pause()
	Seek(sec float64)
	Levels() audio.Levels
}

// Player is the Bubble Tea model for interactive playback.
type Player struct {
	anim   *animation.Animation
	engine *playback.Engine
	sink   AudioSink
	title  string
	clock  func() time.Time

	width, height int
	renderer      *lipgloss.Renderer
	showHelp      bool
	err           error

	recording bool
	gif       *export.GIF
	raster    *render.Raster
	lastShown int
}

func NewPlayer(anim *animation.Animation, title string, sink AudioSink) (*Player, error) {
	e := playback.New()
	if err := e.Load(anim.Meta.FrameCount, anim.Meta.FPS); err != nil {
		return nil, err
	}
	return &Player{
		anim:      anim,
		engine:    e,
		sink:      sink,
		title:     title,
		clock:     time.Now,
		renderer:  lipgloss.DefaultRenderer(),
		lastShown: -1,
	}, nil
}

// SetClock replaces time.Now for key handling.
func (m *Player) SetClock(now func() time.Time) { m.clock = now }

func (m *Player) Engine() *playback.Engine { return m.engine }

func (m *Player) Init() tea.Cmd {
	m.engine.Play(m.clock())
	if m.sink != nil {
		m.sink.Seek(0)
		m.sink.Play()
	}
	return tick()
}

func (m *Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		now := m.clock()
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.recording {
				m.stopRecording()
			}
			return m, tea.Quit
		case " ":
			m.engine.Toggle(now)
			m.syncAudio()
		case "left", "h":
			m.engine.Step(-1, now)
			m.syncAudio()
		case "right", "l":
			m.engine.Step(1, now)
			m.syncAudio()
		case "home":
			m.engine.Seek(0, now)
			m.syncAudio()
		case "end":
			m.engine.Seek(m.engine.FrameCount()-1, now)
			m.syncAudio()
		case "m":
			m.toggleMode()
		case "g":
			if m.recording {
				m.stopRecording()
			} else {
				m.recording = true
				m.gif = export.NewGIF(m.anim.Meta.FPS)
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		idx, changed := m.engine.Tick(time.Time(msg))
		if changed && idx == 0 && m.sink != nil {
			m.sink.Seek(0)
		}
		if m.recording {
			m.capture()
		}
		return m, tick()
	}
	return m, nil
}

// syncAudio moves the soundtrack to the engine position and state.
func (m *Player) syncAudio() {
	if m.sink == nil {
		return
	}
	m.sink.Seek(m.engine.Position())
	if m.engine.Playing() {
		m.sink.Play()
	} else {
		m.sink.Pause()
	}
}

func (m *Player) toggleMode() {
	style := m.anim.Style()
	if style.Mode == mapper.ModeDot {
		style.Mode = mapper.ModeGlyph
	} else {
		style.Mode = mapper.ModeDot
	}
	if err := m.anim.Restyle(style); err != nil {
		m.err = err
		return
	}
	m.raster = nil
}

func (m *Player) capture() {
	idx := m.engine.Index()
	if idx == m.lastShown {
		return
	}
	if m.raster == nil {
		r, err := render.NewRaster(render.DefaultRasterOptions())
		if err != nil {
			m.err = err
			m.recording = false
			return
		}
		m.raster = r
	}
	m.gif.Add(m.raster.RenderFitted(m.anim.Frames[idx]))
	m.lastShown = idx
}

// RecordingPath is where a recording of the animation at path is saved.
func RecordingPath(path string) string {
	base := deltacodec.BaseOf(path)
	base = strings.TrimSuffix(base, ".gz")
	base = strings.TrimSuffix(base, ".jsonl")
	return base + "_clip.gif"
}

func (m *Player) stopRecording() {
	m.recording = false
	m.lastShown = -1
	if m.gif == nil || m.gif.Len() == 0 {
		return
	}
	path := RecordingPath(m.anim.Path)
	if err := m.gif.Save(path); err != nil {
		m.err = err
		return
	}
	slog.Info("player: recording saved", "path", path, "frames", m.gif.Len())
	m.gif = nil
}

// fit shrinks f to the terminal, keeping room for the chrome rows.
func (m *Player) fit(f glyph.Frame) glyph.Frame {
	if m.width <= 0 || m.height <= 0 {
		return f
	}
	squash := m.anim.Meta.Format == glyph.FormatDelta
	out := render.Downsample(f, m.width, squash)
	if avail := m.height - chromeRows; avail > 0 && out.Height > avail {
		out = render.Downsample(f, max(1, m.width*avail/out.Height), squash)
	}
	return out
}

func (m *Player) status() string {
	if m.recording {
		return StatusRecording.Render("● REC")
	}
	if m.engine.Playing() {
		return StatusPlaying.Render("▶ PLAYING")
	}
	return StatusPaused.Render("❚❚ PAUSED")
}

func (m *Player) View() string {
	var s strings.Builder

	idx := m.engine.Index()
	s.WriteString(fmt.Sprintf("%s  %s  %s / %s  %s  %s\n",
		TitleStyle.Render(m.title),
		m.status(),
		render.FormatClock(m.engine.Position()),
		render.FormatClock(m.engine.Duration()),
		Subtle.Render(fmt.Sprintf("[%d/%d]", idx+1, m.engine.FrameCount())),
		Subtle.Render(string(m.anim.Style().Mode)),
	))

	if idx < len(m.anim.Frames) {
		f := m.fit(m.anim.Frames[idx])
		s.WriteString(render.ANSIWith(m.renderer, f, m.anim.Style().CellSize))
		s.WriteByte('\n')
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = max(10, min(m.width-2, 80))
	}
	fraction := 0.0
	if n := m.engine.FrameCount(); n > 1 {
		fraction = float64(idx) / float64(n-1)
	}
	s.WriteString(Bar(fraction, barWidth) + "\n")

	if m.sink != nil {
		lv := m.sink.Levels()
		s.WriteString(MetricLabel.Render("bass") + Bar(lv.Bass, 10) + "  " +
			MetricLabel.Render("mid") + Bar(lv.Mid, 10) + "  " +
			MetricLabel.Render("high") + Bar(lv.High, 10) + "\n")
	}
	if m.err != nil {
		s.WriteString(ErrorStyle.Render(m.err.Error()) + "\n")
	}

	if m.showHelp {
		s.WriteString(KeyHint.Render("space play/pause  ←/→ step  home/end jump  m glyph/dot  g record  q quit"))
	} else {
		s.WriteString(KeyHint.Render("? help"))
	}
	return s.String()
}
