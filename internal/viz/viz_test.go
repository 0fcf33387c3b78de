package viz

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/asciivid/internal/animation"
	"github.com/san-kum/asciivid/internal/audio"
	"github.com/san-kum/asciivid/internal/glyph"
	"github.com/san-kum/asciivid/internal/mapper"
	"github.com/san-kum/asciivid/internal/pipeline"
	"github.com/san-kum/asciivid/internal/textcodec"
)

type fakeSink struct {
	playing bool
	seeks   []float64
}

func (s *fakeSink) Play()                { s.playing = true }
func (s *fakeSink) Pause()               { s.playing = false }
func (s *fakeSink) Seek(sec float64)     { s.seeks = append(s.seeks, sec) }
func (s *fakeSink) Levels() audio.Levels { return audio.Levels{Bass: 0.5} }

func openAnimation(t *testing.T, n int) *animation.Animation {
	t.Helper()
	frames := make([]glyph.Frame, n)
	for i := range frames {
		f := glyph.NewFrame(4, 2)
		f.Set(i%4, 0, glyph.SymbolCell('F', glyph.RGB{R: 20, G: 20, B: 20}))
		frames[i] = f
	}
	meta := glyph.Metadata{FPS: 10, Width: 4, Height: 2, FrameCount: n}
	path := filepath.Join(t.TempDir(), "clip.jsonl.gz")
	if err := textcodec.WriteFile(path, meta, frames); err != nil {
		t.Fatal(err)
	}
	a, err := animation.Open(path, animation.DefaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestPlayer(t *testing.T, n int, sink AudioSink) (*Player, *time.Time) {
	t.Helper()
	p, err := NewPlayer(openAnimation(t, n), "clip", sink)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Unix(1000, 0)
	p.SetClock(func() time.Time { return now })
	p.Init()
	return p, &now
}

func TestPlayerTicksAdvance(t *testing.T) {
	p, now := newTestPlayer(t, 5, nil)
	if !p.Engine().Playing() {
		t.Fatal("player should start playing")
	}

	p.Update(TickMsg(now.Add(50 * time.Millisecond)))
	if p.Engine().Index() != 0 {
		t.Errorf("half a period should not advance, got %d", p.Engine().Index())
	}
	p.Update(TickMsg(now.Add(250 * time.Millisecond)))
	if p.Engine().Index() != 2 {
		t.Errorf("expected frame 2 after 250ms at 10fps, got %d", p.Engine().Index())
	}
}

func TestPlayerKeys(t *testing.T) {
	sink := &fakeSink{}
	p, _ := newTestPlayer(t, 5, sink)
	if !sink.playing {
		t.Error("audio should start with playback")
	}

	p.Update(key(" "))
	if p.Engine().Playing() || sink.playing {
		t.Error("space should pause video and audio")
	}

	p.Update(key("right"))
	p.Update(key("right"))
	if p.Engine().Index() != 2 {
		t.Errorf("expected frame 2, got %d", p.Engine().Index())
	}
	if got := sink.seeks[len(sink.seeks)-1]; got != 0.2 {
		t.Errorf("audio should follow the step, got %f", got)
	}

	p.Update(key("end"))
	if p.Engine().Index() != 4 {
		t.Errorf("end should jump to last frame, got %d", p.Engine().Index())
	}
	p.Update(key("left"))
	if p.Engine().Index() != 3 {
		t.Errorf("left should step back, got %d", p.Engine().Index())
	}
	p.Update(key("home"))
	if p.Engine().Index() != 0 {
		t.Errorf("home should jump to frame 0, got %d", p.Engine().Index())
	}

	if _, cmd := p.Update(key("q")); cmd == nil {
		t.Error("q should quit")
	}
}

func TestPlayerToggleMode(t *testing.T) {
	p, _ := newTestPlayer(t, 2, nil)
	p.Update(key("m"))
	if p.anim.Style().Mode != mapper.ModeDot {
		t.Fatalf("expected dot mode, got %s", p.anim.Style().Mode)
	}
	if c := p.anim.Frames[0].At(0, 0); c.Kind != glyph.Dot {
		t.Errorf("frames should be rebuilt as dots, got %+v", c)
	}
	p.Update(key("m"))
	if p.anim.Style().Mode != mapper.ModeGlyph {
		t.Error("second toggle should return to glyphs")
	}
}

func TestPlayerView(t *testing.T) {
	p, _ := newTestPlayer(t, 3, &fakeSink{})
	p.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	view := p.View()
	for _, want := range []string{"clip", "0:00 / 0:00", "[1/3]", "bass", "F"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestPlayerRecording(t *testing.T) {
	p, now := newTestPlayer(t, 3, nil)
	p.Update(key("g"))
	if !p.recording {
		t.Fatal("g should start recording")
	}
	p.Update(TickMsg(*now))
	p.Update(TickMsg(now.Add(100 * time.Millisecond)))
	if p.gif.Len() != 2 {
		t.Errorf("expected 2 captured frames, got %d", p.gif.Len())
	}
	p.Update(key("g"))

	path := RecordingPath(p.anim.Path)
	if st, err := os.Stat(path); err != nil || st.Size() == 0 {
		t.Errorf("expected recording at %s: %v", path, err)
	}
}

func TestRecordingPath(t *testing.T) {
	tests := map[string]string{
		"a/clip.jsonl.gz":  "a/clip_clip.gif",
		"a/clip.jsonl":     "a/clip_clip.gif",
		"a/clip.meta.json": "a/clip_clip.gif",
	}
	for in, want := range tests {
		if got := RecordingPath(in); got != want {
			t.Errorf("RecordingPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFitShrinksToTerminal(t *testing.T) {
	p, _ := newTestPlayer(t, 1, nil)
	wide := glyph.NewFrame(200, 60)
	p.width, p.height = 100, 20
	f := p.fit(wide)
	if f.Width > 100 || f.Height > 20-chromeRows {
		t.Errorf("frame %dx%d does not fit 100x%d", f.Width, f.Height, 20-chromeRows)
	}
}

func TestProgressModel(t *testing.T) {
	canceled := false
	m := NewProgress("clip.mp4", func() { canceled = true })
	m.Update(ProgressMsg(pipeline.Progress{Stage: pipeline.StageExtracting, Frame: 3, Total: 10, Percent: 30}))
	if view := m.View(); !strings.Contains(view, "extracting") || !strings.Contains(view, "3/10") {
		t.Errorf("unexpected view %q", view)
	}

	m.Update(key("ctrl+c"))
	if !canceled {
		t.Error("ctrl+c should cancel the conversion")
	}
	if !strings.Contains(m.View(), "canceling") {
		t.Error("view should show cancellation")
	}

	_, cmd := m.Update(DoneMsg{Err: errors.New("boom")})
	if cmd == nil {
		t.Error("done should quit")
	}
	if m.Result().Err == nil || !strings.Contains(m.View(), "boom") {
		t.Error("expected error result")
	}
}

func TestBar(t *testing.T) {
	if Bar(0.5, 0) != "" {
		t.Error("zero width bar should be empty")
	}
	for _, f := range []float64{-1, 0, 0.5, 2} {
		bar := Bar(f, 10)
		if n := strings.Count(bar, "█") + strings.Count(bar, "░"); n != 10 {
			t.Errorf("bar for %f has %d cells", f, n)
		}
	}
}
