package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-colorable"

	"github.com/san-kum/asciivid/internal/glyph"
)

const (
	clearScreen = "\033[2J\033[H"
	cursorHome  = "\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// Terminal repaints whole frames in place. It satisfies playback.Surface.
type Terminal struct {
	out      io.Writer
	frames   []glyph.Frame
	title    string
	fps      float64
	cellSize float64
	color    bool
}

func NewTerminal(frames []glyph.Frame, title string, fps, cellSize float64) *Terminal {
	return &Terminal{
		out:      colorable.NewColorableStdout(),
		frames:   frames,
		title:    title,
		fps:      fps,
		cellSize: cellSize,
		color:    true,
	}
}

// SetOutput redirects output and disables colour when w is not stdout.
func (t *Terminal) SetOutput(w io.Writer) {
	t.out = w
	t.color = w == os.Stdout
}

func (t *Terminal) Show(index int) {
	if index < 0 || index >= len(t.frames) {
		return
	}
	f := t.frames[index]

	var b strings.Builder
	b.WriteString(cursorHome)
	fmt.Fprintf(&b, "  %s  %s / %s  [%d/%d]\n", t.title,
		FormatClock(float64(index)/t.fps), FormatClock(float64(len(t.frames))/t.fps),
		index+1, len(t.frames))
	if t.color {
		b.WriteString(ANSI(f, t.cellSize))
	} else {
		b.WriteString(Plain(f, t.cellSize))
	}
	b.WriteByte('\n')
	io.WriteString(t.out, b.String())
}

func (t *Terminal) Start() { io.WriteString(t.out, hideCursor+clearScreen) }
func (t *Terminal) Stop()  { io.WriteString(t.out, showCursor) }

// FormatClock renders seconds as m:ss.
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
