// Package render paints stylized frames: as coloured terminal text, as
// raster images for video and GIF output, and onto a live terminal surface.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/asciivid/internal/glyph"
)

// Dot glyphs used when a dot frame is shown as text, smallest first.
var dotRunes = []rune{'·', '•', '●'}

// DotRune picks a text stand-in for a dot of radius r in a cell of cellSize.
func DotRune(r, cellSize float64) rune {
	if cellSize <= 0 {
		return dotRunes[len(dotRunes)-1]
	}
	frac := r / (cellSize / 2)
	switch {
	case frac < 0.55:
		return dotRunes[0]
	case frac < 0.85:
		return dotRunes[1]
	default:
		return dotRunes[2]
	}
}

// CellRune is the character a cell occupies in text output.
func CellRune(c glyph.Cell, cellSize float64) rune {
	switch c.Kind {
	case glyph.Symbol:
		return c.Glyph
	case glyph.Dot:
		return DotRune(c.Radius, cellSize)
	default:
		return ' '
	}
}

// ANSI renders a frame with the default lipgloss renderer.
func ANSI(f glyph.Frame, cellSize float64) string {
	return ANSIWith(lipgloss.DefaultRenderer(), f, cellSize)
}

// ANSIWith renders a frame row by row, styling each run of equal colour
// once. Blank cells are plain spaces.
func ANSIWith(r *lipgloss.Renderer, f glyph.Frame, cellSize float64) string {
	var b strings.Builder
	var run strings.Builder
	for y := 0; y < f.Height; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		row := f.Row(y)
		for x := 0; x < len(row); {
			c := row[x]
			if c.IsEmpty() {
				b.WriteByte(' ')
				x++
				continue
			}
			run.Reset()
			end := x
			for end < len(row) && !row[end].IsEmpty() && row[end].Color == c.Color {
				run.WriteRune(CellRune(row[end], cellSize))
				end++
			}
			style := r.NewStyle().Foreground(lipgloss.Color(c.Color.Hex()))
			b.WriteString(style.Render(run.String()))
			x = end
		}
	}
	return b.String()
}

// Plain renders a frame without colour.
func Plain(f glyph.Frame, cellSize float64) string {
	var b strings.Builder
	for y := 0; y < f.Height; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, c := range f.Row(y) {
			b.WriteRune(CellRune(c, cellSize))
		}
	}
	return b.String()
}

// Downsample picks every n-th cell so the frame is at most maxW wide. Text
// cells are roughly twice as tall as wide, so rows are thinned twice as
// fast when squash is set.
func Downsample(f glyph.Frame, maxW int, squash bool) glyph.Frame {
	if maxW <= 0 || f.Width <= maxW {
		if !squash {
			return f
		}
		maxW = f.Width
	}
	step := float64(f.Width) / float64(maxW)
	rowStep := step
	if squash {
		rowStep *= 2
	}
	h := int(float64(f.Height) / rowStep)
	if h < 1 {
		h = 1
	}
	out := glyph.NewFrame(maxW, h)
	for y := 0; y < h; y++ {
		sy := int(float64(y) * rowStep)
		for x := 0; x < maxW; x++ {
			sx := int(float64(x) * step)
			out.Set(x, y, f.At(sx, sy))
		}
	}
	return out
}
