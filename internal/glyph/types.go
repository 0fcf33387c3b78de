package glyph

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// DefaultAlphabet is ordered dark to light; the trailing space is the
// reserved ceiling and is never emitted by the mapper.
const DefaultAlphabet = "F$V* "

type RGB struct {
	R, G, B uint8
}

// White is what blank cells serialize to in raw frame buffers.
var White = RGB{255, 255, 255}

func (c RGB) IsGray() bool { return c.R == c.G && c.G == c.B }

// Brightness returns perceived luminance (ITU-R BT.601 weights). The weights
// sum to 1, so gray input is returned as is.
func Brightness(r, g, b float64) float64 {
	if r == g && g == b {
		return r
	}
	return 0.299*r + 0.587*g + 0.114*b
}

func (c RGB) Brightness() float64 {
	return Brightness(float64(c.R), float64(c.G), float64(c.B))
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

type CellKind uint8

const (
	Empty CellKind = iota
	Symbol
	Dot
)

func (k CellKind) String() string {
	switch k {
	case Symbol:
		return "symbol"
	case Dot:
		return "dot"
	default:
		return "empty"
	}
}

// Cell is exactly one of Empty, Symbol{Glyph, Color} or Dot{Radius, Color}.
type Cell struct {
	Kind   CellKind
	Glyph  rune
	Radius float64
	Color  RGB
}

func EmptyCell() Cell { return Cell{Kind: Empty} }

func SymbolCell(g rune, c RGB) Cell { return Cell{Kind: Symbol, Glyph: g, Color: c} }

func DotCell(radius float64, c RGB) Cell { return Cell{Kind: Dot, Radius: radius, Color: c} }

func (c Cell) IsEmpty() bool { return c.Kind == Empty }

// Frame is a row-major grid of Width*Height cells.
type Frame struct {
	Width  int
	Height int
	Cells  []Cell
}

func NewFrame(width, height int) Frame {
	return Frame{Width: width, Height: height, Cells: make([]Cell, width*height)}
}

func (f Frame) At(x, y int) Cell { return f.Cells[y*f.Width+x] }

func (f Frame) Set(x, y int, c Cell) { f.Cells[y*f.Width+x] = c }

func (f Frame) Row(y int) []Cell { return f.Cells[y*f.Width : (y+1)*f.Width] }

// Alphabet is an ordered glyph sequence of at least two runes. Only indices
// 0..Len()-2 are addressable by the mapping.
type Alphabet []rune

func ParseAlphabet(s string) (Alphabet, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("alphabet is not valid utf-8")
	}
	a := Alphabet([]rune(s))
	if len(a) < 2 {
		return nil, fmt.Errorf("alphabet needs at least 2 glyphs, got %d", len(a))
	}
	return a, nil
}

// MaxIndex is the highest selectable index.
func (a Alphabet) MaxIndex() int { return len(a) - 2 }

func (a Alphabet) String() string { return string(a) }

type Point struct {
	X, Y int
}

// MaskSet is built before an export pass and is read-only afterwards.
type MaskSet struct {
	points map[Point]struct{}
}

func NewMaskSet(points ...Point) MaskSet {
	m := MaskSet{points: make(map[Point]struct{}, len(points))}
	for _, p := range points {
		m.points[p] = struct{}{}
	}
	return m
}

func (m MaskSet) Contains(x, y int) bool {
	if m.points == nil {
		return false
	}
	_, ok := m.points[Point{x, y}]
	return ok
}

func (m MaskSet) Len() int { return len(m.points) }

// Points returns the members sorted by row, then column.
func (m MaskSet) Points() []Point {
	out := make([]Point, 0, len(m.points))
	for p := range m.points {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// Metadata describes a finalized animation.
type Metadata struct {
	FPS        float64
	Width      int
	Height     int
	FrameCount int
	Duration   float64
	Format     string
}

const (
	FormatText  = "text"
	FormatDelta = "delta"
)

// EffectiveDuration falls back to FrameCount/FPS when Duration is unset.
func (m Metadata) EffectiveDuration() float64 {
	if m.Duration > 0 {
		return m.Duration
	}
	if m.FPS <= 0 {
		return 0
	}
	return float64(m.FrameCount) / m.FPS
}

func (m Metadata) Validate() error {
	if m.FPS <= 0 {
		return FormatError("metadata", "invalid or missing fps")
	}
	if m.Width <= 0 {
		return FormatError("metadata", "invalid or missing width")
	}
	if m.Height <= 0 {
		return FormatError("metadata", "invalid or missing height")
	}
	if m.FrameCount <= 0 {
		return FormatError("metadata", "invalid or missing frameCount")
	}
	return nil
}
