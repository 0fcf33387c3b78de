// Package mapper turns adjusted pixels into stylized cells: a glyph from the
// alphabet or a dot whose radius follows darkness.
package mapper

import (
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/san-kum/asciivid/internal/glyph"
)

type Mode string

const (
	ModeGlyph Mode = "glyph"
	ModeDot   Mode = "dot"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeGlyph, "ascii", "":
		return ModeGlyph, nil
	case ModeDot, "dots":
		return ModeDot, nil
	}
	return "", fmt.Errorf("unknown mode %q (want glyph or dot)", s)
}

// Options configure a Mapper. Rand is only consulted when Noise > 0.
type Options struct {
	Alphabet  glyph.Alphabet
	Threshold float64
	Noise     float64
	Mask      glyph.MaskSet
	Mode      Mode
	CellSize  float64
	Rand      *rand.Rand
}

type Mapper struct {
	alphabet  glyph.Alphabet
	threshold float64
	noise     float64
	mask      glyph.MaskSet
	mode      Mode
	cellSize  float64
	rng       *rand.Rand
}

func New(opts Options) (*Mapper, error) {
	if len(opts.Alphabet) < 2 {
		return nil, fmt.Errorf("alphabet needs at least 2 glyphs, got %d", len(opts.Alphabet))
	}
	if opts.Threshold < 0 || opts.Threshold > 255 {
		return nil, fmt.Errorf("white threshold must be in [0,255], got %f", opts.Threshold)
	}
	if opts.Noise < 0 || opts.Noise > 1 {
		return nil, fmt.Errorf("noise level must be in [0,1], got %f", opts.Noise)
	}
	if opts.Mode == "" {
		opts.Mode = ModeGlyph
	}
	if opts.CellSize <= 0 {
		opts.CellSize = 10
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Mapper{
		alphabet:  opts.Alphabet,
		threshold: opts.Threshold,
		noise:     opts.Noise,
		mask:      opts.Mask,
		mode:      opts.Mode,
		cellSize:  opts.CellSize,
		rng:       rng,
	}, nil
}

func (m *Mapper) Mode() Mode { return m.mode }

func (m *Mapper) Threshold() float64 { return m.threshold }

// Index maps brightness to floor(brightness/threshold*(n-1)) clamped to
// [0, n-2]. Callers must handle brightness >= threshold before calling.
func Index(brightness, threshold float64, n int) int {
	if threshold <= 0 {
		return 0
	}
	idx := int(math.Floor(brightness / threshold * float64(n-1)))
	return clampIndex(idx, n)
}

func clampIndex(idx, n int) int {
	if idx > n-2 {
		idx = n - 2
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// Radius is cellSize/2 * min(1, (1 - brightness/255) + 0.3).
func Radius(brightness, cellSize float64) float64 {
	return cellSize / 2 * math.Min(1, (1-brightness/255)+0.3)
}

// Map styles a single adjusted pixel at grid coordinate (x, y).
func (m *Mapper) Map(r, g, b uint8, x, y int) glyph.Cell {
	c := glyph.RGB{R: r, G: g, B: b}
	if m.mask.Contains(x, y) {
		return glyph.EmptyCell()
	}
	brightness := c.Brightness()
	if brightness >= m.threshold {
		return glyph.EmptyCell()
	}

	if m.mode == ModeDot {
		return glyph.DotCell(Radius(brightness, m.cellSize), c)
	}

	n := len(m.alphabet)
	idx := Index(brightness, m.threshold, n)
	if m.noise > 0 && n > 2 && m.rng.Float64() < m.noise {
		shift := 1
		if m.rng.Float64() < 0.5 {
			shift = -1
		}
		idx = clampIndex(idx+shift, n)
	}
	return glyph.SymbolCell(m.alphabet[idx], c)
}

// MapColor styles a stored colour. Decoders use it with a noise-free mapper
// to rebuild cells from either animation format.
func (m *Mapper) MapColor(c glyph.RGB, x, y int) glyph.Cell {
	return m.Map(c.R, c.G, c.B, x, y)
}

// MapFrame styles every pixel of img into a frame of the same dimensions.
func (m *Mapper) MapFrame(img *image.NRGBA) glyph.Frame {
	b := img.Rect
	f := glyph.NewFrame(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			px := row[x*4 : x*4+3]
			f.Cells[y*f.Width+x] = m.Map(px[0], px[1], px[2], x, y)
		}
	}
	return f
}
