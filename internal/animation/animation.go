// Package animation loads exported animations of either format and rebuilds
// displayable cells from the stored colours.
package animation

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/asciivid/internal/compress"
	"github.com/san-kum/asciivid/internal/config"
	"github.com/san-kum/asciivid/internal/deltacodec"
	"github.com/san-kum/asciivid/internal/glyph"
	"github.com/san-kum/asciivid/internal/mapper"
	"github.com/san-kum/asciivid/internal/textcodec"
)

// Style controls how stored colours become cells. Noise is never applied on
// playback.
type Style struct {
	Mode      mapper.Mode
	Chars     string
	Threshold float64
	CellSize  float64
}

func DefaultStyle() Style {
	return Style{
		Mode:      mapper.ModeGlyph,
		Chars:     config.DefaultChars,
		Threshold: config.DefaultWhiteThreshold,
		CellSize:  config.DefaultCellWidth,
	}
}

func (s Style) mapper() (*mapper.Mapper, error) {
	alphabet, err := glyph.ParseAlphabet(s.Chars)
	if err != nil {
		return nil, err
	}
	return mapper.New(mapper.Options{
		Alphabet:  alphabet,
		Threshold: s.Threshold,
		Mode:      s.Mode,
		CellSize:  s.CellSize,
	})
}

// source is one stored cell: a colour, or blank.
type source struct {
	rgb   glyph.RGB
	blank bool
}

type Animation struct {
	Path   string
	Meta   glyph.Metadata
	Frames []glyph.Frame

	style  Style
	stored [][]source
}

// Kind reports which codec produced path, or "" when it is not an animation.
func Kind(path string) string {
	switch {
	case strings.HasSuffix(path, ".jsonl"), strings.HasSuffix(path, ".jsonl.gz"):
		return glyph.FormatText
	case strings.HasSuffix(path, deltacodec.MetaExt),
		strings.HasSuffix(path, deltacodec.FirstExt),
		strings.HasSuffix(path, deltacodec.BodyExt):
		return glyph.FormatDelta
	}
	return ""
}

func Open(path string, style Style) (*Animation, error) {
	var (
		meta   glyph.Metadata
		stored [][]source
		err    error
	)
	switch Kind(path) {
	case glyph.FormatText:
		meta, stored, err = readText(path)
	case glyph.FormatDelta:
		meta, stored, err = readDelta(path)
	default:
		return nil, fmt.Errorf("%s: not a .jsonl(.gz) or %s animation", path, deltacodec.MetaExt)
	}
	if err != nil {
		return nil, err
	}

	a := &Animation{Path: path, Meta: meta, stored: stored}
	if err := a.Restyle(style); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Animation) Style() Style { return a.style }

// Restyle rebuilds every frame with style.
func (a *Animation) Restyle(style Style) error {
	m, err := style.mapper()
	if err != nil {
		return err
	}
	frames := make([]glyph.Frame, len(a.stored))
	for i, cells := range a.stored {
		frames[i] = build(m, cells, a.Meta.Width, a.Meta.Height)
	}
	a.style = style
	a.Frames = frames
	return nil
}

func build(m *mapper.Mapper, cells []source, w, h int) glyph.Frame {
	f := glyph.NewFrame(w, h)
	for i, c := range cells {
		if c.blank {
			continue
		}
		f.Cells[i] = m.MapColor(c.rgb, i%w, i/w)
	}
	return f
}

func fromValues(vals []textcodec.Value) []source {
	out := make([]source, len(vals))
	for i, v := range vals {
		out[i] = source{rgb: v.RGB, blank: v.IsBlank()}
	}
	return out
}

func fromRaw(raw []byte) []source {
	cols := deltacodec.Colors(raw)
	out := make([]source, len(cols))
	for i, c := range cols {
		out[i] = source{rgb: c}
	}
	return out
}

func readText(path string) (glyph.Metadata, [][]source, error) {
	anim, err := textcodec.ReadFile(path)
	if err != nil {
		return glyph.Metadata{}, nil, err
	}
	stored := make([][]source, len(anim.Frames))
	for i, vals := range anim.Frames {
		stored[i] = fromValues(vals)
	}
	return anim.Meta, stored, nil
}

func readDelta(path string) (glyph.Metadata, [][]source, error) {
	h, dec, err := deltacodec.Open(path, compress.Gzip{})
	if err != nil {
		return glyph.Metadata{}, nil, err
	}
	stored := make([][]source, 0, h.FrameCount)
	for {
		raw, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return glyph.Metadata{}, nil, err
		}
		stored = append(stored, fromRaw(raw))
	}
	return h.Metadata(), stored, nil
}

// Preview returns frame 0. Delta exports read only the first-frame artifact.
func Preview(path string, style Style) (glyph.Metadata, glyph.Frame, error) {
	m, err := style.mapper()
	if err != nil {
		return glyph.Metadata{}, glyph.Frame{}, err
	}
	switch Kind(path) {
	case glyph.FormatDelta:
		h, raw, err := deltacodec.ReadPreview(path, compress.Gzip{})
		if err != nil {
			return glyph.Metadata{}, glyph.Frame{}, err
		}
		meta := h.Metadata()
		return meta, build(m, fromRaw(raw), meta.Width, meta.Height), nil
	case glyph.FormatText:
		meta, stored, err := readText(path)
		if err != nil {
			return glyph.Metadata{}, glyph.Frame{}, err
		}
		return meta, build(m, stored[0], meta.Width, meta.Height), nil
	}
	return glyph.Metadata{}, glyph.Frame{}, fmt.Errorf("%s: not an animation", path)
}
