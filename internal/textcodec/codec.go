// Package textcodec reads and writes the line-oriented animation format: a
// JSON metadata line followed by one run-length encoded frame per line.
//
// A frame is the row-major flattening of its cells. Each cell is stored as
// its colour only; readers re-derive glyphs or dots from the colour.
package textcodec

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/san-kum/asciivid/internal/compress"
	"github.com/san-kum/asciivid/internal/glyph"
)

// maxLine bounds a single frame line. A 1920 cell wide grid of colour runs
// stays well below it.
const maxLine = 256 << 20

type Header struct {
	FPS        float64 `json:"fps"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FrameCount int     `json:"frameCount"`
	Duration   float64 `json:"duration"`
	RLE        bool    `json:"rle"`
}

func (h Header) Metadata() glyph.Metadata {
	return glyph.Metadata{
		FPS:        h.FPS,
		Width:      h.Width,
		Height:     h.Height,
		FrameCount: h.FrameCount,
		Duration:   h.Duration,
		Format:     glyph.FormatText,
	}
}

// Animation is a decoded text animation: flat row-major values per frame.
type Animation struct {
	Meta   glyph.Metadata
	Frames [][]Value
}

// FrameValues flattens a frame's cells row-major.
func FrameValues(f glyph.Frame) []Value {
	out := make([]Value, len(f.Cells))
	for i, c := range f.Cells {
		out[i] = ValueOf(c)
	}
	return out
}

// Write emits the metadata line and one encoded line per frame, joined by
// newlines. frameCount is taken from len(frames).
func Write(w io.Writer, meta glyph.Metadata, frames []glyph.Frame) error {
	values := make([][]Value, len(frames))
	for i, f := range frames {
		if f.Width != meta.Width || f.Height != meta.Height {
			return glyph.FrameFormatError("write", i, "frame is %dx%d, animation is %dx%d",
				f.Width, f.Height, meta.Width, meta.Height)
		}
		values[i] = FrameValues(f)
	}
	return WriteValues(w, meta, values)
}

func WriteValues(w io.Writer, meta glyph.Metadata, frames [][]Value) error {
	h := Header{
		FPS:        meta.FPS,
		Width:      meta.Width,
		Height:     meta.Height,
		FrameCount: len(frames),
		Duration:   meta.Duration,
		RLE:        true,
	}
	head, err := json.Marshal(h)
	if err != nil {
		return glyph.EncodeError("write", err)
	}

	bw := bufio.NewWriter(w)
	bw.Write(head)
	for i, f := range frames {
		if len(f) != meta.Width*meta.Height {
			return glyph.FrameFormatError("write", i, "frame has %d cells, want %d", len(f), meta.Width*meta.Height)
		}
		bw.WriteByte('\n')
		bw.Write(EncodeLine(f))
	}
	if err := bw.Flush(); err != nil {
		return glyph.EncodeError("write", err)
	}
	return nil
}

// Read parses and validates a whole animation. Blank lines are ignored.
func Read(r io.Reader) (*Animation, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var header *Header
	var frames [][]Value
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if header == nil {
			h, err := parseHeader(line)
			if err != nil {
				return nil, err
			}
			header = h
			continue
		}
		f, err := decodeFrame(line, header)
		if err != nil {
			return nil, glyph.FrameFormatError("read", len(frames), "%v", err)
		}
		frames = append(frames, f)
	}
	if err := sc.Err(); err != nil {
		return nil, glyph.FormatError("read", "%v", err)
	}

	if header == nil || len(frames) == 0 {
		return nil, glyph.FormatError("read", "file must have at least metadata and one frame")
	}
	if header.FrameCount != len(frames) {
		return nil, glyph.FormatError("read", "frame count mismatch: metadata says %d, file has %d",
			header.FrameCount, len(frames))
	}
	return &Animation{Meta: header.Metadata(), Frames: frames}, nil
}

func parseHeader(line []byte) (*Header, error) {
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return nil, glyph.FormatError("metadata", "%v", err)
	}
	if err := h.Metadata().Validate(); err != nil {
		return nil, err
	}
	return &h, nil
}

func decodeFrame(line []byte, h *Header) ([]Value, error) {
	size := h.Width * h.Height
	items, err := unmarshalArray(line)
	if err != nil {
		return nil, err
	}

	var flat []Value
	switch {
	case h.RLE && !rowMajorRows(items):
		tokens, err := parseTokens(items, size)
		if err != nil {
			return nil, err
		}
		flat = Decode(tokens)
	case h.RLE:
		for y, row := range items {
			tokens, err := parseTokens(row.([]any), size)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", y, err)
			}
			flat = append(flat, Decode(tokens)...)
			if len(flat) > size {
				return nil, fmt.Errorf("row %d: expands past %d cells", y, size)
			}
		}
	default:
		flat = make([]Value, 0, size)
		for y, item := range items {
			row, ok := item.([]any)
			if !ok {
				return nil, fmt.Errorf("row %d is not an array", y)
			}
			for x, raw := range row {
				v, err := parseValue(raw)
				if err != nil {
					return nil, fmt.Errorf("row %d col %d: %w", y, x, err)
				}
				flat = append(flat, v)
			}
		}
	}

	if len(flat) != size {
		return nil, fmt.Errorf("frame has %d cells, want %dx%d=%d", len(flat), h.Width, h.Height, size)
	}
	return flat, nil
}

// rowMajorRows reports whether an rle frame was written one encoded array
// per row instead of flattened. Only the per-row layout puts an array as the
// first element of the first element.
func rowMajorRows(items []any) bool {
	if len(items) == 0 {
		return false
	}
	first, ok := items[0].([]any)
	if !ok || len(first) == 0 {
		return false
	}
	_, nested := first[0].([]any)
	if !nested {
		return false
	}
	for _, it := range items {
		if _, ok := it.([]any); !ok {
			return false
		}
	}
	return true
}

// WriteFile writes path, gzip compressed when it ends in .gz.
func WriteFile(path string, meta glyph.Metadata, frames []glyph.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return glyph.EncodeError("write", err)
	}
	defer f.Close()

	var w io.Writer = f
	var zw io.WriteCloser
	if strings.HasSuffix(path, ".gz") {
		zw, err = compress.Gzip{}.NewWriter(f)
		if err != nil {
			return err
		}
		w = zw
	}
	if err := Write(w, meta, frames); err != nil {
		return err
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return glyph.EncodeError("write", err)
		}
	}
	if err := f.Close(); err != nil {
		return glyph.EncodeError("write", err)
	}
	return nil
}

// ReadFile reads a plain or gzip compressed animation, sniffing the gzip
// magic rather than trusting the extension.
func ReadFile(path string) (*Animation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, glyph.SourceError("open", -1, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, _ := br.Peek(2); len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := compress.Gzip{}.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}
	return Read(r)
}
