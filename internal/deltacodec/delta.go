// Package deltacodec implements the binary animation format: a metadata
// record, one compressed body of raw RGB frames where every frame after the
// first is XORed against its predecessor, and a separately compressed copy of
// the first frame for previews.
//
// Decoding is strictly sequential. Frame i can only be rebuilt after frames
// 0..i-1.
package deltacodec

import (
	"encoding/json"
	"io"

	"github.com/san-kum/asciivid/internal/glyph"
)

type Header struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FPS        float64 `json:"fps"`
	FrameCount int     `json:"frameCount"`
	Format     string  `json:"format"`
}

func (h Header) Metadata() glyph.Metadata {
	return glyph.Metadata{
		FPS:        h.FPS,
		Width:      h.Width,
		Height:     h.Height,
		FrameCount: h.FrameCount,
		Format:     glyph.FormatDelta,
	}
}

// FrameSize is the byte length of one raw frame.
func (h Header) FrameSize() int { return h.Width * h.Height * 3 }

func (h Header) Validate() error {
	if h.Format != glyph.FormatDelta {
		return glyph.FormatError("metadata", "format %q is not %q", h.Format, glyph.FormatDelta)
	}
	return h.Metadata().Validate()
}

func NewHeader(meta glyph.Metadata, frameCount int) Header {
	return Header{
		Width:      meta.Width,
		Height:     meta.Height,
		FPS:        meta.FPS,
		FrameCount: frameCount,
		Format:     glyph.FormatDelta,
	}
}

func ParseHeader(data []byte) (Header, error) {
	var h Header
	if err := json.Unmarshal(data, &h); err != nil {
		return h, glyph.FormatError("metadata", "%v", err)
	}
	return h, h.Validate()
}

// RawFrame serializes a frame as row-major RGB triples. Empty cells become
// white.
func RawFrame(f glyph.Frame) []byte {
	buf := make([]byte, len(f.Cells)*3)
	for i, c := range f.Cells {
		col := c.Color
		if c.IsEmpty() {
			col = glyph.White
		}
		buf[i*3], buf[i*3+1], buf[i*3+2] = col.R, col.G, col.B
	}
	return buf
}

// XOR writes a^b into dst. All three must have equal length.
func XOR(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

// EncodeBody concatenates frames: frame 0 verbatim, frame i as
// raw[i] XOR raw[i-1].
func EncodeBody(raws [][]byte) ([]byte, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	size := len(raws[0])
	if size%3 != 0 {
		return nil, glyph.FrameFormatError("encode", 0, "raw frame length %d is not a multiple of 3", size)
	}
	body := make([]byte, size*len(raws))
	copy(body, raws[0])
	for i := 1; i < len(raws); i++ {
		if len(raws[i]) != size {
			return nil, glyph.FrameFormatError("encode", i, "raw frame length %d, want %d", len(raws[i]), size)
		}
		XOR(body[i*size:(i+1)*size], raws[i], raws[i-1])
	}
	return body, nil
}

// Decoder replays a body frame by frame.
type Decoder struct {
	r     io.Reader
	size  int
	count int
	next  int
	prev  []byte
	cur   []byte
}

// NewDecoder reads count frames of size bytes each from r.
func NewDecoder(r io.Reader, size, count int) (*Decoder, error) {
	if size <= 0 || size%3 != 0 {
		return nil, glyph.FormatError("decode", "frame size %d is not a positive multiple of 3", size)
	}
	return &Decoder{
		r:     r,
		size:  size,
		count: count,
		prev:  make([]byte, size),
		cur:   make([]byte, size),
	}, nil
}

// Index is the index of the frame the next call to Next returns.
func (d *Decoder) Index() int { return d.next }

// Next returns the next raw frame. The returned slice is overwritten by the
// call after next. io.EOF signals the end of the sequence.
func (d *Decoder) Next() ([]byte, error) {
	if d.next >= d.count {
		return nil, io.EOF
	}
	if _, err := io.ReadFull(d.r, d.cur); err != nil {
		return nil, glyph.FrameFormatError("decode", d.next, "body truncated: %v", err)
	}
	if d.next > 0 {
		XOR(d.cur, d.cur, d.prev)
	}
	d.prev, d.cur = d.cur, d.prev
	d.next++
	return d.prev, nil
}

// DecodeBody rebuilds every frame of an in-memory body.
func DecodeBody(body []byte, size, count int) ([][]byte, error) {
	if size <= 0 || size%3 != 0 {
		return nil, glyph.FormatError("decode", "frame size %d is not a positive multiple of 3", size)
	}
	if len(body)%3 != 0 {
		return nil, glyph.FormatError("decode", "body length %d is not a multiple of 3", len(body))
	}
	if len(body) != size*count {
		return nil, glyph.FormatError("decode", "body has %d bytes, want %d frames of %d", len(body), count, size)
	}
	out := make([][]byte, count)
	for i := 0; i < count; i++ {
		frame := make([]byte, size)
		copy(frame, body[i*size:(i+1)*size])
		if i > 0 {
			XOR(frame, frame, out[i-1])
		}
		out[i] = frame
	}
	return out, nil
}

// Colors reads a raw frame back as row-major colours.
func Colors(raw []byte) []glyph.RGB {
	out := make([]glyph.RGB, len(raw)/3)
	for i := range out {
		out[i] = glyph.RGB{R: raw[i*3], G: raw[i*3+1], B: raw[i*3+2]}
	}
	return out
}
