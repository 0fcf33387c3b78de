package deltacodec

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/san-kum/asciivid/internal/compress"
	"github.com/san-kum/asciivid/internal/glyph"
)

var errNoFrames = errors.New("no frames to encode")

const (
	MetaExt  = ".meta.json"
	BodyExt  = ".neil"
	FirstExt = ".first.neil"
)

// Paths names the three artifacts of one export.
type Paths struct {
	Meta  string
	Body  string
	First string
}

func PathsFor(base string) Paths {
	return Paths{Meta: base + MetaExt, Body: base + BodyExt, First: base + FirstExt}
}

// BaseOf strips any artifact extension from path.
func BaseOf(path string) string {
	for _, ext := range []string{MetaExt, FirstExt, BodyExt} {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}

func (p Paths) All() []string { return []string{p.Meta, p.Body, p.First} }

// WriteArtifacts encodes frames and writes the metadata, body and
// first-frame files for base.
func WriteArtifacts(base string, meta glyph.Metadata, frames []glyph.Frame, c compress.Compressor) (Paths, error) {
	paths := PathsFor(base)
	if len(frames) == 0 {
		return paths, glyph.EncodeError("delta", errNoFrames)
	}

	raws := make([][]byte, len(frames))
	for i, f := range frames {
		if f.Width != meta.Width || f.Height != meta.Height {
			return paths, glyph.FrameFormatError("delta", i, "frame is %dx%d, animation is %dx%d",
				f.Width, f.Height, meta.Width, meta.Height)
		}
		raws[i] = RawFrame(f)
	}

	body, err := EncodeBody(raws)
	if err != nil {
		return paths, err
	}
	packed, err := c.Compress(body)
	if err != nil {
		return paths, glyph.EncodeError("delta", err)
	}
	first, err := c.Compress(raws[0])
	if err != nil {
		return paths, glyph.EncodeError("delta", err)
	}
	head, err := json.Marshal(NewHeader(meta, len(frames)))
	if err != nil {
		return paths, glyph.EncodeError("delta", err)
	}

	for _, w := range []struct {
		path string
		data []byte
	}{
		{paths.Meta, head},
		{paths.Body, packed},
		{paths.First, first},
	} {
		if err := os.WriteFile(w.path, w.data, 0644); err != nil {
			return paths, glyph.EncodeError("delta", err)
		}
	}
	return paths, nil
}

func ReadHeader(path string) (Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Header{}, glyph.SourceError("open", -1, err)
	}
	return ParseHeader(data)
}

// Open reads the metadata for base and returns a decoder positioned at
// frame 0. The body length is checked before any frame is produced.
func Open(base string, c compress.Compressor) (Header, *Decoder, error) {
	paths := PathsFor(BaseOf(base))
	h, err := ReadHeader(paths.Meta)
	if err != nil {
		return h, nil, err
	}

	packed, err := os.ReadFile(paths.Body)
	if err != nil {
		return h, nil, glyph.SourceError("open", -1, err)
	}
	body, err := c.Decompress(packed)
	if err != nil {
		return h, nil, err
	}
	if len(body)%3 != 0 {
		return h, nil, glyph.FormatError("decode", "body length %d is not a multiple of 3", len(body))
	}
	if len(body) != h.FrameSize()*h.FrameCount {
		return h, nil, glyph.FormatError("decode", "body has %d bytes, want %d frames of %d",
			len(body), h.FrameCount, h.FrameSize())
	}

	dec, err := NewDecoder(bytes.NewReader(body), h.FrameSize(), h.FrameCount)
	return h, dec, err
}

// ReadPreview returns frame 0 from the side artifact without touching the
// body.
func ReadPreview(base string, c compress.Compressor) (Header, []byte, error) {
	paths := PathsFor(BaseOf(base))
	h, err := ReadHeader(paths.Meta)
	if err != nil {
		return h, nil, err
	}
	packed, err := os.ReadFile(paths.First)
	if err != nil {
		return h, nil, glyph.SourceError("open", -1, err)
	}
	raw, err := c.Decompress(packed)
	if err != nil {
		return h, nil, err
	}
	if len(raw) != h.FrameSize() {
		return h, nil, glyph.FormatError("preview", "first frame has %d bytes, want %d", len(raw), h.FrameSize())
	}
	return h, raw, nil
}
