// Package compress wraps the lossless byte compressor used by both animation
// formats.
package compress

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/san-kum/asciivid/internal/glyph"
)

// Compressor must be lossless and order-preserving.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// Gzip produces standard gzip members. The zero value uses the default level.
type Gzip struct {
	Level int
}

func (g Gzip) level() int {
	if g.Level == 0 {
		return gzip.DefaultCompression
	}
	return g.Level
}

func (g Gzip) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := g.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, glyph.EncodeError("compress", err)
	}
	if err := w.Close(); err != nil {
		return nil, glyph.EncodeError("compress", err)
	}
	return buf.Bytes(), nil
}

func (g Gzip) Decompress(data []byte) ([]byte, error) {
	r, err := g.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, glyph.FormatError("decompress", "%v", err)
	}
	return out, nil
}

// NewWriter streams compressed output to w. Close flushes the trailer.
func (g Gzip) NewWriter(w io.Writer) (io.WriteCloser, error) {
	zw, err := gzip.NewWriterLevel(w, g.level())
	if err != nil {
		return nil, glyph.EncodeError("compress", err)
	}
	return zw, nil
}

func (g Gzip) NewReader(r io.Reader) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, glyph.FormatError("decompress", "%v", err)
	}
	return zr, nil
}

// Identity passes bytes through unchanged.
type Identity struct{}

func (Identity) Compress(data []byte) ([]byte, error) { return append([]byte(nil), data...), nil }

func (Identity) Decompress(data []byte) ([]byte, error) { return append([]byte(nil), data...), nil }
