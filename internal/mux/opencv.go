package mux

import (
	"image"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/san-kum/asciivid/internal/glyph"
)

// opencvMuxer writes video only, through OpenCV's bundled codecs.
type opencvMuxer struct {
	opts   Options
	writer *gocv.VideoWriter
	frames int
}

func newOpenCV(opts Options) *opencvMuxer {
	if opts.Audio != nil {
		slog.Warn("mux: opencv writer cannot carry audio, writing silent video")
	}
	return &opencvMuxer{opts: opts}
}

func (m *opencvMuxer) WriteFrame(img image.Image) error {
	if err := checkSize(img, m.opts); err != nil {
		return glyph.EncodeError("mux", err)
	}
	if m.writer == nil {
		w, err := gocv.VideoWriterFile(m.opts.Path, "avc1", m.opts.FPS, m.opts.Width, m.opts.Height, true)
		if err != nil {
			return glyph.EncodeError("mux", err)
		}
		m.writer = w
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return glyph.EncodeError("mux", err)
	}
	defer mat.Close()
	if err := m.writer.Write(mat); err != nil {
		return glyph.EncodeError("mux", err)
	}
	m.frames++
	return nil
}

func (m *opencvMuxer) Close() error {
	if m.writer != nil {
		if err := m.writer.Close(); err != nil {
			return glyph.EncodeError("mux", err)
		}
	}
	if m.frames == 0 {
		return glyph.EncodeError("mux", errNoFrames)
	}
	return nil
}
