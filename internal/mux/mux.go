// Package mux turns rendered frames and an optional soundtrack into a
// playable video file.
package mux

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os/exec"

	"github.com/san-kum/asciivid/internal/audio"
	"github.com/san-kum/asciivid/internal/glyph"
)

var errNoFrames = errors.New("no frames to encode")

type Options struct {
	Path   string
	Width  int
	Height int
	FPS    float64
	Audio  *audio.PCM
	// KeyframeInterval defaults to 30 frames.
	KeyframeInterval int
}

func (o Options) validate() error {
	if o.Path == "" {
		return fmt.Errorf("no output path")
	}
	if o.Width <= 0 || o.Height <= 0 || o.Width%2 != 0 || o.Height%2 != 0 {
		return fmt.Errorf("resolution %dx%d unsupported: sides must be positive and even", o.Width, o.Height)
	}
	if o.FPS <= 0 {
		return fmt.Errorf("fps must be positive")
	}
	return nil
}

// Muxer receives frames in presentation order. Close finalizes the file;
// a Muxer that saw no frames fails with an encode error.
type Muxer interface {
	WriteFrame(img image.Image) error
	Close() error
}

type Backend string

const (
	BackendAuto   Backend = "auto"
	BackendFFmpeg Backend = "ffmpeg"
	BackendOpenCV Backend = "opencv"
)

// New opens a muxer. Auto prefers the ffmpeg binary and falls back to
// OpenCV, which cannot carry audio.
func New(ctx context.Context, backend Backend, opts Options) (Muxer, error) {
	if err := opts.validate(); err != nil {
		return nil, glyph.EncodeError("mux", err)
	}
	if opts.KeyframeInterval <= 0 {
		opts.KeyframeInterval = 30
	}

	switch backend {
	case BackendFFmpeg:
		return newFFmpeg(ctx, opts), nil
	case BackendOpenCV:
		return newOpenCV(opts), nil
	case BackendAuto, "":
		if _, err := exec.LookPath("ffmpeg"); err == nil {
			return newFFmpeg(ctx, opts), nil
		}
		slog.Warn("mux: ffmpeg not found, using opencv writer")
		return newOpenCV(opts), nil
	}
	return nil, glyph.EncodeError("mux", fmt.Errorf("unknown backend %q", backend))
}

// AVCLevel picks the H.264 level for a frame size.
func AVCLevel(width, height int) string {
	switch px := width * height; {
	case px <= 921600:
		return "3.1"
	case px <= 2073600:
		return "4.0"
	case px <= 8294400:
		return "5.1"
	default:
		return "6.2"
	}
}

// rgb24 packs img into tightly packed RGB bytes, reusing buf when large
// enough.
func rgb24(img image.Image, buf []byte) []byte {
	b := img.Bounds()
	n := b.Dx() * b.Dy() * 3
	if cap(buf) < n {
		buf = make([]byte, n)
	}
	buf = buf[:n]

	switch src := img.(type) {
	case *image.NRGBA:
		i := 0
		for y := 0; y < b.Dy(); y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+b.Dx()*4]
			for x := 0; x < len(row); x += 4 {
				buf[i], buf[i+1], buf[i+2] = row[x], row[x+1], row[x+2]
				i += 3
			}
		}
	case *image.RGBA:
		i := 0
		for y := 0; y < b.Dy(); y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+b.Dx()*4]
			for x := 0; x < len(row); x += 4 {
				buf[i], buf[i+1], buf[i+2] = row[x], row[x+1], row[x+2]
				i += 3
			}
		}
	default:
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				buf[i], buf[i+1], buf[i+2] = uint8(r>>8), uint8(g>>8), uint8(bl>>8)
				i += 3
			}
		}
	}
	return buf
}

func checkSize(img image.Image, opts Options) error {
	b := img.Bounds()
	if b.Dx() != opts.Width || b.Dy() != opts.Height {
		return fmt.Errorf("frame is %dx%d, video is %dx%d", b.Dx(), b.Dy(), opts.Width, opts.Height)
	}
	return nil
}
