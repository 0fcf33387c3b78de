// Package source provides timestamped frame sources for the sampler: OpenCV
// and ffmpeg backed video decoding and still-image sequences.
package source

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/san-kum/asciivid/internal/glyph"
	"github.com/san-kum/asciivid/internal/sampler"
)

type Source interface {
	sampler.Source
	Close() error
}

type Backend string

const (
	BackendAuto   Backend = "auto"
	BackendOpenCV Backend = "opencv"
	BackendFFmpeg Backend = "ffmpeg"
)

type Options struct {
	Backend Backend
	// SequenceFPS applies to image sequences only.
	SequenceFPS float64
}

// Open picks a backend for path. Directories and shell patterns open as
// image sequences; anything else is treated as a video container.
func Open(path string, opts Options) (Source, error) {
	if isSequence(path) {
		d, err := OpenDir(path, opts.SequenceFPS)
		if err != nil {
			return nil, glyph.SourceError("open", -1, err)
		}
		return d, nil
	}

	switch opts.Backend {
	case BackendOpenCV:
		v, err := OpenVideo(path)
		if err != nil {
			return nil, glyph.SourceError("open", -1, err)
		}
		return v, nil
	case BackendFFmpeg:
		f, err := OpenFFmpeg(path)
		if err != nil {
			return nil, glyph.SourceError("open", -1, err)
		}
		return f, nil
	case BackendAuto, "":
	default:
		return nil, fmt.Errorf("unknown source backend %q", opts.Backend)
	}

	v, err := OpenVideo(path)
	if err == nil && v.Duration() > 0 {
		return v, nil
	}
	if v != nil {
		v.Close()
	}
	slog.Debug("source: opencv unavailable, trying ffmpeg", "path", path, "err", err)

	f, ferr := OpenFFmpeg(path)
	if ferr != nil {
		if err == nil {
			err = fmt.Errorf("unknown duration")
		}
		return nil, glyph.SourceError("open", -1, fmt.Errorf("opencv: %v; ffmpeg: %w", err, ferr))
	}
	return f, nil
}

func isSequence(path string) bool {
	if strings.ContainsAny(path, "*?[{") {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
