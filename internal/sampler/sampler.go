// Package sampler drives a timestamped frame source at a target rate,
// trimming frames from the front and back of the source.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/asciivid/internal/glyph"
)

// Source decodes one raw image per requested timestamp.
type Source interface {
	// Duration is the source length in seconds.
	Duration() float64
	// Size is the native frame size.
	Size() (width, height int)
	FrameAt(ctx context.Context, t float64) (image.Image, error)
}

type Options struct {
	FPS       float64
	SkipStart int
	SkipEnd   int
	// SeekTimeout bounds each FrameAt call. Zero disables the bound.
	SeekTimeout time.Duration
}

type Sampler struct {
	src  Source
	opts Options
}

func New(src Source, opts Options) (*Sampler, error) {
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("target fps must be positive, got %f", opts.FPS)
	}
	if opts.SkipStart < 0 || opts.SkipEnd < 0 {
		return nil, fmt.Errorf("skip counts must not be negative")
	}
	return &Sampler{src: src, opts: opts}, nil
}

// Total is floor(sourceDuration * fps), before trimming.
func (s *Sampler) Total() int {
	return int(math.Floor(s.src.Duration() * s.opts.FPS))
}

// Count is the number of frames Run will deliver.
func (s *Sampler) Count() int {
	n := s.Total() - s.opts.SkipStart - s.opts.SkipEnd
	if n < 0 {
		return 0
	}
	return n
}

// Time returns the source timestamp of the i-th delivered frame.
func (s *Sampler) Time(i int) float64 {
	return float64(s.opts.SkipStart+i) / s.opts.FPS
}

// FrameFunc receives frames strictly in order. Returning an error stops Run.
type FrameFunc func(i, total int, img image.Image) error

// Run requests every frame in increasing timestamp order and hands it to fn
// before requesting the next one. It returns the number of frames delivered.
func (s *Sampler) Run(ctx context.Context, fn FrameFunc) (int, error) {
	total := s.Count()
	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			return i, ctx.Err()
		default:
		}

		t := s.Time(i)
		img, err := s.fetch(ctx, t)
		if err != nil {
			return i, glyph.SourceError("sample", i, err)
		}
		slog.Debug("sampler: frame decoded", "index", i, "t", t)

		if err := fn(i, total, img); err != nil {
			return i, err
		}
	}
	return total, nil
}

type fetchResult struct {
	img image.Image
	err error
}

// fetch waits for the source at most SeekTimeout. A source that ignores ctx
// is abandoned, not interrupted.
func (s *Sampler) fetch(ctx context.Context, t float64) (image.Image, error) {
	if s.opts.SeekTimeout <= 0 {
		return s.src.FrameAt(ctx, t)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.SeekTimeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		img, err := s.src.FrameAt(ctx, t)
		done <- fetchResult{img, err}
	}()

	select {
	case r := <-done:
		return r.img, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("seek to %.3fs timed out after %v", t, s.opts.SeekTimeout)
		}
		return nil, ctx.Err()
	}
}
