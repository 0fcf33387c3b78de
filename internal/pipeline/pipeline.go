// Package pipeline runs the sequential encode chain: sample a source, resize
// each frame to the grid, adjust it, map it to cells and hand the finished
// animation to an exporter.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"

	"github.com/san-kum/asciivid/internal/adjust"
	"github.com/san-kum/asciivid/internal/config"
	"github.com/san-kum/asciivid/internal/glyph"
	"github.com/san-kum/asciivid/internal/mapper"
	"github.com/san-kum/asciivid/internal/sampler"
)

type Stage string

const (
	StageLoading    Stage = "loading"
	StageExtracting Stage = "extracting"
	StageConverting Stage = "converting"
	StageEncoding   Stage = "encoding"
	StageComplete   Stage = "complete"
)

type Progress struct {
	Stage   Stage
	Frame   int
	Total   int
	Percent float64
}

// Observer receives progress on the pipeline goroutine. Delivery is best
// effort and stops at the first failure.
type Observer interface {
	OnProgress(p Progress)
}

type ObserverFunc func(p Progress)

func (f ObserverFunc) OnProgress(p Progress) { f(p) }

// Percent is done/total*100, or 100 when there is nothing to do.
func Percent(done, total int) float64 {
	if total <= 0 {
		return 100
	}
	return math.Min(100, float64(done)*100/float64(total))
}

// GridSize derives the grid height from the source aspect ratio and the
// cell aspect (height/width). Both sides are at least 1.
func GridSize(srcW, srcH, width int, charAspect float64) (int, int) {
	if srcW <= 0 || srcH <= 0 || width <= 0 {
		return 0, 0
	}
	if charAspect <= 0 {
		charAspect = 1
	}
	h := int(math.Floor(float64(width) * float64(srcH) / float64(srcW) / charAspect))
	if h < 1 {
		h = 1
	}
	return width, h
}

type Result struct {
	Frames []glyph.Frame
	Meta   glyph.Metadata
}

type Pipeline struct {
	cfg       *config.Config
	format    Format
	observers []Observer
}

func New(cfg *config.Config, format Format) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, format: format}, nil
}

func (p *Pipeline) AddObserver(o Observer) { p.observers = append(p.observers, o) }

func (p *Pipeline) notify(pr Progress) {
	for _, o := range p.observers {
		o.OnProgress(pr)
	}
}

// charAspect is 1 for the binary codec, which stores square pixels.
func (p *Pipeline) charAspect() float64 {
	if p.format == FormatDelta {
		return 1
	}
	return p.cfg.CharAspect()
}

// Run samples src and returns the mapped frames. Frame i+1 is not requested
// until frame i has been appended.
func (p *Pipeline) Run(ctx context.Context, src sampler.Source) (*Result, error) {
	p.notify(Progress{Stage: StageLoading})

	s, err := sampler.New(src, sampler.Options{
		FPS:         p.cfg.FPS,
		SkipStart:   p.cfg.SkipStart,
		SkipEnd:     p.cfg.SkipEnd,
		SeekTimeout: p.cfg.SeekTimeout,
	})
	if err != nil {
		return nil, err
	}

	srcW, srcH := src.Size()
	gw, gh := GridSize(srcW, srcH, p.cfg.Width, p.charAspect())
	if gw == 0 {
		return nil, glyph.SourceError("pipeline", -1, fmt.Errorf("source reports size %dx%d", srcW, srcH))
	}

	opts, err := p.cfg.MapperOptions()
	if err != nil {
		return nil, err
	}
	m, err := mapper.New(opts)
	if err != nil {
		return nil, err
	}

	slog.Info("pipeline: sampling", "frames", s.Count(), "grid", fmt.Sprintf("%dx%d", gw, gh), "fps", p.cfg.FPS)

	params := p.cfg.AdjustParams()
	frames := make([]glyph.Frame, 0, s.Count())
	n, err := s.Run(ctx, func(i, total int, img image.Image) error {
		p.notify(Progress{Stage: StageExtracting, Frame: i, Total: total, Percent: Percent(i, total)})

		small := imaging.Resize(img, gw, gh, imaging.Box)
		adjust.ExposureContrast(small, params)
		adjust.Stretch(small)
		frames = append(frames, m.MapFrame(small))

		p.notify(Progress{Stage: StageConverting, Frame: i + 1, Total: total, Percent: Percent(i+1, total)})
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.Canceled) {
			if ctxErr == nil {
				ctxErr = err
			}
			return nil, glyph.CanceledError("pipeline", n, ctxErr)
		}
		return nil, err
	}

	meta := glyph.Metadata{
		FPS:        p.cfg.FPS,
		Width:      gw,
		Height:     gh,
		FrameCount: len(frames),
		Duration:   float64(len(frames)) / p.cfg.FPS,
		Format:     p.format.codecName(),
	}
	slog.Debug("pipeline: frames mapped", "count", len(frames))
	return &Result{Frames: frames, Meta: meta}, nil
}
