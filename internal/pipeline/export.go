package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/san-kum/asciivid/internal/audio"
	"github.com/san-kum/asciivid/internal/compress"
	"github.com/san-kum/asciivid/internal/deltacodec"
	"github.com/san-kum/asciivid/internal/export"
	"github.com/san-kum/asciivid/internal/glyph"
	"github.com/san-kum/asciivid/internal/mux"
	"github.com/san-kum/asciivid/internal/render"
	"github.com/san-kum/asciivid/internal/textcodec"
)

type Format string

const (
	FormatText  Format = "text"
	FormatDelta Format = "delta"
	FormatVideo Format = "video"
	FormatSVG   Format = "svg"
	FormatGIF   Format = "gif"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatDelta, FormatVideo, FormatSVG, FormatGIF:
		return f, nil
	case "", "jsonl":
		return FormatText, nil
	case "neil", "binary":
		return FormatDelta, nil
	case "mp4":
		return FormatVideo, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, delta, video, svg or gif)", s)
}

func (f Format) codecName() string {
	switch f {
	case FormatText:
		return glyph.FormatText
	case FormatDelta:
		return glyph.FormatDelta
	}
	return string(f)
}

// Ext is the output suffix. Delta exports use a bare base name.
func (f Format) Ext() string {
	switch f {
	case FormatText:
		return ".jsonl.gz"
	case FormatVideo:
		return ".mp4"
	case FormatSVG:
		return ".svg"
	case FormatGIF:
		return ".gif"
	}
	return ""
}

// DefaultOutput names the export after the source, in dir.
func DefaultOutput(dir, src string, f Format) string {
	base := filepath.Base(src)
	if i := strings.IndexAny(base, "*?["); i >= 0 {
		base = strings.TrimRight(base[:i], "-_.")
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		base = "asciivid"
	}
	return filepath.Join(dir, base+"_ascii"+f.Ext())
}

type ExportOptions struct {
	Out string
	// AudioSource is decoded for video exports when audio is enabled.
	AudioSource string
	MuxBackend  mux.Backend
	// Frame selects the frame written by the SVG exporter.
	Frame int
}

// Export writes res in the pipeline's format and returns the files written.
func (p *Pipeline) Export(ctx context.Context, res *Result, opts ExportOptions) ([]string, error) {
	if len(res.Frames) == 0 {
		return nil, glyph.EncodeError("export", fmt.Errorf("no frames to encode"))
	}
	total := len(res.Frames)
	p.notify(Progress{Stage: StageEncoding, Total: total})

	var files []string
	var err error
	switch p.format {
	case FormatText:
		err = textcodec.WriteFile(opts.Out, res.Meta, res.Frames)
		files = []string{opts.Out}
	case FormatDelta:
		var paths deltacodec.Paths
		paths, err = deltacodec.WriteArtifacts(deltacodec.BaseOf(opts.Out), res.Meta, res.Frames, compress.Gzip{})
		files = paths.All()
	case FormatSVG:
		idx := min(max(opts.Frame, 0), total-1)
		if err = export.WriteSVG(opts.Out, res.Frames[idx], float64(p.cfg.CellWidth)); err != nil {
			err = glyph.EncodeError("svg", err)
		}
		files = []string{opts.Out}
	case FormatGIF:
		err = p.writeGIF(ctx, res, opts.Out)
		files = []string{opts.Out}
	case FormatVideo:
		err = p.writeVideo(ctx, res, opts)
		files = []string{opts.Out}
	}
	if err != nil {
		return nil, err
	}

	p.notify(Progress{Stage: StageComplete, Frame: total, Total: total, Percent: 100})
	slog.Info("pipeline: export written", "format", p.format, "files", files)
	return files, nil
}

func (p *Pipeline) raster() (*render.Raster, error) {
	r, err := render.NewRaster(render.RasterOptions{
		CellWidth:  p.cfg.CellWidth,
		CellHeight: p.cfg.CellHeight,
		MaxWidth:   p.cfg.MaxWidth,
		MaxHeight:  p.cfg.MaxHeight,
	})
	if err != nil {
		return nil, glyph.EncodeError("raster", err)
	}
	return r, nil
}

func (p *Pipeline) writeGIF(ctx context.Context, res *Result, out string) error {
	r, err := p.raster()
	if err != nil {
		return err
	}
	g := export.NewGIF(res.Meta.FPS)
	for i, f := range res.Frames {
		if err := ctx.Err(); err != nil {
			return glyph.CanceledError("gif", i, err)
		}
		g.Add(r.RenderFitted(f))
		p.notify(Progress{Stage: StageEncoding, Frame: i + 1, Total: len(res.Frames), Percent: Percent(i+1, len(res.Frames))})
	}
	if err := g.Save(out); err != nil {
		return glyph.EncodeError("gif", err)
	}
	return nil
}

func (p *Pipeline) writeVideo(ctx context.Context, res *Result, opts ExportOptions) error {
	r, err := p.raster()
	if err != nil {
		return err
	}
	w, h := r.OutputSize(res.Meta.Width, res.Meta.Height)

	var track *audio.PCM
	if p.cfg.IncludeAudio && opts.AudioSource != "" {
		start := float64(p.cfg.SkipStart) / p.cfg.FPS
		track = audio.Load(ctx, opts.AudioSource).Slice(start, res.Meta.EffectiveDuration())
		if track.Frames() == 0 {
			track = nil
		}
	}

	m, err := mux.New(ctx, opts.MuxBackend, mux.Options{
		Path:   opts.Out,
		Width:  w,
		Height: h,
		FPS:    res.Meta.FPS,
		Audio:  track,
	})
	if err != nil {
		return err
	}

	total := len(res.Frames)
	for i, f := range res.Frames {
		if err := ctx.Err(); err != nil {
			m.Close()
			return glyph.CanceledError("video", i, err)
		}
		if err := m.WriteFrame(r.RenderFitted(f)); err != nil {
			m.Close()
			return err
		}
		p.notify(Progress{Stage: StageEncoding, Frame: i + 1, Total: total, Percent: Percent(i+1, total)})
	}
	return m.Close()
}
