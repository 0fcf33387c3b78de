package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/asciivid/internal/config"
	"github.com/san-kum/asciivid/internal/mux"
	"github.com/san-kum/asciivid/internal/pipeline"
	"github.com/san-kum/asciivid/internal/source"
	"github.com/san-kum/asciivid/internal/storage"
	"github.com/san-kum/asciivid/internal/viz"
)

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	f, err := pipeline.ParseFormat(format)
	if err != nil {
		return err
	}
	out := outPath
	if out == "" {
		out = pipeline.DefaultOutput(filepath.Dir(input), input, f)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src, err := source.Open(input, source.Options{Backend: source.Backend(sourceBackend), SequenceFPS: cfg.FPS})
	if err != nil {
		return err
	}
	defer src.Close()

	p, err := pipeline.New(cfg, f)
	if err != nil {
		return err
	}
	opts := pipeline.ExportOptions{
		Out:        out,
		MuxBackend: mux.Backend(muxBackend),
		Frame:      svgFrame,
	}
	if cfg.IncludeAudio {
		opts.AudioSource = input
	}

	slog.Debug("convert: starting", "input", input, "format", f, "width", cfg.Width, "fps", cfg.FPS, "mode", cfg.Mode)
	start := time.Now()

	var res *pipeline.Result
	var files []string
	if stdoutIsTerminal() {
		res, files, err = convertInteractive(ctx, stop, p, src, opts, filepath.Base(input))
	} else {
		p.AddObserver(logProgress())
		res, files, err = convert(ctx, p, src, opts)
	}
	if err != nil {
		return err
	}

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	id, err := store.Record(storage.ExportRecord{
		Source:     input,
		Format:     string(f),
		Mode:       cfg.Mode,
		Chars:      cfg.Chars,
		Timestamp:  time.Now(),
		Seed:       cfg.Seed,
		FPS:        res.Meta.FPS,
		Width:      res.Meta.Width,
		Height:     res.Meta.Height,
		FrameCount: res.Meta.FrameCount,
		Duration:   res.Meta.EffectiveDuration(),
	}, files, storage.Stats(res.Frames, res.Meta.FPS))
	if err != nil {
		slog.Warn("convert: record not saved", "err", err)
	}

	slog.Info("convert: done",
		"frames", len(res.Frames),
		"grid", fmt.Sprintf("%dx%d", res.Meta.Width, res.Meta.Height),
		"elapsed", time.Since(start).Round(time.Millisecond),
		"id", id,
	)
	if !stdoutIsTerminal() {
		for _, file := range files {
			fmt.Println(file)
		}
	}
	return nil
}

func convert(ctx context.Context, p *pipeline.Pipeline, src source.Source, opts pipeline.ExportOptions) (*pipeline.Result, []string, error) {
	res, err := p.Run(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	files, err := p.Export(ctx, res, opts)
	if err != nil {
		return nil, nil, err
	}
	return res, files, nil
}

// convertInteractive runs the conversion behind the progress view. The
// program exits when the pipeline reports DoneMsg.
func convertInteractive(ctx context.Context, cancel func(), p *pipeline.Pipeline, src source.Source, opts pipeline.ExportOptions, title string) (*pipeline.Result, []string, error) {
	model := viz.NewProgress(title, cancel)
	prog := tea.NewProgram(model)
	p.AddObserver(pipeline.ObserverFunc(func(pr pipeline.Progress) {
		prog.Send(viz.ProgressMsg(pr))
	}))

	var res *pipeline.Result
	go func() {
		r, files, err := convert(ctx, p, src, opts)
		res = r
		prog.Send(viz.DoneMsg{Files: files, Err: err})
	}()

	if _, err := prog.Run(); err != nil {
		cancel()
		return nil, nil, err
	}
	done := model.Result()
	if done.Err != nil {
		return nil, nil, done.Err
	}
	return res, done.Files, nil
}

// logProgress reports every stage change and every tenth of the work.
func logProgress() pipeline.Observer {
	var lastStage pipeline.Stage
	lastDecile := -1
	return pipeline.ObserverFunc(func(pr pipeline.Progress) {
		decile := int(pr.Percent / 10)
		if pr.Stage == lastStage && decile == lastDecile {
			return
		}
		lastStage, lastDecile = pr.Stage, decile
		slog.Info("convert: progress", "stage", pr.Stage, "frame", pr.Frame, "total", pr.Total, "percent", fmt.Sprintf("%.0f", pr.Percent))
	})
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Println(args[0])
	return nil
}

func runPresets(cmd *cobra.Command, args []string) error {
	for _, m := range config.ListModes() {
		fmt.Println(m)
		for _, name := range config.ListPresets(m) {
			s := config.Presets[m][name]
			fmt.Printf("  %-10s chars=%q threshold=%.0f noise=%.2f contrast=%.0f\n", name, s.Chars, s.Threshold, s.Noise, s.Contrast)
		}
	}
	return nil
}
