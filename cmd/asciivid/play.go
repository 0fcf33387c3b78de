package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"

	"github.com/san-kum/asciivid/internal/animation"
	"github.com/san-kum/asciivid/internal/audio"
	"github.com/san-kum/asciivid/internal/glyph"
	"github.com/san-kum/asciivid/internal/mapper"
	"github.com/san-kum/asciivid/internal/playback"
	"github.com/san-kum/asciivid/internal/render"
	"github.com/san-kum/asciivid/internal/viz"
)

// playbackStyle builds the render style from the resolved configuration.
func playbackStyle(cmd *cobra.Command) (animation.Style, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return animation.Style{}, err
	}
	m, err := mapper.ParseMode(cfg.Mode)
	if err != nil {
		return animation.Style{}, err
	}
	return animation.Style{
		Mode:      m,
		Chars:     cfg.Chars,
		Threshold: cfg.WhiteThreshold,
		CellSize:  float64(cfg.CellWidth),
	}, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	style, err := playbackStyle(cmd)
	if err != nil {
		return err
	}
	anim, err := animation.Open(args[0], style)
	if err != nil {
		return err
	}
	slog.Debug("play: loaded", "path", args[0], "frames", anim.Meta.FrameCount, "fps", anim.Meta.FPS)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sound := openSound(ctx, audioPath)
	if sound != nil {
		defer sound.Stop()
	}

	title := filepath.Base(args[0])
	if plain || !stdoutIsTerminal() {
		return playPlain(ctx, anim, title, sound)
	}

	var sink viz.AudioSink
	if sound != nil {
		sink = sound
	}
	player, err := viz.NewPlayer(anim, title, sink)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(player, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// openSound decodes and starts the soundtrack. Any failure leaves playback
// silent.
func openSound(ctx context.Context, path string) *audio.Player {
	if path == "" {
		return nil
	}
	pcm := audio.Load(ctx, path)
	if pcm == nil {
		slog.Warn("play: no audio decoded, playing without sound", "path", path)
		return nil
	}
	p := audio.NewPlayer(pcm)
	if err := p.Start(); err != nil {
		slog.Warn("play: audio output unavailable, playing without sound", "err", err)
		return nil
	}
	return p
}

// playPlain loops the animation by repainting stdout until ctx is done.
func playPlain(ctx context.Context, anim *animation.Animation, title string, sound *audio.Player) error {
	e := playback.New()
	if err := e.Load(anim.Meta.FrameCount, anim.Meta.FPS); err != nil {
		return err
	}
	screen := render.NewTerminal(anim.Frames, title, anim.Meta.FPS, anim.Style().CellSize)
	if !stdoutIsTerminal() {
		screen.SetOutput(colorable.NewNonColorable(os.Stdout))
	}

	var surface playback.Surface = screen
	if sound != nil {
		surface = playback.SurfaceFunc(func(index int) {
			if index == 0 {
				sound.Seek(0)
			}
			screen.Show(index)
		})
		sound.Play()
	}

	runner := playback.NewRunner(e, surface)
	screen.Start()
	runner.Play()
	<-ctx.Done()
	runner.Stop()
	screen.Stop()
	fmt.Println()
	return nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	style, err := playbackStyle(cmd)
	if err != nil {
		return err
	}
	meta, frame, err := animation.Preview(args[0], style)
	if err != nil {
		return err
	}

	if pngPath != "" {
		r, err := render.NewRaster(render.DefaultRasterOptions())
		if err != nil {
			return err
		}
		if err := saveImage(pngPath, r.RenderFitted(frame)); err != nil {
			return glyph.EncodeError("png", err)
		}
		fmt.Println(pngPath)
		return nil
	}

	cols := terminalWidth()
	frame = render.Downsample(frame, cols, meta.Format == glyph.FormatDelta)
	if stdoutIsTerminal() {
		fmt.Println(render.ANSI(frame, style.CellSize))
	} else {
		fmt.Println(render.Plain(frame, style.CellSize))
	}
	return nil
}
