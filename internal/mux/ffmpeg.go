package mux

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/san-kum/asciivid/internal/audio"
	"github.com/san-kum/asciivid/internal/glyph"
)

// ffmpegMuxer pipes rgb24 frames into an ffmpeg process. The process is
// started on the first frame.
type ffmpegMuxer struct {
	ctx     context.Context
	opts    Options
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  bytes.Buffer
	wavPath string
	buf     []byte
	frames  int
}

func newFFmpeg(ctx context.Context, opts Options) *ffmpegMuxer {
	return &ffmpegMuxer{ctx: ctx, opts: opts}
}

// buildArgs returns the ffmpeg command line, reading audio from wavPath when
// it is not empty.
func buildArgs(opts Options, wavPath string) []string {
	streams := []*ffmpeg.Stream{
		ffmpeg.Input("pipe:0", ffmpeg.KwArgs{
			"f":         "rawvideo",
			"pix_fmt":   "rgb24",
			"s":         fmt.Sprintf("%dx%d", opts.Width, opts.Height),
			"framerate": strconv.FormatFloat(opts.FPS, 'f', -1, 64),
		}),
	}
	out := ffmpeg.KwArgs{
		"c:v":      "libx264",
		"preset":   "medium",
		"crf":      "20",
		"pix_fmt":  "yuv420p",
		"level:v":  AVCLevel(opts.Width, opts.Height),
		"g":        strconv.Itoa(opts.KeyframeInterval),
		"movflags": "+faststart",
		"loglevel": "error",
	}
	if wavPath != "" {
		streams = append(streams, ffmpeg.Input(wavPath))
		out["c:a"] = "aac"
		out["b:a"] = "192k"
		out["shortest"] = ""
	}
	return ffmpeg.Output(streams, opts.Path, out).OverWriteOutput().GetArgs()
}

func (m *ffmpegMuxer) start() error {
	if m.opts.Audio != nil {
		f, err := os.CreateTemp("", "asciivid-*.wav")
		if err != nil {
			return err
		}
		m.wavPath = f.Name()
		f.Close()
		if err := audio.WriteWAVFile(m.wavPath, m.opts.Audio); err != nil {
			slog.Warn("mux: dropping audio", "err", err)
			os.Remove(m.wavPath)
			m.wavPath = ""
		}
	}

	args := buildArgs(m.opts, m.wavPath)
	slog.Debug("mux: starting ffmpeg", "args", args)

	m.cmd = exec.CommandContext(m.ctx, "ffmpeg", args...)
	m.cmd.Stderr = &m.stderr
	stdin, err := m.cmd.StdinPipe()
	if err != nil {
		return err
	}
	m.stdin = stdin
	return m.cmd.Start()
}

func (m *ffmpegMuxer) WriteFrame(img image.Image) error {
	if err := checkSize(img, m.opts); err != nil {
		return glyph.EncodeError("mux", err)
	}
	if m.cmd == nil {
		if err := m.start(); err != nil {
			m.cleanup()
			return glyph.EncodeError("mux", err)
		}
	}
	m.buf = rgb24(img, m.buf)
	if _, err := m.stdin.Write(m.buf); err != nil {
		return glyph.EncodeError("mux", m.describe(err))
	}
	m.frames++
	return nil
}

func (m *ffmpegMuxer) Close() error {
	defer m.cleanup()
	if m.frames == 0 {
		if m.cmd != nil {
			m.stdin.Close()
			m.cmd.Wait()
		}
		return glyph.EncodeError("mux", errNoFrames)
	}
	m.stdin.Close()
	if err := m.cmd.Wait(); err != nil {
		return glyph.EncodeError("mux", m.describe(err))
	}
	slog.Info("mux: video written", "path", m.opts.Path, "frames", m.frames)
	return nil
}

func (m *ffmpegMuxer) describe(err error) error {
	if msg := bytes.TrimSpace(m.stderr.Bytes()); len(msg) > 0 {
		return fmt.Errorf("%w: %s", err, msg)
	}
	return err
}

func (m *ffmpegMuxer) cleanup() {
	if m.wavPath != "" {
		os.Remove(m.wavPath)
		m.wavPath = ""
	}
}
