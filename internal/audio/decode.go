package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type Decoder interface {
	Decode(ctx context.Context, path string) (*PCM, error)
}

// WAVDecoder reads PCM WAV files natively.
type WAVDecoder struct{}

func (WAVDecoder) Decode(ctx context.Context, path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("WAV file has no channels")
	}

	scale := float32(goaudio.IntMaxSignedValue(int(dec.BitDepth)))
	samples := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float32(s) / scale
	}
	return &PCM{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		Samples:    samples,
	}, nil
}

// FFmpegDecoder extracts the first audio track of any container as
// interleaved 32-bit float PCM.
type FFmpegDecoder struct {
	SampleRate int
	Channels   int
}

func (d FFmpegDecoder) Decode(ctx context.Context, path string) (*PCM, error) {
	rate, channels := d.SampleRate, d.Channels
	if rate <= 0 {
		rate = SampleRate
	}
	if channels <= 0 {
		channels = Channels
	}

	args := ffmpeg.Input(path).
		Output("pipe:", ffmpeg.KwArgs{
			"loglevel": "error",
			"vn":       "",
			"f":        "f32le",
			"acodec":   "pcm_f32le",
			"ac":       strconv.Itoa(channels),
			"ar":       strconv.Itoa(rate),
		}).GetArgs()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("no audio track")
	}
	return &PCM{
		SampleRate: rate,
		Channels:   channels,
		Samples:    decodeF32LE(stdout.Bytes()),
	}, nil
}

func decodeF32LE(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

// Load decodes path with the decoder suited to its extension. Any failure is
// logged and reported as no audio.
func Load(ctx context.Context, path string) *PCM {
	var dec Decoder = FFmpegDecoder{}
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		dec = WAVDecoder{}
	}
	return LoadWith(ctx, dec, path)
}

func LoadWith(ctx context.Context, dec Decoder, path string) *PCM {
	pcm, err := dec.Decode(ctx, path)
	if err != nil {
		slog.Warn("audio: continuing without sound", "path", path, "err", err)
		return nil
	}
	if pcm.Frames() == 0 {
		slog.Warn("audio: track is empty, continuing without sound", "path", path)
		return nil
	}
	slog.Debug("audio: decoded", "path", path, "rate", pcm.SampleRate,
		"channels", pcm.Channels, "seconds", pcm.Duration())
	return pcm
}
