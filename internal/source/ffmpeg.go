package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpeg extracts one PNG per timestamp by running the ffmpeg binary. It is
// slower than Video but handles containers OpenCV was built without.
type FFmpeg struct {
	path     string
	duration float64
	width    int
	height   int
}

type probeInfo struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

func OpenFFmpeg(path string) (*FFmpeg, error) {
	data, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	f, err := parseProbe([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	f.path = path
	return f, nil
}

func parseProbe(data []byte) (*FFmpeg, error) {
	var info probeInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}

	f := &FFmpeg{}
	for _, s := range info.Streams {
		if s.CodecType != "video" {
			continue
		}
		f.width, f.height = s.Width, s.Height
		if d, err := strconv.ParseFloat(s.Duration, 64); err == nil {
			f.duration = d
		}
		break
	}
	if f.width <= 0 || f.height <= 0 {
		return nil, fmt.Errorf("no video stream")
	}
	if d, err := strconv.ParseFloat(info.Format.Duration, 64); err == nil && d > 0 {
		f.duration = d
	}
	return f, nil
}

func (f *FFmpeg) Duration() float64 { return f.duration }

func (f *FFmpeg) Size() (int, int) { return f.width, f.height }

func (f *FFmpeg) FrameAt(ctx context.Context, t float64) (image.Image, error) {
	args := ffmpeg.Input(f.path, ffmpeg.KwArgs{"ss": strconv.FormatFloat(t, 'f', 3, 64)}).
		Output("pipe:", ffmpeg.KwArgs{
			"loglevel": "error",
			"vframes":  1,
			"format":   "image2",
			"vcodec":   "png",
		}).GetArgs()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg at %.3fs: %w: %s", t, err, bytes.TrimSpace(stderr.Bytes()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("no frame at %.3fs", t)
	}
	return png.Decode(&stdout)
}

func (f *FFmpeg) Close() error { return nil }
