package mux

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"slices"
	"testing"

	"github.com/san-kum/asciivid/internal/glyph"
)

func TestAVCLevel(t *testing.T) {
	tests := []struct {
		w, h int
		want string
	}{
		{1280, 720, "3.1"},
		{1920, 1080, "4.0"},
		{3840, 2160, "5.1"},
		{7680, 4320, "6.2"},
	}
	for _, tt := range tests {
		if got := AVCLevel(tt.w, tt.h); got != tt.want {
			t.Errorf("%dx%d: expected %s, got %s", tt.w, tt.h, tt.want, got)
		}
	}
}

func TestRGB24(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	img.Set(1, 0, color.NRGBA{R: 4, G: 5, B: 6, A: 255})
	if got := rgb24(img, nil); !bytes.Equal(got, []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("nrgba: unexpected %v", got)
	}

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.Set(0, 0, color.Gray{Y: 9})
	if got := rgb24(gray, make([]byte, 0, 64)); !bytes.Equal(got, []byte{9, 9, 9}) {
		t.Errorf("gray: unexpected %v", got)
	}
}

func hasPair(args []string, key, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == key && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestBuildArgs(t *testing.T) {
	opts := Options{Path: "out.mp4", Width: 1920, Height: 1080, FPS: 10, KeyframeInterval: 30}

	args := buildArgs(opts, "")
	for _, pair := range [][2]string{
		{"-c:v", "libx264"},
		{"-g", "30"},
		{"-pix_fmt", "yuv420p"},
		{"-pix_fmt", "rgb24"},
		{"-s", "1920x1080"},
		{"-level:v", "4.0"},
	} {
		if !hasPair(args, pair[0], pair[1]) {
			t.Errorf("missing %s %s in %v", pair[0], pair[1], args)
		}
	}
	if !slices.Contains(args, "-y") || !slices.Contains(args, "out.mp4") {
		t.Errorf("expected overwrite and output path in %v", args)
	}
	if slices.Contains(args, "-c:a") {
		t.Error("silent video should not request an audio codec")
	}

	withAudio := buildArgs(opts, "/tmp/track.wav")
	if !hasPair(withAudio, "-c:a", "aac") || !slices.Contains(withAudio, "/tmp/track.wav") {
		t.Errorf("audio input missing from %v", withAudio)
	}
}

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"odd width", Options{Path: "x.mp4", Width: 641, Height: 360, FPS: 10}},
		{"zero fps", Options{Path: "x.mp4", Width: 640, Height: 360}},
		{"no path", Options{Width: 640, Height: 360, FPS: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), BackendFFmpeg, tt.opts)
			if !errors.Is(err, glyph.ErrEncode) {
				t.Errorf("expected encode error, got %v", err)
			}
		})
	}

	_, err := New(context.Background(), "gstreamer", Options{Path: "x.mp4", Width: 2, Height: 2, FPS: 1})
	if !errors.Is(err, glyph.ErrEncode) {
		t.Errorf("expected encode error for unknown backend, got %v", err)
	}
}

func TestZeroFramesIsEncodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mp4")
	m, err := New(context.Background(), BackendFFmpeg, Options{Path: path, Width: 4, Height: 4, FPS: 10})
	if err != nil {
		t.Fatal(err)
	}
	err = m.Close()
	if !errors.Is(err, glyph.ErrEncode) {
		t.Fatalf("expected encode error, got %v", err)
	}
	if !errors.Is(err, errNoFrames) {
		t.Errorf("expected no frames cause, got %v", err)
	}
}

func TestWriteFrameChecksSize(t *testing.T) {
	m, _ := New(context.Background(), BackendFFmpeg, Options{Path: "x.mp4", Width: 4, Height: 4, FPS: 10})
	err := m.WriteFrame(image.NewNRGBA(image.Rect(0, 0, 8, 8)))
	if !errors.Is(err, glyph.ErrEncode) {
		t.Errorf("expected encode error, got %v", err)
	}
}
