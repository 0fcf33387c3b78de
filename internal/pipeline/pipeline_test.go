package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/asciivid/internal/config"
	"github.com/san-kum/asciivid/internal/deltacodec"
	"github.com/san-kum/asciivid/internal/glyph"
	"github.com/san-kum/asciivid/internal/textcodec"
)

type fakeSource struct {
	duration float64
	w, h     int
	fill     color.Color
	failAt   int
	calls    int
}

func (f *fakeSource) Duration() float64 { return f.duration }
func (f *fakeSource) Size() (int, int)  { return f.w, f.h }

func (f *fakeSource) FrameAt(ctx context.Context, t float64) (image.Image, error) {
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return nil, errors.New("corrupt packet")
	}
	img := image.NewNRGBA(image.Rect(0, 0, f.w, f.h))
	draw.Draw(img, img.Rect, image.NewUniform(f.fill), image.Point{}, draw.Src)
	return img, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Width = 10
	cfg.Noise = 0
	return cfg
}

type recorder struct {
	events []Progress
}

func (r *recorder) OnProgress(p Progress) { r.events = append(r.events, p) }

func TestGridSize(t *testing.T) {
	tests := []struct {
		srcW, srcH, width int
		aspect            float64
		wantH             int
	}{
		{1920, 1080, 300, 1.8, 93},
		{1920, 1080, 300, 1, 168},
		{100, 1, 10, 1.8, 1},
		{40, 20, 10, 0, 5},
	}
	for _, tt := range tests {
		w, h := GridSize(tt.srcW, tt.srcH, tt.width, tt.aspect)
		if w != tt.width || h != tt.wantH {
			t.Errorf("%dx%d at %d/%f: expected %dx%d, got %dx%d",
				tt.srcW, tt.srcH, tt.width, tt.aspect, tt.width, tt.wantH, w, h)
		}
	}
	if w, h := GridSize(0, 10, 10, 1); w != 0 || h != 0 {
		t.Errorf("zero source should give zero grid, got %dx%d", w, h)
	}
}

func TestPercent(t *testing.T) {
	if Percent(0, 0) != 100 {
		t.Error("empty work should be complete")
	}
	if got := Percent(1, 4); got != 25 {
		t.Errorf("expected 25, got %f", got)
	}
	if got := Percent(9, 4); got != 100 {
		t.Errorf("percent should cap at 100, got %f", got)
	}
}

func TestRun(t *testing.T) {
	src := &fakeSource{duration: 0.5, w: 40, h: 20, fill: color.Black}
	p, err := New(testConfig(), FormatText)
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	p.AddObserver(rec)

	res, err := p.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Frames) != 5 || res.Meta.FrameCount != 5 {
		t.Fatalf("expected 5 frames, got %d", len(res.Frames))
	}
	if res.Meta.Width != 10 || res.Meta.Height != 2 {
		t.Errorf("expected 10x2 grid, got %dx%d", res.Meta.Width, res.Meta.Height)
	}
	if res.Meta.Duration != 0.5 || res.Meta.Format != glyph.FormatText {
		t.Errorf("unexpected meta %+v", res.Meta)
	}
	for _, c := range res.Frames[0].Cells {
		if c.Kind != glyph.Symbol || c.Glyph != 'F' {
			t.Fatalf("black pixels should map to the densest glyph, got %+v", c)
		}
	}

	if rec.events[0].Stage != StageLoading {
		t.Errorf("expected loading first, got %s", rec.events[0].Stage)
	}
	last := rec.events[len(rec.events)-1]
	if last.Stage != StageConverting || last.Percent != 100 {
		t.Errorf("expected converting at 100%%, got %+v", last)
	}
}

func TestRunDeltaUsesSquareCells(t *testing.T) {
	src := &fakeSource{duration: 0.1, w: 40, h: 20, fill: color.White}
	p, _ := New(testConfig(), FormatDelta)
	res, err := p.Run(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if res.Meta.Height != 5 {
		t.Errorf("expected square cells to give height 5, got %d", res.Meta.Height)
	}
	for _, c := range res.Frames[0].Cells {
		if !c.IsEmpty() {
			t.Fatal("white pixels should be blank")
		}
	}
}

func TestRunDegenerate(t *testing.T) {
	cfg := testConfig()
	cfg.SkipStart = 3
	cfg.SkipEnd = 3
	p, _ := New(cfg, FormatText)
	res, err := p.Run(context.Background(), &fakeSource{duration: 0.5, w: 4, h: 4, fill: color.Black})
	if err != nil {
		t.Fatalf("degenerate trim should not fail: %v", err)
	}
	if len(res.Frames) != 0 {
		t.Errorf("expected no frames, got %d", len(res.Frames))
	}
	if _, err := p.Export(context.Background(), res, ExportOptions{Out: filepath.Join(t.TempDir(), "x.jsonl")}); !errors.Is(err, glyph.ErrEncode) {
		t.Errorf("exporting nothing should be an encode error, got %v", err)
	}
}

func TestRunSourceError(t *testing.T) {
	p, _ := New(testConfig(), FormatText)
	_, err := p.Run(context.Background(), &fakeSource{duration: 1, w: 4, h: 4, fill: color.Black, failAt: 3})
	if !errors.Is(err, glyph.ErrSource) {
		t.Errorf("expected source error, got %v", err)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, _ := New(testConfig(), FormatText)
	p.AddObserver(ObserverFunc(func(pr Progress) {
		if pr.Stage == StageConverting && pr.Frame == 2 {
			cancel()
		}
	}))
	_, err := p.Run(ctx, &fakeSource{duration: 1, w: 4, h: 4, fill: color.Black})
	if !errors.Is(err, glyph.ErrCanceled) {
		t.Fatalf("expected canceled error, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context cause, got %v", err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Chars = "x"
	if _, err := New(cfg, FormatText); err == nil {
		t.Error("expected error for single glyph alphabet")
	}
	if _, err := New(testConfig(), "webm"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestExportFormats(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{duration: 0.3, w: 20, h: 20, fill: color.Gray{Y: 60}}

	for _, f := range []Format{FormatText, FormatDelta, FormatSVG, FormatGIF} {
		t.Run(string(f), func(t *testing.T) {
			p, _ := New(testConfig(), f)
			rec := &recorder{}
			p.AddObserver(rec)
			res, err := p.Run(context.Background(), src)
			if err != nil {
				t.Fatal(err)
			}
			out := DefaultOutput(dir, "clip.mp4", f)
			files, err := p.Export(context.Background(), res, ExportOptions{Out: out})
			if err != nil {
				t.Fatalf("export failed: %v", err)
			}
			for _, path := range files {
				if st, err := os.Stat(path); err != nil || st.Size() == 0 {
					t.Errorf("expected non-empty %s", path)
				}
			}
			if last := rec.events[len(rec.events)-1]; last.Stage != StageComplete {
				t.Errorf("expected complete stage last, got %s", last.Stage)
			}
		})
	}

	anim, err := textcodec.ReadFile(DefaultOutput(dir, "clip.mp4", FormatText))
	if err != nil {
		t.Fatalf("read text export: %v", err)
	}
	if anim.Meta.FrameCount != 3 || anim.Meta.Width != 10 {
		t.Errorf("unexpected text meta %+v", anim.Meta)
	}

	h, err := deltacodec.ReadHeader(DefaultOutput(dir, "clip.mp4", FormatDelta) + deltacodec.MetaExt)
	if err != nil {
		t.Fatalf("read delta header: %v", err)
	}
	if h.Width != 10 || h.Height != 10 {
		t.Errorf("unexpected delta header %+v", h)
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":      FormatText,
		"TEXT":  FormatText,
		"neil":  FormatDelta,
		"mp4":   FormatVideo,
		"gif":   FormatGIF,
		"svg":   FormatSVG,
		"delta": FormatDelta,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := ParseFormat("avi"); err == nil {
		t.Error("expected error for avi")
	}
}

func TestDefaultOutput(t *testing.T) {
	if got := DefaultOutput("out", "/videos/cat.mov", FormatVideo); got != filepath.Join("out", "cat_ascii.mp4") {
		t.Errorf("unexpected %s", got)
	}
	if got := DefaultOutput("", "frames/img_*.png", FormatText); !strings.HasSuffix(got, "img_ascii.jsonl.gz") {
		t.Errorf("unexpected %s", got)
	}
	if got := DefaultOutput("", "clip.mp4", FormatDelta); got != "clip_ascii" {
		t.Errorf("unexpected %s", got)
	}
}
