package source

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	_ "golang.org/x/image/tiff"
)

// DefaultSequenceFPS is the rate assigned to image sequences, which carry no
// timing of their own.
const DefaultSequenceFPS = 15

// Dir serves an ordered image sequence as if it were a video. Files are
// matched by a shell pattern such as "shots/frame_*.png" and sorted by name.
type Dir struct {
	files  []string
	fps    float64
	width  int
	height int
}

func OpenDir(pattern string, fps float64) (*Dir, error) {
	if fps <= 0 {
		fps = DefaultSequenceFPS
	}

	dir, base := filepath.Split(pattern)
	if info, err := os.Stat(pattern); err == nil && info.IsDir() {
		dir, base = pattern, "*.{png,jpg,jpeg,gif,tif,tiff}"
	}
	if dir == "" {
		dir = "."
	}

	g, err := glob.Compile(base)
	if err != nil {
		return nil, fmt.Errorf("bad sequence pattern %q: %w", base, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	d := &Dir{fps: fps}
	for _, e := range entries {
		if !e.IsDir() && g.Match(e.Name()) {
			d.files = append(d.files, filepath.Join(dir, e.Name()))
		}
	}
	if len(d.files) == 0 {
		return nil, fmt.Errorf("no images match %s", pattern)
	}
	sort.Strings(d.files)

	f, err := os.Open(d.files[0])
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.files[0], err)
	}
	d.width, d.height = cfg.Width, cfg.Height
	return d, nil
}

func (d *Dir) Duration() float64 { return float64(len(d.files)) / d.fps }

func (d *Dir) Size() (int, int) { return d.width, d.height }

func (d *Dir) Len() int { return len(d.files) }

func (d *Dir) FrameAt(ctx context.Context, t float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i := int(math.Floor(t*d.fps + 1e-9))
	if i < 0 || i >= len(d.files) {
		return nil, fmt.Errorf("no frame at %.3fs", t)
	}

	f, err := os.Open(d.files[i])
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.files[i], err)
	}
	return img, nil
}

func (d *Dir) Close() error { return nil }
