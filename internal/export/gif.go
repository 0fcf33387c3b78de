package export

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"math"
	"os"
)

// GIFDelay converts a frame rate to GIF delay units of 1/100 s.
func GIFDelay(fps float64) int {
	if fps <= 0 {
		return 10
	}
	d := int(math.Round(100 / fps))
	if d < 2 {
		d = 2
	}
	return d
}

// GIF collects frames for a looping animated GIF.
type GIF struct {
	anim  gif.GIF
	delay int
}

func NewGIF(fps float64) *GIF {
	return &GIF{anim: gif.GIF{LoopCount: 0}, delay: GIFDelay(fps)}
}

// Add quantizes img to the Plan 9 palette with Floyd-Steinberg dithering.
func (g *GIF) Add(img image.Image) {
	b := img.Bounds()
	p := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.Plan9)
	draw.FloydSteinberg.Draw(p, p.Rect, img, b.Min)
	g.anim.Image = append(g.anim.Image, p)
	g.anim.Delay = append(g.anim.Delay, g.delay)
}

func (g *GIF) Len() int { return len(g.anim.Image) }

func (g *GIF) Save(path string) error {
	if len(g.anim.Image) == 0 {
		return fmt.Errorf("no frames to encode")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &g.anim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
