// Package adjust implements the per-frame exposure/contrast transform and
// the luminance auto-contrast stretch applied before stylization.
package adjust

import (
	"image"
	"math"

	"github.com/san-kum/asciivid/internal/glyph"
)

type Params struct {
	// Exposure is added to every channel before contrast scaling.
	Exposure float64
	// Contrast is a percentage; 100 leaves the image unchanged.
	Contrast float64
}

func DefaultParams() Params {
	return Params{Exposure: 0, Contrast: 100}
}

// Apply copies img and runs ExposureContrast followed by Stretch on the copy.
// The order is fixed.
func Apply(img *image.NRGBA, p Params) *image.NRGBA {
	out := &image.NRGBA{
		Pix:    append([]uint8(nil), img.Pix...),
		Stride: img.Stride,
		Rect:   img.Rect,
	}
	ExposureContrast(out, p)
	Stretch(out)
	return out
}

// ExposureContrast applies v' = clamp(((v+exposure)-128)*(contrast/100)+128)
// to the colour channels in place. Alpha is left alone.
func ExposureContrast(img *image.NRGBA, p Params) {
	k := p.Contrast / 100
	forEachPixel(img, func(px []uint8) {
		for c := 0; c < 3; c++ {
			v := float64(px[c]) + p.Exposure
			px[c] = clamp((v-128)*k + 128)
		}
	})
}

// Stretch rescales each pixel so frame luminance spans 0..255. Channels are
// scaled by newL/L (1 when L is 0) and clamped. A frame whose luminance is
// uniform is returned unchanged.
func Stretch(img *image.NRGBA) {
	minL, maxL := math.Inf(1), math.Inf(-1)
	forEachPixel(img, func(px []uint8) {
		l := luma(px)
		minL = math.Min(minL, l)
		maxL = math.Max(maxL, l)
	})
	if math.IsInf(minL, 1) || maxL == minL {
		return
	}

	rng := math.Max(maxL-minL, 1)
	forEachPixel(img, func(px []uint8) {
		l := luma(px)
		factor := 1.0
		if l > 0 {
			factor = ((l - minL) / rng * 255) / l
		}
		for c := 0; c < 3; c++ {
			px[c] = clamp(float64(px[c]) * factor)
		}
	})
}

func luma(px []uint8) float64 {
	return glyph.Brightness(float64(px[0]), float64(px[1]), float64(px[2]))
}

func forEachPixel(img *image.NRGBA, fn func(px []uint8)) {
	b := img.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			fn(row[x*4 : x*4+4])
		}
	}
}

// clamp rounds half to even, matching a clamped byte store.
func clamp(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.RoundToEven(v))
}
