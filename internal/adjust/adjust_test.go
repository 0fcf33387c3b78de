package adjust

import (
	"image"
	"math"
	"testing"
)

func grayImage(vals ...uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, len(vals), 1))
	for i, v := range vals {
		img.Pix[i*4], img.Pix[i*4+1], img.Pix[i*4+2], img.Pix[i*4+3] = v, v, v, 255
	}
	return img
}

func TestExposureContrast(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		in   uint8
		want uint8
	}{
		{"identity", Params{0, 100}, 77, 77},
		{"exposure", Params{20, 100}, 100, 120},
		{"contrast doubles distance from mid", Params{0, 200}, 150, 172},
		{"clamps high", Params{20, 100}, 250, 255},
		{"clamps low", Params{-50, 100}, 10, 0},
		{"zero contrast flattens", Params{0, 0}, 10, 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := grayImage(tt.in)
			ExposureContrast(img, tt.p)
			if img.Pix[0] != tt.want {
				t.Errorf("expected %d, got %d", tt.want, img.Pix[0])
			}
			if img.Pix[3] != 255 {
				t.Error("alpha must be untouched")
			}
		})
	}
}

func lumaAt(img *image.NRGBA, i int) float64 {
	return luma(img.Pix[i*4 : i*4+4])
}

func TestStretchSpansFullRange(t *testing.T) {
	img := grayImage(50, 100, 150, 120)
	Stretch(img)

	minL, maxL := math.Inf(1), math.Inf(-1)
	for i := 0; i < 4; i++ {
		l := lumaAt(img, i)
		minL = math.Min(minL, l)
		maxL = math.Max(maxL, l)
	}
	if math.Abs(minL) > 0.5 {
		t.Errorf("expected min luminance 0, got %.2f", minL)
	}
	if math.Abs(maxL-255) > 0.5 {
		t.Errorf("expected max luminance 255, got %.2f", maxL)
	}
}

func TestStretchUniformFrameUnchanged(t *testing.T) {
	img := grayImage(90, 90, 90)
	Stretch(img)
	for i := 0; i < 3; i++ {
		if img.Pix[i*4] != 90 {
			t.Fatalf("pixel %d changed to %d", i, img.Pix[i*4])
		}
	}
}

func TestStretchBlackPixelKeepsFactorOne(t *testing.T) {
	img := grayImage(0, 200)
	Stretch(img)
	if img.Pix[0] != 0 {
		t.Errorf("black pixel should stay black, got %d", img.Pix[0])
	}
	if img.Pix[4] != 255 {
		t.Errorf("brightest pixel should reach 255, got %d", img.Pix[4])
	}
}

func TestApplyOrderAndCopy(t *testing.T) {
	src := grayImage(40, 90, 200)
	p := Params{Exposure: 10, Contrast: 150}

	got := Apply(src, p)

	want := grayImage(40, 90, 200)
	ExposureContrast(want, p)
	Stretch(want)

	for i := range want.Pix {
		if got.Pix[i] != want.Pix[i] {
			t.Fatalf("byte %d: expected %d, got %d", i, want.Pix[i], got.Pix[i])
		}
	}
	if src.Pix[0] != 40 || src.Pix[4] != 90 {
		t.Error("Apply must not mutate its input")
	}
}

func TestApplyDeterministic(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 13)
	}
	a := Apply(src, DefaultParams())
	b := Apply(src, DefaultParams())
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatal("same input and parameters must give identical output")
		}
	}
}
