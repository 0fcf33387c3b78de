package mapper

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/asciivid/internal/glyph"
)

func newMapper(t *testing.T, opts Options) *Mapper {
	t.Helper()
	m, err := New(opts)
	if err != nil {
		t.Fatalf("new mapper: %v", err)
	}
	return m
}

func TestScenarioMapping(t *testing.T) {
	alpha, _ := glyph.ParseAlphabet("AB ")
	m := newMapper(t, Options{Alphabet: alpha, Threshold: 200})

	tests := []struct {
		gray uint8
		kind glyph.CellKind
		want rune
	}{
		{50, glyph.Symbol, 'A'},
		{150, glyph.Symbol, 'B'},
		{200, glyph.Empty, 0},
		{255, glyph.Empty, 0},
	}

	for _, tt := range tests {
		c := m.Map(tt.gray, tt.gray, tt.gray, 0, 0)
		if c.Kind != tt.kind {
			t.Errorf("brightness %d: expected %v, got %v", tt.gray, tt.kind, c.Kind)
			continue
		}
		if c.Kind == glyph.Symbol && c.Glyph != tt.want {
			t.Errorf("brightness %d: expected %q, got %q", tt.gray, tt.want, c.Glyph)
		}
	}
}

func TestIndexNeverSelectsLastGlyph(t *testing.T) {
	alpha, _ := glyph.ParseAlphabet(glyph.DefaultAlphabet)
	for _, noise := range []float64{0, 0.5, 1} {
		m := newMapper(t, Options{
			Alphabet:  alpha,
			Threshold: 240,
			Noise:     noise,
			Rand:      rand.New(rand.NewSource(7)),
		})
		for v := 0; v < 240; v++ {
			c := m.Map(uint8(v), uint8(v), uint8(v), 0, 0)
			if c.Glyph == ' ' {
				t.Fatalf("noise %.1f brightness %d selected reserved glyph", noise, v)
			}
		}
	}

	for b := 0.0; b < 255; b += 0.5 {
		idx := Index(b, 255, 4)
		if idx < 0 || idx > 2 {
			t.Fatalf("index %d out of range for brightness %.1f", idx, b)
		}
	}
}

func TestBrightAlwaysEmpty(t *testing.T) {
	alpha, _ := glyph.ParseAlphabet("@#. ")
	m := newMapper(t, Options{
		Alphabet:  alpha,
		Threshold: 100,
		Noise:     1,
		Mode:      ModeDot,
		Rand:      rand.New(rand.NewSource(3)),
	})
	for v := 100; v <= 255; v++ {
		if c := m.Map(uint8(v), uint8(v), uint8(v), 1, 1); !c.IsEmpty() {
			t.Fatalf("brightness %d should be empty", v)
		}
	}
}

func TestMaskedAlwaysEmpty(t *testing.T) {
	alpha, _ := glyph.ParseAlphabet("AB ")
	m := newMapper(t, Options{
		Alphabet:  alpha,
		Threshold: 255,
		Mask:      glyph.NewMaskSet(glyph.Point{X: 1, Y: 0}),
	})
	if c := m.Map(0, 0, 0, 1, 0); !c.IsEmpty() {
		t.Error("masked black pixel should be empty")
	}
	if c := m.Map(0, 0, 0, 0, 0); c.IsEmpty() {
		t.Error("unmasked black pixel should not be empty")
	}
}

func TestNoiseStaysInRange(t *testing.T) {
	alpha, _ := glyph.ParseAlphabet("ABC ")
	m := newMapper(t, Options{
		Alphabet:  alpha,
		Threshold: 240,
		Noise:     1,
		Rand:      rand.New(rand.NewSource(11)),
	})
	seen := map[rune]bool{}
	for i := 0; i < 200; i++ {
		c := m.Map(0, 0, 0, 0, 0)
		seen[c.Glyph] = true
	}
	if seen[' '] {
		t.Error("noise selected reserved glyph")
	}
	if !seen['A'] || !seen['B'] {
		t.Errorf("full noise at index 0 should yield A (clamped) and B, saw %v", seen)
	}
	if seen['C'] {
		t.Error("noise moved more than one step")
	}
}

func TestColorIsNotQuantized(t *testing.T) {
	alpha, _ := glyph.ParseAlphabet("AB ")
	m := newMapper(t, Options{Alphabet: alpha, Threshold: 240})
	c := m.Map(13, 77, 201, 0, 0)
	if c.Color != (glyph.RGB{R: 13, G: 77, B: 201}) {
		t.Errorf("color changed to %v", c.Color)
	}
}

func TestDotRadius(t *testing.T) {
	tests := []struct {
		brightness float64
		want       float64
	}{
		{0, 5},
		{255, 1.5},
		{127.5, 4},
	}
	for _, tt := range tests {
		got := Radius(tt.brightness, 10)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("brightness %.1f: expected radius %.2f, got %.2f", tt.brightness, tt.want, got)
		}
	}
}

func TestMapFrame(t *testing.T) {
	alpha, _ := glyph.ParseAlphabet("AB ")
	m := newMapper(t, Options{Alphabet: alpha, Threshold: 200})

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	set := func(x, y int, v uint8) {
		i := img.PixOffset(x, y)
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
	}
	set(0, 0, 50)
	set(1, 0, 150)
	set(0, 1, 250)
	set(1, 1, 0)

	f := m.MapFrame(img)
	if f.Width != 2 || f.Height != 2 {
		t.Fatalf("unexpected dims %dx%d", f.Width, f.Height)
	}
	if f.At(0, 0).Glyph != 'A' || f.At(1, 0).Glyph != 'B' || !f.At(0, 1).IsEmpty() || f.At(1, 1).Glyph != 'A' {
		t.Errorf("unexpected frame %+v", f.Cells)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	alpha, _ := glyph.ParseAlphabet("AB ")
	tests := []struct {
		name string
		opts Options
	}{
		{"short alphabet", Options{Alphabet: glyph.Alphabet{'A'}, Threshold: 200}},
		{"threshold", Options{Alphabet: alpha, Threshold: 300}},
		{"noise", Options{Alphabet: alpha, Threshold: 200, Noise: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	if m, _ := ParseMode("dots"); m != ModeDot {
		t.Errorf("expected dot, got %s", m)
	}
	if m, _ := ParseMode(""); m != ModeGlyph {
		t.Errorf("expected glyph default, got %s", m)
	}
	if _, err := ParseMode("braille"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
