package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/san-kum/asciivid/internal/glyph"
)

// Paper is the raster background colour.
var Paper = color.RGBA{R: 0xf5, G: 0xf0, B: 0xe8, A: 0xff}

type RasterOptions struct {
	CellWidth  int
	CellHeight int
	FontSize   float64
	MaxWidth   int
	MaxHeight  int
}

func DefaultRasterOptions() RasterOptions {
	return RasterOptions{
		CellWidth:  10,
		CellHeight: 18,
		FontSize:   14,
		MaxWidth:   1920,
		MaxHeight:  1080,
	}
}

// Raster draws frames as images, one cell per CellWidth x CellHeight block.
type Raster struct {
	opts    RasterOptions
	face    font.Face
	ascent  int
	descent int
	bg      *image.Uniform
}

func NewRaster(opts RasterOptions) (*Raster, error) {
	def := DefaultRasterOptions()
	if opts.CellWidth <= 0 {
		opts.CellWidth = def.CellWidth
	}
	if opts.CellHeight <= 0 {
		opts.CellHeight = def.CellHeight
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}

	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:    opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	m := face.Metrics()
	return &Raster{
		opts:    opts,
		face:    face,
		ascent:  m.Ascent.Ceil(),
		descent: m.Descent.Ceil(),
		bg:      image.NewUniform(Paper),
	}, nil
}

// Size is the unscaled image size for a grid.
func (r *Raster) Size(gridW, gridH int) (int, int) {
	return gridW * r.opts.CellWidth, gridH * r.opts.CellHeight
}

// OutputSize is the final image size after fitting to the maximum.
func (r *Raster) OutputSize(gridW, gridH int) (int, int) {
	w, h := r.Size(gridW, gridH)
	return FitSize(w, h, r.opts.MaxWidth, r.opts.MaxHeight)
}

// Render paints f at full cell resolution.
func (r *Raster) Render(f glyph.Frame) *image.RGBA {
	w, h := r.Size(f.Width, f.Height)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), r.bg, image.Point{}, draw.Src)

	d := &font.Drawer{Dst: img, Face: r.face}
	cw, ch := r.opts.CellWidth, r.opts.CellHeight
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := f.At(x, y)
			left, top := x*cw, y*ch
			col := color.RGBA{R: c.Color.R, G: c.Color.G, B: c.Color.B, A: 0xff}

			switch c.Kind {
			case glyph.Symbol:
				adv, ok := r.face.GlyphAdvance(c.Glyph)
				if !ok {
					continue
				}
				d.Src = image.NewUniform(col)
				gx := left + (cw-adv.Ceil())/2
				gy := top + (ch-r.ascent-r.descent)/2 + r.ascent
				d.Dot = freetype.Pt(gx, gy)
				d.DrawString(string(c.Glyph))
			case glyph.Dot:
				cx := float64(left) + float64(cw)/2
				cy := float64(top) + float64(ch)/2
				fillCircle(img, cx, cy, c.Radius, col)
			}
		}
	}
	return img
}

// RenderFitted paints f and scales it to OutputSize.
func (r *Raster) RenderFitted(f glyph.Frame) *image.NRGBA {
	img := r.Render(f)
	w, h := r.OutputSize(f.Width, f.Height)
	if w == img.Rect.Dx() && h == img.Rect.Dy() {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, w, h, imaging.Linear)
}

// FitSize scales w x h down to fit maxW x maxH keeping the aspect ratio,
// then rounds both sides down to even numbers as H.264 requires.
func FitSize(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = math.Min(scale, float64(maxW)/float64(w))
	}
	if maxH > 0 && h > maxH {
		scale = math.Min(scale, float64(maxH)/float64(h))
	}
	fw := int(math.Floor(float64(w) * scale))
	fh := int(math.Floor(float64(h) * scale))
	fw -= fw % 2
	fh -= fh % 2
	if fw < 2 {
		fw = 2
	}
	if fh < 2 {
		fh = 2
	}
	return fw, fh
}

// circle is an alpha mask of a disc.
type circle struct {
	cx, cy, r float64
}

func (c *circle) ColorModel() color.Model { return color.AlphaModel }

func (c *circle) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(c.cx-c.r)), int(math.Floor(c.cy-c.r)),
		int(math.Ceil(c.cx+c.r)), int(math.Ceil(c.cy+c.r)),
	)
}

func (c *circle) At(x, y int) color.Color {
	dx := float64(x) + 0.5 - c.cx
	dy := float64(y) + 0.5 - c.cy
	if dx*dx+dy*dy <= c.r*c.r {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}

func fillCircle(dst draw.Image, cx, cy, r float64, col color.Color) {
	if r <= 0 {
		return
	}
	m := &circle{cx: cx, cy: cy, r: r}
	b := m.Bounds()
	draw.DrawMask(dst, b, image.NewUniform(col), image.Point{}, m, b.Min, draw.Over)
}
