package export

import (
	"fmt"
	"html"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/asciivid/internal/glyph"
)

// Paper is the SVG background.
const Paper = "#f5f0e8"

// FrameToSVG converts a frame to SVG. Dots become circles on a square grid of
// cellSize; symbols become monospace text in the same grid.
func FrameToSVG(f glyph.Frame, cellSize float64) string {
	if cellSize <= 0 {
		cellSize = 10
	}
	width := float64(f.Width) * cellSize
	height := float64(f.Height) * cellSize

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" style="background:%s">`,
		num(width), num(height), num(width), num(height), Paper))
	sb.WriteString(fmt.Sprintf(`<rect width="100%%" height="100%%" fill="%s"/>`, Paper))

	textOpen := false
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := f.At(x, y)
			cx := float64(x)*cellSize + cellSize/2
			cy := float64(y)*cellSize + cellSize/2
			fill := fmt.Sprintf("rgb(%d,%d,%d)", c.Color.R, c.Color.G, c.Color.B)

			switch c.Kind {
			case glyph.Dot:
				sb.WriteString(fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s" fill="%s"/>`,
					num(cx), num(cy), num(c.Radius), fill))
			case glyph.Symbol:
				if !textOpen {
					sb.WriteString(fmt.Sprintf(`<g font-family="monospace" font-size="%s" text-anchor="middle" dominant-baseline="central">`,
						num(cellSize)))
					textOpen = true
				}
				sb.WriteString(fmt.Sprintf(`<text x="%s" y="%s" fill="%s">%s</text>`,
					num(cx), num(cy), fill, html.EscapeString(string(c.Glyph))))
			}
		}
	}
	if textOpen {
		sb.WriteString("</g>")
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func WriteSVG(path string, f glyph.Frame, cellSize float64) error {
	return os.WriteFile(path, []byte(FrameToSVG(f, cellSize)), 0644)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
