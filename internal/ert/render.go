// internal/ert/render.go
package ert

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"borehole-analytics/internal/models"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	sectionWidth  = 800
	sectionHeight = 400
	marginTop     = 28
	marginRight   = 60 // room for the colorbar
)

// viridisAnchors are sampled from the matplotlib viridis colormap.
var viridisAnchors = [][3]uint8{
	{68, 1, 84},
	{71, 44, 122},
	{59, 81, 139},
	{44, 113, 142},
	{33, 144, 141},
	{39, 173, 129},
	{92, 200, 99},
	{170, 220, 50},
	{253, 231, 37},
}

// viridis maps t in [0,1] onto the colormap with linear interpolation.
func viridis(t float64) color.RGBA {
	if math.IsNaN(t) {
		return color.RGBA{}
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	pos := t * float64(len(viridisAnchors)-1)
	i := int(pos)
	if i >= len(viridisAnchors)-1 {
		last := viridisAnchors[len(viridisAnchors)-1]
		return color.RGBA{R: last[0], G: last[1], B: last[2], A: 255}
	}
	frac := pos - float64(i)
	a, b := viridisAnchors[i], viridisAnchors[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + frac*(float64(y)-float64(x)))
	}
	return color.RGBA{R: lerp(a[0], b[0]), G: lerp(a[1], b[1]), B: lerp(a[2], b[2]), A: 255}
}

// RenderSection draws the pseudo-section heatmap with a title and a
// resistivity colorbar. NaN cells remain transparent.
func RenderSection(section *models.ERTSection) ([]byte, error) {
	if section.Width() == 0 || section.Height() == 0 {
		return nil, fmt.Errorf("empty section")
	}

	lo, hi := gridRange(section.Grid)
	if math.IsInf(lo, 1) {
		return nil, fmt.Errorf("section has no numeric cells")
	}

	img := image.NewRGBA(image.Rect(0, 0, sectionWidth, sectionHeight))
	bg := color.RGBA{R: 16, G: 24, B: 40, A: 255}
	for py := 0; py < sectionHeight; py++ {
		for px := 0; px < sectionWidth; px++ {
			img.SetRGBA(px, py, bg)
		}
	}

	plotW := sectionWidth - marginRight
	plotH := sectionHeight - marginTop

	// Nearest-neighbor upscale of the grid into the plot area. Depth
	// increases downward, matching the survey convention.
	for py := 0; py < plotH; py++ {
		zi := py * section.Height() / plotH
		for px := 0; px < plotW; px++ {
			xi := px * section.Width() / plotW
			v := section.Grid[zi][xi]
			img.SetRGBA(px, marginTop+py, viridis(normalize(v, lo, hi)))
		}
	}

	drawColorbar(img, plotW+12, marginTop, 18, plotH, lo, hi)

	title := "ERT Pseudo-Section"
	if section.Synthetic {
		title = "ERT Pseudo-Section (Fallback Renderer)"
	}
	drawLabel(img, 8, 18, title, color.RGBA{R: 240, G: 240, B: 240, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode section: %w", err)
	}
	return buf.Bytes(), nil
}

func gridRange(grid [][]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range grid {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

func normalize(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return math.NaN()
	}
	if hi-lo < 1e-12 {
		return 0.5
	}
	return (v - lo) / (hi - lo)
}

func drawColorbar(img *image.RGBA, x, y, w, h int, lo, hi float64) {
	for dy := 0; dy < h; dy++ {
		t := 1 - float64(dy)/float64(h-1)
		c := viridis(t)
		for dx := 0; dx < w; dx++ {
			img.SetRGBA(x+dx, y+dy, c)
		}
	}
	gray := color.RGBA{R: 200, G: 200, B: 200, A: 255}
	drawLabel(img, x+w+2, y+10, fmt.Sprintf("%.0f", hi), gray)
	drawLabel(img, x+w+2, y+h-2, fmt.Sprintf("%.0f", lo), gray)
}

// drawLabel renders small text directly onto the image.
func drawLabel(img *image.RGBA, x, y int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
