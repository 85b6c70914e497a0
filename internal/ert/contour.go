// internal/ert/contour.go
package ert

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
)

const contourLevel = 0.5

// ContourReport converts an uploaded survey image into an annotated
// contour report: the image is normalized, smoothed, recolored with the
// resistivity colormap, and overlaid with contour lines at the mid
// intensity level plus zone annotations.
func ContourReport(r io.Reader) ([]byte, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	field := normalizeGray(src)
	field = boxBlur(field, 3) // 7x7 window

	bounds := field.bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.w, bounds.h))
	for y := 0; y < bounds.h; y++ {
		for x := 0; x < bounds.w; x++ {
			out.SetRGBA(x, y, viridis(field.at(x, y)))
		}
	}

	white := color.RGBA{R: 255, G: 255, B: 255, A: 220}
	for _, seg := range marchingSquares(field, contourLevel) {
		drawSegment(out, seg, white)
	}

	drawLabel(out, 16, 28, "High Yield Zone", color.RGBA{R: 220, G: 255, B: 220, A: 255})
	drawLabel(out, 16, bounds.h-16, "Low Resistivity Zone", color.RGBA{R: 255, G: 220, B: 220, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode contour report: %w", err)
	}
	return buf.Bytes(), nil
}

// scalarField is a dense float grid over image coordinates.
type scalarField struct {
	w, h int
	data []float64
}

func newScalarField(w, h int) *scalarField {
	return &scalarField{w: w, h: h, data: make([]float64, w*h)}
}

func (f *scalarField) at(x, y int) float64   { return f.data[y*f.w+x] }
func (f *scalarField) set(x, y int, v float64) { f.data[y*f.w+x] = v }
func (f *scalarField) bounds() struct{ w, h int } {
	return struct{ w, h int }{f.w, f.h}
}

// normalizeGray converts to grayscale scaled into [0,1].
func normalizeGray(src image.Image) *scalarField {
	b := src.Bounds()
	field := newScalarField(b.Dx(), b.Dy())

	lo, hi := math.Inf(1), math.Inf(-1)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// Rec. 601 luma
			v := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)
			field.set(x, y, v)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	span := hi - lo
	if span < 1e-12 {
		span = 1
	}
	for i, v := range field.data {
		field.data[i] = (v - lo) / span
	}
	return field
}

// boxBlur smooths the field with a (2r+1) square window, clamped at the
// edges.
func boxBlur(f *scalarField, r int) *scalarField {
	out := newScalarField(f.w, f.h)
	for y := 0; y < f.h; y++ {
		for x := 0; x < f.w; x++ {
			sum, n := 0.0, 0
			for dy := -r; dy <= r; dy++ {
				yy := y + dy
				if yy < 0 || yy >= f.h {
					continue
				}
				for dx := -r; dx <= r; dx++ {
					xx := x + dx
					if xx < 0 || xx >= f.w {
						continue
					}
					sum += f.at(xx, yy)
					n++
				}
			}
			out.set(x, y, sum/float64(n))
		}
	}
	return out
}

type segment struct {
	x0, y0, x1, y1 float64
}

// marchingSquares extracts iso-line segments at the given level. Each
// grid cell contributes up to two segments based on which corners sit
// above the level.
func marchingSquares(f *scalarField, level float64) []segment {
	var segs []segment

	interp := func(a, b float64) float64 {
		if math.Abs(b-a) < 1e-12 {
			return 0.5
		}
		return (level - a) / (b - a)
	}

	for y := 0; y < f.h-1; y++ {
		for x := 0; x < f.w-1; x++ {
			tl := f.at(x, y)
			tr := f.at(x+1, y)
			br := f.at(x+1, y+1)
			bl := f.at(x, y+1)

			idx := 0
			if tl > level {
				idx |= 8
			}
			if tr > level {
				idx |= 4
			}
			if br > level {
				idx |= 2
			}
			if bl > level {
				idx |= 1
			}
			if idx == 0 || idx == 15 {
				continue
			}

			fx, fy := float64(x), float64(y)
			top := func() (float64, float64) { return fx + interp(tl, tr), fy }
			right := func() (float64, float64) { return fx + 1, fy + interp(tr, br) }
			bottom := func() (float64, float64) { return fx + interp(bl, br), fy + 1 }
			left := func() (float64, float64) { return fx, fy + interp(tl, bl) }

			join := func(a, b func() (float64, float64)) {
				ax, ay := a()
				bx, by := b()
				segs = append(segs, segment{x0: ax, y0: ay, x1: bx, y1: by})
			}

			switch idx {
			case 1, 14:
				join(left, bottom)
			case 2, 13:
				join(bottom, right)
			case 3, 12:
				join(left, right)
			case 4, 11:
				join(top, right)
			case 6, 9:
				join(top, bottom)
			case 7, 8:
				join(left, top)
			case 5: // saddle
				join(left, top)
				join(bottom, right)
			case 10: // saddle
				join(top, right)
				join(left, bottom)
			}
		}
	}
	return segs
}

// drawSegment plots a short line segment by stepping along its length.
func drawSegment(img *image.RGBA, s segment, c color.RGBA) {
	dx := s.x1 - s.x0
	dy := s.y1 - s.y0
	steps := int(math.Max(math.Abs(dx), math.Abs(dy))*2) + 1

	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Round(s.x0 + t*dx))
		y := int(math.Round(s.y0 + t*dy))
		if x >= 0 && y >= 0 && x < img.Bounds().Dx() && y < img.Bounds().Dy() {
			img.SetRGBA(x, y, c)
		}
	}
}
