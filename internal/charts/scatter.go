// internal/charts/scatter.go
package charts

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sort"

	"borehole-analytics/internal/models"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Options controls chart rendering dimensions.
type Options struct {
	Width  int
	Height int
}

var seriesPalette = []drawing.Color{
	{R: 0x00, G: 0xb4, B: 0xd8, A: 255},
	{R: 0xef, G: 0x6c, B: 0x00, A: 255},
	{R: 0x2e, G: 0x7d, B: 0x32, A: 255},
	{R: 0xc2, G: 0x18, B: 0x5b, A: 255},
	{R: 0x5e, G: 0x35, B: 0xb1, A: 255},
}

// RenderYieldVsCost renders the dashboard scatter of cost against yield,
// one series per borehole type, dot size scaled by the series' mean
// depth. Records with NaN cost or yield are dropped from the plot only.
func RenderYieldVsCost(ds *models.Dataset, opts Options) ([]byte, error) {
	if opts.Width <= 0 {
		opts.Width = 900
	}
	if opts.Height <= 0 {
		opts.Height = 480
	}

	groups := groupByType(ds.Records)
	if len(groups) == 0 {
		return renderPlaceholder(opts, "No plottable yield/cost data")
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var series []chart.Series
	xmin, xmax := math.Inf(1), math.Inf(-1)
	for i, name := range names {
		pts := groups[name]
		xs, ys := make([]float64, 0, len(pts)), make([]float64, 0, len(pts))
		depthSum := 0.0
		for _, p := range pts {
			xs = append(xs, p.cost)
			ys = append(ys, p.yield)
			depthSum += p.depth
			xmin = math.Min(xmin, p.cost)
			xmax = math.Max(xmax, p.cost)
		}

		// go-chart needs at least two X values per series
		if len(xs) == 1 {
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}

		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    dotWidth(depthSum / float64(len(pts))),
				DotColor:    seriesPalette[i%len(seriesPalette)],
			},
		})
	}

	graph := chart.Chart{
		Title:  "Yield vs Cost by Borehole Type",
		Width:  opts.Width,
		Height: opts.Height,
		XAxis: chart.XAxis{
			Name: "Cost (USD)",
		},
		YAxis: chart.YAxis{
			Name: "Yield (L/s)",
		},
		Series: series,
	}

	// A single distinct X value collapses the axis range; widen it so
	// go-chart can place ticks.
	if xmax-xmin < 1e-9 {
		graph.XAxis.Range = &chart.ContinuousRange{Min: xmin - 1, Max: xmax + 1}
	}

	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render scatter: %w", err)
	}
	return buf.Bytes(), nil
}

type point struct {
	cost, yield, depth float64
}

func groupByType(records []models.BoreholeRecord) map[string][]point {
	groups := make(map[string][]point)
	for _, rec := range records {
		if math.IsNaN(rec.CostUSD) || math.IsNaN(rec.YieldLps) {
			continue
		}
		name := rec.BoreholeType
		if name == "" {
			name = "Unspecified"
		}
		depth := rec.DepthM
		if math.IsNaN(depth) {
			depth = 0
		}
		groups[name] = append(groups[name], point{cost: rec.CostUSD, yield: rec.YieldLps, depth: depth})
	}
	return groups
}

// dotWidth maps a mean depth in meters onto a 4..12px dot.
func dotWidth(meanDepth float64) float64 {
	w := 4 + meanDepth/20
	if w > 12 {
		w = 12
	}
	if w < 4 {
		w = 4
	}
	return w
}

// renderPlaceholder produces a blank panel with a centered hint, used
// when nothing in the dataset can be plotted.
func renderPlaceholder(opts Options, text string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 255}),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I((opts.Width - textWidth) / 2),
			Y: fixed.I(opts.Height / 2),
		},
	}
	d.DrawString(text)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}
