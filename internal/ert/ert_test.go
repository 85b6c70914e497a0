// internal/ert/ert_test.go
package ert

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Grid Parsing Tests
// ==========================

func TestParseGrid_HeaderedCSV(t *testing.T) {
	data := strings.Join([]string{
		"x,z,resistivity",
		"0,0,10",
		"1,0,20",
		"0,1,30",
		"1,1,40",
	}, "\n")

	section, err := ParseGrid(strings.NewReader(data))

	require.NoError(t, err)
	assert.Equal(t, 2, section.Width())
	assert.Equal(t, 2, section.Height())
	assert.InDelta(t, 10.0, section.Grid[0][0], 1e-9)
	assert.InDelta(t, 40.0, section.Grid[1][1], 1e-9)
	assert.False(t, section.Synthetic)
}

func TestParseGrid_ColumnOrderFlexible(t *testing.T) {
	data := strings.Join([]string{
		"resistivity,x,z",
		"10,0,0",
		"20,1,0",
	}, "\n")

	section, err := ParseGrid(strings.NewReader(data))

	require.NoError(t, err)
	assert.InDelta(t, 10.0, section.Grid[0][0], 1e-9)
	assert.InDelta(t, 20.0, section.Grid[0][1], 1e-9)
}

func TestParseGrid_HeaderlessPositional(t *testing.T) {
	data := "0,0,10\n1,0,20\n"

	section, err := ParseGrid(strings.NewReader(data))

	require.NoError(t, err)
	assert.Equal(t, 2, section.Width())
	assert.Equal(t, 1, section.Height())
}

func TestParseGrid_SparseCellsAreNaN(t *testing.T) {
	data := strings.Join([]string{
		"x,z,resistivity",
		"0,0,10",
		"1,1,40",
	}, "\n")

	section, err := ParseGrid(strings.NewReader(data))

	require.NoError(t, err)
	assert.True(t, math.IsNaN(section.Grid[0][1]))
	assert.True(t, math.IsNaN(section.Grid[1][0]))
}

func TestParseGrid_RejectsEmptyAndNonNumeric(t *testing.T) {
	_, err := ParseGrid(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ParseGrid(strings.NewReader("x,z,resistivity\na,b,c\n"))
	assert.Error(t, err)
}

// ==========================
// Synthetic Section Tests
// ==========================

func TestSyntheticSection(t *testing.T) {
	section := SyntheticSection()

	assert.Equal(t, 80, section.Width())
	assert.Equal(t, 40, section.Height())
	assert.True(t, section.Synthetic)

	// The anomaly peak sits near (0.5, 0.6) and dominates the background
	center := section.Grid[24][40]
	corner := section.Grid[0][0]
	assert.Greater(t, center, corner)
}

// ==========================
// Rendering Tests
// ==========================

func TestRenderSection_ProducesPNG(t *testing.T) {
	data, err := RenderSection(SyntheticSection())

	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestRenderSection_AllNaNFails(t *testing.T) {
	data := "x,z,resistivity\n0,0,10\n"
	section, err := ParseGrid(strings.NewReader(data))
	require.NoError(t, err)

	// Clear the one value to make the grid unrenderable
	section.Grid[0][0] = math.NaN()
	_, err = RenderSection(section)
	assert.Error(t, err)
}

func TestViridis_Endpoints(t *testing.T) {
	low := viridis(0)
	high := viridis(1)

	assert.Equal(t, uint8(68), low.R)
	assert.Equal(t, uint8(253), high.R)

	nan := viridis(math.NaN())
	assert.Equal(t, uint8(0), nan.A)
}

// ==========================
// Contour Report Tests
// ==========================

func testGradientPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 4)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestContourReport_RendersAnnotatedPNG(t *testing.T) {
	data, err := ContourReport(bytes.NewReader(testGradientPNG(t)))

	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
}

func TestContourReport_RejectsGarbage(t *testing.T) {
	_, err := ContourReport(strings.NewReader("not an image"))
	assert.Error(t, err)
}

func TestMarchingSquares_HorizontalGradient(t *testing.T) {
	f := newScalarField(4, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			f.set(x, y, float64(x)/3.0)
		}
	}

	segs := marchingSquares(f, 0.5)

	// A monotone left-to-right gradient crosses 0.5 along one vertical line
	require.NotEmpty(t, segs)
	for _, s := range segs {
		assert.InDelta(t, s.x0, s.x1, 1e-9)
	}
}

// ==========================
// Processor Tests
// ==========================

func TestProcessor_GridCSV(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "survey.csv")
	content := "x,z,resistivity\n0,0,10\n1,0,20\n0,1,30\n1,1,40\n"
	require.NoError(t, os.WriteFile(inPath, []byte(content), 0o644))

	p := NewProcessor(dir)
	artifacts, err := p.Process(inPath)

	require.NoError(t, err)
	assert.FileExists(t, artifacts.ImagePath)
	assert.FileExists(t, artifacts.ModelPath)

	model, err := os.ReadFile(artifacts.ModelPath)
	require.NoError(t, err)
	assert.Contains(t, string(model), "10")
}

func TestProcessor_DatFallsBackToSynthetic(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "survey.dat")
	require.NoError(t, os.WriteFile(inPath, []byte("binary-ish\x00payload"), 0o644))

	p := NewProcessor(dir)
	artifacts, err := p.Process(inPath)

	require.NoError(t, err)
	assert.FileExists(t, artifacts.ImagePath)
}

func TestProcessor_ContourReportFile(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "display.png")
	require.NoError(t, os.WriteFile(inPath, testGradientPNG(t), 0o644))

	p := NewProcessor(dir)
	outPath, err := p.ContourReportFile(inPath)

	require.NoError(t, err)
	assert.FileExists(t, outPath)
}
