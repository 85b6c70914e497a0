// internal/ert/section.go
package ert

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"borehole-analytics/internal/models"
)

// ParseGrid reads an x/z/resistivity CSV into a gridded section. Columns
// are matched by header name in any order; headerless files fall back to
// positional x, z, resistivity.
func ParseGrid(r io.Reader) (*models.ERTSection, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse ert csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty ert file")
	}

	xIdx, zIdx, rIdx, hasHeader := resolveColumns(rows[0])

	dataRows := rows
	if hasHeader {
		dataRows = rows[1:]
	}
	if len(dataRows) == 0 {
		return nil, fmt.Errorf("ert file has no data rows")
	}

	samples := make([]sample, 0, len(dataRows))
	for _, row := range dataRows {
		maxIdx := xIdx
		if zIdx > maxIdx {
			maxIdx = zIdx
		}
		if rIdx > maxIdx {
			maxIdx = rIdx
		}
		if len(row) <= maxIdx {
			continue
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(row[xIdx]), 64)
		z, errZ := strconv.ParseFloat(strings.TrimSpace(row[zIdx]), 64)
		res, errR := strconv.ParseFloat(strings.TrimSpace(row[rIdx]), 64)
		if errX != nil || errZ != nil || errR != nil {
			continue
		}
		samples = append(samples, sample{x: x, z: z, r: res})
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no numeric x/z/resistivity rows")
	}

	xs := uniqueSorted(samples, func(s sample) float64 { return s.x })
	zs := uniqueSorted(samples, func(s sample) float64 { return s.z })

	grid := make([][]float64, len(zs))
	for i := range grid {
		grid[i] = make([]float64, len(xs))
		for j := range grid[i] {
			grid[i][j] = math.NaN()
		}
	}

	xIndex := indexOf(xs)
	zIndex := indexOf(zs)
	for _, s := range samples {
		grid[zIndex[s.z]][xIndex[s.x]] = s.r
	}

	return &models.ERTSection{Xs: xs, Zs: zs, Grid: grid}, nil
}

// resolveColumns maps headers to column indexes. Returns hasHeader=false
// when the first row is already numeric.
func resolveColumns(header []string) (xIdx, zIdx, rIdx int, hasHeader bool) {
	xIdx, zIdx, rIdx = 0, 1, 2

	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "x":
			xIdx, hasHeader = i, true
		case "z", "depth":
			zIdx, hasHeader = i, true
		case "resistivity", "rho", "res":
			rIdx, hasHeader = i, true
		default:
			if _, err := strconv.ParseFloat(strings.TrimSpace(h), 64); err != nil {
				hasHeader = true
			}
		}
	}
	return xIdx, zIdx, rIdx, hasHeader
}

type sample struct{ x, z, r float64 }

func uniqueSorted(samples []sample, get func(sample) float64) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, s := range samples {
		v := get(s)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

func indexOf(vals []float64) map[float64]int {
	m := make(map[float64]int, len(vals))
	for i, v := range vals {
		m[v] = i
	}
	return m
}

// SyntheticSection generates a demo resistivity field with a conductive
// anomaly, used when the upload is not a parseable grid.
func SyntheticSection() *models.ERTSection {
	const nx, nz = 80, 40

	xs := make([]float64, nx)
	for i := range xs {
		xs[i] = float64(i) / float64(nx-1)
	}
	zs := make([]float64, nz)
	for i := range zs {
		zs[i] = float64(i) / float64(nz-1)
	}

	grid := make([][]float64, nz)
	for zi, z := range zs {
		grid[zi] = make([]float64, nx)
		for xi, x := range xs {
			grid[zi][xi] = 30 +
				70*math.Exp(-(x-0.5)*(x-0.5)/0.02-(z-0.6)*(z-0.6)/0.03) +
				10*math.Sin(8*x)*math.Exp(-3*z)
		}
	}

	return &models.ERTSection{Xs: xs, Zs: zs, Grid: grid, Synthetic: true}
}

// WriteModelCSV exports the gridded values, one row per depth level.
func WriteModelCSV(w io.Writer, section *models.ERTSection) error {
	writer := csv.NewWriter(w)
	for _, row := range section.Grid {
		cells := make([]string, len(row))
		for i, v := range row {
			if math.IsNaN(v) {
				cells[i] = ""
			} else {
				cells[i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if err := writer.Write(cells); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
