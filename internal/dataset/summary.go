// internal/dataset/summary.go
package dataset

import (
	"fmt"
	"math"
	"strings"

	"borehole-analytics/internal/models"
)

// Summarize computes the dashboard headline metrics. Missing required
// columns are reported in MissingColumns and treated as all-NaN, so the
// dashboard always renders.
func Summarize(ds *models.Dataset) models.SummaryMetrics {
	missing := missingRequired(ds)

	summary := models.SummaryMetrics{
		TotalBoreholes: len(ds.Records),
		MissingColumns: missing,
	}

	summary.AvgYieldLps = round2(meanSkipNaN(ds.Records, func(r models.BoreholeRecord) float64 { return r.YieldLps }))
	summary.AvgCostUSD = round2(meanSkipNaN(ds.Records, func(r models.BoreholeRecord) float64 { return r.CostUSD }))

	// Projected savings assume a 25% optimization factor over current
	// drilling spend.
	summary.ProjectedSavings = round2(float64(summary.TotalBoreholes) * summary.AvgCostUSD * 0.25)

	return summary
}

// MissingColumnsAlert formats the user-facing alert for absent required
// fields, or "" when the dataset is complete.
func MissingColumnsAlert(summary models.SummaryMetrics) string {
	if len(summary.MissingColumns) == 0 {
		return ""
	}
	return fmt.Sprintf("Missing required fields: %s (using defaults)", strings.Join(summary.MissingColumns, ", "))
}

func missingRequired(ds *models.Dataset) []string {
	var missing []string
	for _, col := range models.RequiredColumns {
		if !ds.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// meanSkipNaN averages the non-NaN values; zero when none are usable.
func meanSkipNaN(records []models.BoreholeRecord, get func(models.BoreholeRecord) float64) float64 {
	sum := 0.0
	n := 0
	for _, rec := range records {
		v := get(rec)
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
