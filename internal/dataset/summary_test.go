// internal/dataset/summary_test.go
package dataset

import (
	"math"
	"testing"

	"borehole-analytics/internal/models"

	"github.com/stretchr/testify/assert"
)

func demoSummary() models.SummaryMetrics {
	return Summarize(models.DemoDataset())
}

func TestSummarize_DemoDataset(t *testing.T) {
	summary := demoSummary()

	assert.Equal(t, 6, summary.TotalBoreholes)
	assert.InDelta(t, 3.72, summary.AvgYieldLps, 0.01)
	assert.InDelta(t, 5499.67, summary.AvgCostUSD, 0.01)
	assert.InDelta(t, 6.0*5499.67*0.25, summary.ProjectedSavings, 0.5)
	assert.Empty(t, summary.MissingColumns)
}

func TestSummarize_SkipsNaNValues(t *testing.T) {
	ds := &models.Dataset{
		Columns: []string{models.ColYield, models.ColCost, models.ColDepth},
		Records: []models.BoreholeRecord{
			{YieldLps: 4.0, CostUSD: 1000},
			{YieldLps: math.NaN(), CostUSD: 3000},
			{YieldLps: 2.0, CostUSD: math.NaN()},
		},
	}

	summary := Summarize(ds)

	assert.Equal(t, 3, summary.TotalBoreholes)
	assert.InDelta(t, 3.0, summary.AvgYieldLps, 1e-9)
	assert.InDelta(t, 2000.0, summary.AvgCostUSD, 1e-9)
}

func TestSummarize_MissingColumnsReported(t *testing.T) {
	ds := &models.Dataset{
		Columns: []string{models.ColDistrict},
		Records: []models.BoreholeRecord{
			{District: "Amathole", YieldLps: math.NaN(), CostUSD: math.NaN(), DepthM: math.NaN()},
		},
	}

	summary := Summarize(ds)

	assert.ElementsMatch(t, []string{models.ColYield, models.ColCost, models.ColDepth}, summary.MissingColumns)
	assert.Equal(t, 0.0, summary.AvgYieldLps)
	assert.Equal(t, 0.0, summary.AvgCostUSD)

	alert := MissingColumnsAlert(summary)
	assert.Contains(t, alert, "Missing required fields")
	assert.Contains(t, alert, models.ColYield)
}

func TestSummarize_EmptyDataset(t *testing.T) {
	ds := &models.Dataset{Columns: []string{models.ColYield, models.ColCost, models.ColDepth}}

	summary := Summarize(ds)

	assert.Equal(t, 0, summary.TotalBoreholes)
	assert.Equal(t, 0.0, summary.AvgYieldLps)
	assert.Equal(t, 0.0, summary.ProjectedSavings)
}

func TestMissingColumnsAlert_EmptyWhenComplete(t *testing.T) {
	assert.Equal(t, "", MissingColumnsAlert(demoSummary()))
}
