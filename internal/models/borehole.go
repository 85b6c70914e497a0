// internal/models/borehole.go
package models

import (
	"math"
	"time"
)

// Canonical column keys after header normalization.
const (
	ColDistrict         = "district"
	ColBoreholeType     = "borehole_type"
	ColDepth            = "depth_m"
	ColStaticWL         = "static_wl_m_bgl"
	ColDynamicWL        = "dynamic_wl_m_bgl"
	ColYield            = "yield_lps"
	ColDrawdown         = "drawdown_m"
	ColSpecificCapacity = "specific_capacity_lps_per_m"
	ColCost             = "cost_usd"
	ColCostPerMeter     = "cost_per_m_usd"
)

// RequiredColumns are the fields the dashboard metrics depend on. Missing
// ones are reported as alerts and treated as all-NaN, never as a failure.
var RequiredColumns = []string{ColYield, ColCost, ColDepth}

// BoreholeRecord is one row of a cleaned drilling dataset. Numeric fields
// use NaN for missing or unparseable values.
type BoreholeRecord struct {
	District         string  `json:"district"`
	BoreholeType     string  `json:"boreholeType"`
	DepthM           float64 `json:"depthM"`
	StaticWLM        float64 `json:"staticWlM"`
	DynamicWLM       float64 `json:"dynamicWlM"`
	YieldLps         float64 `json:"yieldLps"`
	DrawdownM        float64 `json:"drawdownM"`
	SpecificCapacity float64 `json:"specificCapacityLpsPerM"`
	CostUSD          float64 `json:"costUsd"`
	CostPerMeterUSD  float64 `json:"costPerMeterUsd"`

	// Extra keeps columns outside the canonical schema for hover display.
	Extra map[string]string `json:"extra,omitempty"`
}

// Dataset is the cleaned, in-memory table the dashboard renders from. It
// lives for the lifetime of the instance only.
type Dataset struct {
	Records     []BoreholeRecord `json:"records"`
	Columns     []string         `json:"columns"`
	SourceFile  string           `json:"sourceFile"`
	Fingerprint string           `json:"fingerprint"`
	Alerts      []string         `json:"alerts,omitempty"`
	LoadedAt    time.Time        `json:"loadedAt"`
}

// SummaryMetrics are the headline numbers on the dashboard. NaN means are
// reported as zero so the values survive JSON encoding.
type SummaryMetrics struct {
	TotalBoreholes   int      `json:"totalBoreholes"`
	AvgYieldLps      float64  `json:"avgYieldLps"`
	AvgCostUSD       float64  `json:"avgCostUsd"`
	ProjectedSavings float64  `json:"projectedSavingsUsd"`
	MissingColumns   []string `json:"missingColumns,omitempty"`
}

// HasColumn reports whether the dataset carried the given canonical column.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// DemoDataset returns the built-in demo table shown before any upload.
func DemoDataset() *Dataset {
	districts := []string{"Amathole", "BCM", "Chris Hani", "Amathole", "BCM", "Chris Hani"}
	types := []string{"Production", "Production", "Production", "Domestic", "Domestic", "Domestic"}
	depths := []float64{120, 110, 125, 60, 55, 65}
	yields := []float64{5.2, 4.8, 6.1, 1.8, 2.1, 2.3}
	costs := []float64{7285, 7200, 7350, 3723, 3700, 3740}

	records := make([]BoreholeRecord, len(districts))
	for i := range districts {
		records[i] = BoreholeRecord{
			District:         districts[i],
			BoreholeType:     types[i],
			DepthM:           depths[i],
			StaticWLM:        math.NaN(),
			DynamicWLM:       math.NaN(),
			YieldLps:         yields[i],
			DrawdownM:        math.NaN(),
			SpecificCapacity: math.NaN(),
			CostUSD:          costs[i],
			CostPerMeterUSD:  costs[i] / depths[i],
		}
	}

	return &Dataset{
		Records:    records,
		Columns:    []string{ColDistrict, ColBoreholeType, ColDepth, ColYield, ColCost, ColCostPerMeter},
		SourceFile: "demo",
		LoadedAt:   time.Now().UTC(),
	}
}
