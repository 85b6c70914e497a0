// internal/models/insight.go
package models

import "time"

// InsightReport is the structured output of the AI hydrogeologist. When the
// model returns text that is not valid JSON, RawText carries it unparsed.
type InsightReport struct {
	InterpretationSummary string   `json:"interpretation_summary"`
	GoldilocksSites       []string `json:"goldilocks_sites,omitempty"`
	TroubleSites          []string `json:"trouble_sites,omitempty"`
	Recommendations       []string `json:"recommendations,omitempty"`
	RawText               string   `json:"raw_text,omitempty"`

	Cached      bool      `json:"cached,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// IsStructured reports whether the model produced parseable JSON.
func (r *InsightReport) IsStructured() bool {
	return r.RawText == ""
}
