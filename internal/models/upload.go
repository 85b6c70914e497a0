// internal/models/upload.go
package models

import "time"

// UploadRecord is one row of the optional upload registry.
type UploadRecord struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	RecordCount int       `json:"recordCount"`
	AvgYieldLps float64   `json:"avgYieldLps"`
	AvgCostUSD  float64   `json:"avgCostUsd"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"createdAt"`
}
