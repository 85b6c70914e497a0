// internal/server/state.go
package server

import (
	"sync"

	"borehole-analytics/internal/models"
)

// State holds the per-instance dashboard state. Each instance starts from
// the demo dataset and keeps only its own uploads, matching the stateless
// container contract.
type State struct {
	mu sync.RWMutex

	dataset     *models.Dataset
	ertImage    string // processed pseudo-section PNG
	ertModelCSV string
	ertUpload   string // raw display image as uploaded
	contour     string // annotated contour report PNG
	insight     *models.InsightReport
}

// NewState seeds the state with the built-in demo dataset.
func NewState() *State {
	return &State{dataset: models.DemoDataset()}
}

// Dataset returns the current dataset.
func (s *State) Dataset() *models.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// SetDataset replaces the current dataset and clears any stale insight.
func (s *State) SetDataset(ds *models.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = ds
	s.insight = nil
}

// SetERTArtifacts records the processed section image and model CSV paths.
func (s *State) SetERTArtifacts(imagePath, modelPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ertImage = imagePath
	s.ertModelCSV = modelPath
}

// SetERTUpload records the raw display image and its contour report.
func (s *State) SetERTUpload(imagePath, contourPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ertUpload = imagePath
	s.contour = contourPath
}

// ERTPaths returns the stored artifact paths. Empty strings mean absent.
func (s *State) ERTPaths() (image, modelCSV, upload, contour string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ertImage, s.ertModelCSV, s.ertUpload, s.contour
}

// Insight returns the latest generated report, or nil.
func (s *State) Insight() *models.InsightReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.insight
}

// SetInsight stores a generated report for dashboard display.
func (s *State) SetInsight(report *models.InsightReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insight = report
}
