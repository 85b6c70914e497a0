// internal/insight/prompt.go
package insight

import (
	"encoding/json"
	"fmt"
	"strings"

	"borehole-analytics/internal/models"
)

// SystemPrompt frames the model as the BH-EA hydrogeologist interpreter.
const SystemPrompt = "You are an AI hydrogeologist and data interpreter for the Borehole Exploration Analytics (BH-EA) system. " +
	"You receive metadata JSON files and contour images from ERT/pumping analyses. " +
	"Tasks: (1) interpret hydro meaning (yield trends, transmissivity zones, anomalies), " +
	"(2) summarize key metrics (Avg Yield/Cost/Transmissivity/Storage/Efficiency), " +
	"(3) identify Goldilocks and Trouble zones, " +
	"(4) give actionable optimization recommendations. Keep it concise and structured."

// PromptInput carries the artifacts referenced by a generation request.
// Artifact fields are optional; empty values are omitted from the prompt.
type PromptInput struct {
	MetadataRef string
	ReportRef   string
	Dataset     *models.Dataset
	Summary     *models.SummaryMetrics
}

// BuildPrompt assembles the user prompt. The closing instruction pins the
// model to a compact JSON contract so the response stays machine readable.
func BuildPrompt(in *PromptInput) string {
	var parts []string

	if in.MetadataRef != "" {
		parts = append(parts, fmt.Sprintf("Input metadata file:\n%s", in.MetadataRef))
	}
	if in.ReportRef != "" {
		parts = append(parts, fmt.Sprintf("Input contour report:\n%s", in.ReportRef))
	}

	if in.Summary != nil {
		summaryJSON, _ := json.MarshalIndent(in.Summary, "", "  ")
		parts = append(parts, fmt.Sprintf("Dataset summary (JSON):\n%s", summaryJSON))
	}

	if in.Dataset != nil && len(in.Dataset.Records) > 0 {
		parts = append(parts, fmt.Sprintf("Dataset: %d boreholes from %s, columns: %s",
			len(in.Dataset.Records), in.Dataset.SourceFile, strings.Join(in.Dataset.Columns, ", ")))
	}

	parts = append(parts, `Output strictly as compact JSON with these keys:
{
  "interpretation_summary": "string",
  "goldilocks_sites": ["optional list of site labels or indices"],
  "trouble_sites": ["optional list of site labels or indices"],
  "recommendations": ["bullet items"]
}`)

	return strings.Join(parts, "\n\n")
}
