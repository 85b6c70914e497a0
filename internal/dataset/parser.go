// internal/dataset/parser.go
package dataset

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"borehole-analytics/internal/models"
)

var numericToken = regexp.MustCompile(`[\d.]+`)

// numericColumns are coerced to float64 during cleaning. Everything else
// stays textual.
var numericColumns = map[string]bool{
	models.ColDepth:            true,
	models.ColStaticWL:         true,
	models.ColDynamicWL:        true,
	models.ColYield:            true,
	models.ColDrawdown:         true,
	models.ColSpecificCapacity: true,
	models.ColCost:             true,
}

// Parse reads a borehole survey CSV, cleans it, and computes derived
// fields. Field delimiters may be ';' or ','; headers are matched
// case-insensitively with spaces collapsed to underscores.
func Parse(r io.Reader, filename string) (*models.Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	rows, err := readRows(raw)
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("no header row")
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = NormalizeHeader(h)
	}

	records := make([]models.BoreholeRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, buildRecord(headers, row))
	}

	deriveFields(records, headers)

	columns := presentColumns(headers)
	ds := &models.Dataset{
		Records:    records,
		Columns:    columns,
		SourceFile: filename,
		LoadedAt:   time.Now().UTC(),
	}
	ds.Fingerprint = Fingerprint(ds)
	return ds, nil
}

// readRows parses the CSV with the detected delimiter, falling back to
// comma when the semicolon parse yields a single column.
func readRows(raw []byte) ([][]string, error) {
	sep := detectDelimiter(raw)

	rows, err := parseWith(raw, sep)
	if err == nil && sep == ';' && len(rows) > 0 && len(rows[0]) == 1 {
		// Semicolon guess was wrong, retry with comma
		rows, err = parseWith(raw, ',')
	}
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

func parseWith(raw []byte, sep rune) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

// detectDelimiter inspects the header line. Semicolon-delimited exports
// are common in the source surveys, so it wins when present.
func detectDelimiter(raw []byte) rune {
	line := string(raw)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	if strings.Contains(line, ";") {
		return ';'
	}
	return ','
}

// NormalizeHeader converts a raw CSV header into its canonical column key.
func NormalizeHeader(h string) string {
	h = strings.TrimSpace(h)
	h = strings.ReplaceAll(h, " ", "_")
	return strings.ToLower(h)
}

func buildRecord(headers []string, row []string) models.BoreholeRecord {
	rec := models.BoreholeRecord{
		DepthM:           math.NaN(),
		StaticWLM:        math.NaN(),
		DynamicWLM:       math.NaN(),
		YieldLps:         math.NaN(),
		DrawdownM:        math.NaN(),
		SpecificCapacity: math.NaN(),
		CostUSD:          math.NaN(),
		CostPerMeterUSD:  math.NaN(),
	}

	for i, col := range headers {
		if i >= len(row) {
			break
		}
		val := strings.TrimSpace(row[i])

		switch col {
		case models.ColDistrict:
			rec.District = val
		case models.ColBoreholeType:
			rec.BoreholeType = val
		case models.ColDepth:
			rec.DepthM = ParseNumeric(val)
		case models.ColStaticWL:
			rec.StaticWLM = ParseNumeric(val)
		case models.ColDynamicWL:
			rec.DynamicWLM = ParseNumeric(val)
		case models.ColYield:
			rec.YieldLps = ParseNumeric(val)
		case models.ColDrawdown:
			rec.DrawdownM = ParseNumeric(val)
		case models.ColSpecificCapacity:
			rec.SpecificCapacity = ParseNumeric(val)
		case models.ColCost:
			rec.CostUSD = ParseNumeric(val)
		default:
			if val != "" {
				if rec.Extra == nil {
					rec.Extra = make(map[string]string)
				}
				rec.Extra[col] = val
			}
		}
	}

	return rec
}

// ParseNumeric coerces a messy survey cell into a float64. Decimal commas
// become dots and the first numeric token is extracted, so "7,5 L/s"
// yields 7.5. Unparseable cells yield NaN.
func ParseNumeric(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	s = strings.ReplaceAll(s, ",", ".")

	token := numericToken.FindString(s)
	if token == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.Trim(token, "."), 64)
	if err != nil {
		return math.NaN()
	}
	if strings.HasPrefix(strings.TrimLeft(s, " "), "-") {
		v = -v
	}
	return v
}

// deriveFields fills drawdown, specific capacity, and cost per meter
// where the survey left them out.
func deriveFields(records []models.BoreholeRecord, headers []string) {
	hasStatic := containsHeader(headers, models.ColStaticWL)
	hasDynamic := containsHeader(headers, models.ColDynamicWL)
	hasDepth := containsHeader(headers, models.ColDepth)
	hasCost := containsHeader(headers, models.ColCost)

	for i := range records {
		rec := &records[i]

		// Drawdown from water levels when missing
		if math.IsNaN(rec.DrawdownM) && hasStatic && hasDynamic {
			rec.DrawdownM = rec.DynamicWLM - rec.StaticWLM
		}
		if rec.DrawdownM < 0 {
			rec.DrawdownM = math.NaN()
		}

		// Specific capacity from yield and drawdown; zero drawdown is
		// physically meaningless here, so it stays NaN
		if math.IsNaN(rec.SpecificCapacity) && !math.IsNaN(rec.YieldLps) && !math.IsNaN(rec.DrawdownM) && rec.DrawdownM != 0 {
			rec.SpecificCapacity = rec.YieldLps / rec.DrawdownM
		}
		if rec.SpecificCapacity < 0 {
			rec.SpecificCapacity = math.NaN()
		}

		// Cost per meter
		if hasDepth && hasCost && !math.IsNaN(rec.CostUSD) && !math.IsNaN(rec.DepthM) && rec.DepthM != 0 {
			rec.CostPerMeterUSD = rec.CostUSD / rec.DepthM
		}
	}
}

func containsHeader(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}

// presentColumns returns the canonical column list, appending derived
// columns the cleaner may have filled.
func presentColumns(headers []string) []string {
	seen := make(map[string]bool, len(headers))
	out := make([]string, 0, len(headers)+2)
	for _, h := range headers {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	for _, derived := range []string{models.ColDrawdown, models.ColSpecificCapacity, models.ColCostPerMeter} {
		if !seen[derived] {
			out = append(out, derived)
		}
	}
	return out
}

// Fingerprint hashes the cleaned records. Identical uploads map to the
// same value, which keys the insight cache and the upload registry.
func Fingerprint(ds *models.Dataset) string {
	h := sha256.New()
	for _, rec := range ds.Records {
		fmt.Fprintf(h, "%s|%s|%g|%g|%g|%g|%g\n",
			rec.District, rec.BoreholeType, rec.DepthM, rec.YieldLps,
			rec.CostUSD, rec.DrawdownM, rec.SpecificCapacity)
	}
	return hex.EncodeToString(h.Sum(nil))
}
