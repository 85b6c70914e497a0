// internal/server/handlers.go
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"borehole-analytics/internal/charts"
	"borehole-analytics/internal/common/config"
	apperrors "borehole-analytics/internal/common/errors"
	"borehole-analytics/internal/common/logger"
	"borehole-analytics/internal/common/metrics"
	"borehole-analytics/internal/common/observability"
	"borehole-analytics/internal/dataset"
	"borehole-analytics/internal/ert"
	"borehole-analytics/internal/insight"
	"borehole-analytics/internal/models"
	"borehole-analytics/internal/registry"
)

// multipartMemory caps the in-memory portion of a multipart parse.
const multipartMemory = 10 << 20

// Server holds the HTTP handlers and their dependencies. The registry
// store is optional; a nil store disables upload auditing.
type Server struct {
	cfg      *config.Config
	logger   logger.Logger
	errors   *apperrors.ErrorHandler
	state    *State
	insights *insight.Service
	registry *registry.Store
	ert      *ert.Processor
	obs      *observability.Observability
}

// NewServer wires the handler dependencies. obs may be nil to disable the
// request meters.
func NewServer(cfg *config.Config, log logger.Logger, insights *insight.Service, store *registry.Store, obs *observability.Observability) *Server {
	return &Server{
		cfg:      cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "server"}),
		errors:   apperrors.NewErrorHandler(log),
		state:    NewState(),
		insights: insights,
		registry: store,
		ert:      ert.NewProcessor(cfg.Uploads.Dir),
		obs:      obs,
	}
}

// State exposes the dashboard state, used by tests and the main wiring.
func (s *Server) State() *State {
	return s.state
}

// ==========================
// Dashboard
// ==========================

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, r, nil)
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, alerts []string) {
	start := time.Now()
	defer func() {
		metrics.DashboardRenderDuration.Observe(time.Since(start).Seconds())
	}()

	ds := s.state.Dataset()
	summary := dataset.Summarize(ds)
	if alert := dataset.MissingColumnsAlert(summary); alert != "" {
		alerts = append(alerts, alert)
	}
	alerts = append(alerts, ds.Alerts...)

	ertImage, ertModel, ertUpload, contour := s.state.ERTPaths()
	data := dashboardData{
		Summary:      summary,
		Alerts:       alerts,
		Fingerprint:  ds.Fingerprint,
		ERTImageURL:  uploadURL(ertImage),
		ERTModelURL:  uploadURL(ertModel),
		ERTUploadURL: uploadURL(ertUpload),
		ContourURL:   uploadURL(contour),
		Insight:      s.state.Insight(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, data); err != nil {
		s.logger.WithError(err).Error("dashboard render failed", nil)
	}
}

// uploadURL maps a stored file path onto its public /uploads URL.
func uploadURL(path string) string {
	if path == "" {
		return ""
	}
	return "/uploads/" + filepath.Base(path)
}

// ==========================
// Uploads
// ==========================

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
			metrics.UploadFailures.WithLabelValues("csv", string(apperrors.ErrCodeUploadTooLarge)).Inc()
		}
		http.Error(w, err.Error(), status)
		return
	}

	var alerts []string
	alerts = append(alerts, s.ingestCSV(r)...)
	alerts = append(alerts, s.ingestERTData(r)...)
	alerts = append(alerts, s.ingestERTImage(r)...)

	s.renderDashboard(w, r, alerts)
}

// ingestCSV handles the borehole CSV field. Parse errors become alerts so
// the dashboard keeps serving the previous dataset.
func (s *Server) ingestCSV(r *http.Request) []string {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		metrics.UploadFailures.WithLabelValues("csv", string(apperrors.ErrCodeUnsupportedFileType)).Inc()
		return []string{fmt.Sprintf("Ignored non-CSV upload: %s", name)}
	}

	path, err := s.saveUpload(name, file)
	if err != nil {
		s.logger.WithError(err).Error("upload store failed", map[string]interface{}{"filename": name})
		metrics.UploadFailures.WithLabelValues("csv", string(apperrors.ErrCodeUploadStoreFailed)).Inc()
		return []string{fmt.Sprintf("CSV error: %v", err)}
	}

	f, err := os.Open(path)
	if err != nil {
		return []string{fmt.Sprintf("CSV error: %v", err)}
	}
	defer f.Close()

	ds, err := dataset.Parse(f, name)
	if err != nil {
		metrics.UploadFailures.WithLabelValues("csv", string(apperrors.ErrCodeCSVParseFailed)).Inc()
		return []string{fmt.Sprintf("CSV error: %v", err)}
	}

	s.state.SetDataset(ds)
	metrics.UploadsProcessed.WithLabelValues("csv").Inc()
	metrics.DatasetRecords.Set(float64(len(ds.Records)))
	s.recordUpload(r, ds)

	return []string{fmt.Sprintf("Loaded and processed %d records from %s", len(ds.Records), name)}
}

// recordUpload audits the ingest in the registry. Failures degrade to a
// warning; the upload itself already succeeded.
func (s *Server) recordUpload(r *http.Request, ds *models.Dataset) {
	if s.registry == nil {
		return
	}

	summary := dataset.Summarize(ds)
	rec := &models.UploadRecord{
		Filename:    ds.SourceFile,
		RecordCount: len(ds.Records),
		AvgYieldLps: summary.AvgYieldLps,
		AvgCostUSD:  summary.AvgCostUSD,
		Fingerprint: ds.Fingerprint,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.registry.Record(r.Context(), rec); err != nil {
		s.logger.WithError(err).Warn("registry insert failed", map[string]interface{}{
			"filename": ds.SourceFile,
		})
	}
}

func (s *Server) ingestERTData(r *http.Request) []string {
	file, header, err := r.FormFile("ert_data")
	if err != nil {
		return nil
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	path, err := s.saveUpload(name, file)
	if err != nil {
		s.logger.WithError(err).Error("ert upload store failed", map[string]interface{}{"filename": name})
		return []string{"ERT processing failed."}
	}

	start := time.Now()
	artifacts, err := s.ert.Process(path)
	metrics.ERTProcessingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UploadFailures.WithLabelValues("ert", string(apperrors.ErrCodeERTProcessingFailed)).Inc()
		return []string{"ERT processing failed."}
	}

	s.state.SetERTArtifacts(artifacts.ImagePath, artifacts.ModelPath)
	metrics.UploadsProcessed.WithLabelValues("ert").Inc()
	return []string{fmt.Sprintf("ERT data processed: %s", name)}
}

func (s *Server) ingestERTImage(r *http.Request) []string {
	file, header, err := r.FormFile("ert_image")
	if err != nil {
		return nil
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	path, err := s.saveUpload(name, file)
	if err != nil {
		s.logger.WithError(err).Error("image upload store failed", map[string]interface{}{"filename": name})
		return []string{"ERT image upload failed."}
	}

	contour := ""
	if reportPath, err := s.ert.ContourReportFile(path); err != nil {
		s.logger.WithError(err).Warn("contour report failed", map[string]interface{}{"filename": name})
		metrics.UploadFailures.WithLabelValues("image", string(apperrors.ErrCodeImageDecodeFailed)).Inc()
	} else {
		contour = reportPath
	}

	s.state.SetERTUpload(path, contour)
	metrics.UploadsProcessed.WithLabelValues("image").Inc()
	return []string{fmt.Sprintf("ERT-I image uploaded: %s", name)}
}

// saveUpload writes an uploaded file into the instance upload directory.
func (s *Server) saveUpload(name string, src io.Reader) (string, error) {
	if err := os.MkdirAll(s.cfg.Uploads.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(s.cfg.Uploads.Dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}

// ==========================
// Static uploads
// ==========================

func (s *Server) handleServeUpload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(s.cfg.Uploads.Dir, name)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

// ==========================
// Charts
// ==========================

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	png, err := charts.RenderYieldVsCost(s.state.Dataset(), charts.Options{
		Width:  s.cfg.Charts.Width,
		Height: s.cfg.Charts.Height,
	})
	metrics.ChartRenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.errors.HandleHTTPError(w, r, apperrors.NewChartRenderFailedError(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// ==========================
// Insights
// ==========================

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	ds := s.state.Dataset()
	summary := dataset.Summarize(ds)

	_, ertModel, _, contour := s.state.ERTPaths()
	report, err := s.insights.Generate(r.Context(), &insight.PromptInput{
		MetadataRef: uploadURL(ertModel),
		ReportRef:   uploadURL(contour),
		Dataset:     ds,
		Summary:     &summary,
	})
	if err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}

	s.state.SetInsight(report)

	// Browser form submits go back to the dashboard; API callers get JSON.
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// ==========================
// Health
// ==========================

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": s.cfg.App.Name,
		"version": s.cfg.App.Version,
	})
}

// ==========================
// Upload history
// ==========================

func (s *Server) handleRecentUploads(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		http.Error(w, `{"error":"registry disabled"}`, http.StatusNotFound)
		return
	}

	uploads, err := s.registry.Recent(r.Context(), 20)
	if err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(uploads)
}
