// internal/insight/service.go
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"borehole-analytics/internal/common/config"
	"borehole-analytics/internal/common/errors"
	"borehole-analytics/internal/common/logger"
	"borehole-analytics/internal/common/metrics"
	"borehole-analytics/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// reportSchema pins the JSON contract the model is instructed to follow.
var reportSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"interpretation_summary"},
	"properties": map[string]interface{}{
		"interpretation_summary": map[string]interface{}{"type": "string"},
		"goldilocks_sites": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"trouble_sites": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"recommendations": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
	},
}

// Service generates hydrogeological interpretations of a dataset. Responses
// are cached by dataset fingerprint so identical uploads reuse prior calls.
type Service struct {
	config    *config.InsightConfig
	generator Generator
	cache     Cache
	logger    logger.Logger
}

// NewService wires a generator and cache into an insight service. A nil
// generator marks the service as unconfigured; requests then fail with
// INSIGHT_NOT_CONFIGURED rather than a transport error.
func NewService(cfg *config.InsightConfig, gen Generator, cache Cache, log logger.Logger) *Service {
	if cache == nil {
		cache = NoOpCache{}
	}
	return &Service{
		config:    cfg,
		generator: gen,
		cache:     cache,
		logger:    log.WithFields(map[string]interface{}{"component": "insight"}),
	}
}

// Configured reports whether a model backend is available.
func (s *Service) Configured() bool {
	return s.generator != nil
}

// Generate produces an insight report for the prompt input. The model text
// is parsed as JSON when possible; otherwise the raw text is passed through.
func (s *Service) Generate(ctx context.Context, in *PromptInput) (*models.InsightReport, error) {
	if !s.Configured() {
		metrics.InsightRequests.WithLabelValues("unconfigured").Inc()
		return nil, errors.NewInsightNotConfiguredError()
	}

	fingerprint := ""
	if in.Dataset != nil {
		fingerprint = in.Dataset.Fingerprint
	}

	if fingerprint != "" {
		if report, ok, err := s.cache.Get(ctx, fingerprint); err != nil {
			s.logger.WithError(err).Warn("insight cache lookup failed", nil)
		} else if ok {
			metrics.InsightCacheHits.WithLabelValues("hit").Inc()
			return report, nil
		}
		metrics.InsightCacheHits.WithLabelValues("miss").Inc()
	}

	ctx, cancel := context.WithTimeout(ctx, config.GetDuration(s.config.Timeout))
	defer cancel()

	start := time.Now()
	text, err := s.generateWithRetry(ctx, BuildPrompt(in))
	metrics.InsightDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			metrics.InsightRequests.WithLabelValues("timeout").Inc()
			return nil, errors.NewInsightTimeoutError()
		}
		metrics.InsightRequests.WithLabelValues("failed").Inc()
		return nil, errors.NewInsightCallFailedError(err)
	}

	report := s.parseResponse(text)
	report.GeneratedAt = time.Now().UTC()
	metrics.InsightRequests.WithLabelValues("success").Inc()

	if fingerprint != "" {
		if err := s.cache.Set(ctx, fingerprint, report); err != nil {
			s.logger.WithError(err).Warn("insight cache store failed", nil)
		}
	}

	s.logger.Info("insight generated", map[string]interface{}{
		"structured":  report.IsStructured(),
		"fingerprint": fingerprint,
	})
	return report, nil
}

func (s *Service) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, err := s.generator.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		s.logger.WithError(err).Warn("insight attempt failed", map[string]interface{}{
			"attempt": attempt,
		})
	}
	return "", lastErr
}

// parseResponse turns model text into a report. Valid JSON matching the
// contract becomes a structured report; anything else rides in RawText.
func (s *Service) parseResponse(text string) *models.InsightReport {
	candidate := stripCodeFence(text)

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return &models.InsightReport{RawText: text}
	}

	if err := validateReport(payload); err != nil {
		s.logger.WithError(err).Warn("insight response failed schema check", nil)
		return &models.InsightReport{RawText: text}
	}

	var report models.InsightReport
	if err := json.Unmarshal([]byte(candidate), &report); err != nil {
		return &models.InsightReport{RawText: text}
	}
	return &report
}

func validateReport(payload map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(reportSchema)
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("report validation failed: %v", errs)
	}
	return nil
}

// stripCodeFence removes a surrounding markdown fence that some models wrap
// around JSON output.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
