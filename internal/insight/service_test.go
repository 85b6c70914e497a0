// internal/insight/service_test.go
package insight

import (
	"context"
	"fmt"
	"testing"
	"time"

	"borehole-analytics/internal/common/config"
	"borehole-analytics/internal/common/database"
	apperrors "borehole-analytics/internal/common/errors"
	"borehole-analytics/internal/common/logger"
	"borehole-analytics/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

type fakeGenerator struct {
	responses []string
	errs      []error
	calls     int
	block     bool
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	idx := f.calls
	f.calls++
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", fmt.Errorf("no scripted response for call %d", idx)
}

func testConfig() *config.InsightConfig {
	return &config.InsightConfig{
		Model:       "gemini-2.0-flash",
		Timeout:     2000,
		MaxRetries:  2,
		Temperature: 0.2,
	}
}

func testService(t *testing.T, gen Generator, cache Cache) *Service {
	t.Helper()
	return NewService(testConfig(), gen, cache, logger.NewTestLogger(t))
}

func testPromptInput() *PromptInput {
	ds := models.DemoDataset()
	ds.Fingerprint = "abc123"
	return &PromptInput{
		Dataset: ds,
		Summary: &models.SummaryMetrics{TotalBoreholes: 6, AvgYieldLps: 3.72},
	}
}

const structuredResponse = `{
  "interpretation_summary": "Moderate yields with localized high-transmissivity zones.",
  "goldilocks_sites": ["BCM-2"],
  "trouble_sites": ["Amathole-1"],
  "recommendations": ["Prioritize drilling near BCM-2"]
}`

// ==========================
// Generation Tests
// ==========================

func TestGenerate_StructuredResponse(t *testing.T) {
	gen := &fakeGenerator{responses: []string{structuredResponse}}
	svc := testService(t, gen, nil)

	report, err := svc.Generate(context.Background(), testPromptInput())

	require.NoError(t, err)
	assert.True(t, report.IsStructured())
	assert.Equal(t, "Moderate yields with localized high-transmissivity zones.", report.InterpretationSummary)
	assert.Equal(t, []string{"BCM-2"}, report.GoldilocksSites)
	assert.Equal(t, []string{"Amathole-1"}, report.TroubleSites)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestGenerate_FencedJSONResponse(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"```json\n" + structuredResponse + "\n```"}}
	svc := testService(t, gen, nil)

	report, err := svc.Generate(context.Background(), testPromptInput())

	require.NoError(t, err)
	assert.True(t, report.IsStructured())
	assert.Equal(t, []string{"Prioritize drilling near BCM-2"}, report.Recommendations)
}

func TestGenerate_PlainTextFallsBackToRaw(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"The aquifer looks promising overall."}}
	svc := testService(t, gen, nil)

	report, err := svc.Generate(context.Background(), testPromptInput())

	require.NoError(t, err)
	assert.False(t, report.IsStructured())
	assert.Equal(t, "The aquifer looks promising overall.", report.RawText)
}

func TestGenerate_SchemaViolationFallsBackToRaw(t *testing.T) {
	// interpretation_summary must be a string per the contract
	gen := &fakeGenerator{responses: []string{`{"interpretation_summary": 42}`}}
	svc := testService(t, gen, nil)

	report, err := svc.Generate(context.Background(), testPromptInput())

	require.NoError(t, err)
	assert.False(t, report.IsStructured())
	assert.Contains(t, report.RawText, "42")
}

func TestGenerate_RetriesThenSucceeds(t *testing.T) {
	gen := &fakeGenerator{
		errs:      []error{fmt.Errorf("transient 503"), nil},
		responses: []string{"", structuredResponse},
	}
	svc := testService(t, gen, nil)

	report, err := svc.Generate(context.Background(), testPromptInput())

	require.NoError(t, err)
	assert.True(t, report.IsStructured())
	assert.Equal(t, 2, gen.calls)
}

func TestGenerate_AllAttemptsFail(t *testing.T) {
	gen := &fakeGenerator{errs: []error{
		fmt.Errorf("boom"), fmt.Errorf("boom"), fmt.Errorf("boom"),
	}}
	svc := testService(t, gen, nil)

	_, err := svc.Generate(context.Background(), testPromptInput())

	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInsightCallFailed, stdErr.Code)
	assert.Equal(t, 3, gen.calls)
}

func TestGenerate_Timeout(t *testing.T) {
	gen := &fakeGenerator{block: true}
	svc := NewService(&config.InsightConfig{Timeout: 50, MaxRetries: 0}, gen, nil, logger.NewTestLogger(t))

	_, err := svc.Generate(context.Background(), testPromptInput())

	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInsightTimeout, stdErr.Code)
}

func TestGenerate_NotConfigured(t *testing.T) {
	svc := testService(t, nil, nil)

	_, err := svc.Generate(context.Background(), testPromptInput())

	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInsightNotConfigured, stdErr.Code)
}

// ==========================
// Cache Tests
// ==========================

func testRedisCache(t *testing.T, ttl time.Duration) *RedisCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, ttl)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	cache := testRedisCache(t, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	report := &models.InsightReport{InterpretationSummary: "stable aquifer"}
	require.NoError(t, cache.Set(ctx, "fp1", report))

	got, ok, err := cache.Get(ctx, "fp1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Cached)
	assert.Equal(t, "stable aquifer", got.InterpretationSummary)
}

func TestGenerate_SecondCallServedFromCache(t *testing.T) {
	gen := &fakeGenerator{responses: []string{structuredResponse}}
	svc := testService(t, gen, testRedisCache(t, time.Minute))
	in := testPromptInput()

	first, err := svc.Generate(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Generate(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, gen.calls)
}

// ==========================
// Prompt Tests
// ==========================

func TestBuildPrompt_IncludesContractAndSummary(t *testing.T) {
	prompt := BuildPrompt(testPromptInput())

	assert.Contains(t, prompt, "interpretation_summary")
	assert.Contains(t, prompt, "goldilocks_sites")
	assert.Contains(t, prompt, "trouble_sites")
	assert.Contains(t, prompt, "recommendations")
	assert.Contains(t, prompt, "Dataset summary (JSON)")
	assert.Contains(t, prompt, "6 boreholes")
}

func TestBuildPrompt_ArtifactRefsOptional(t *testing.T) {
	with := BuildPrompt(&PromptInput{MetadataRef: "/uploads/meta.json", ReportRef: "/uploads/report.png"})
	assert.Contains(t, with, "/uploads/meta.json")
	assert.Contains(t, with, "/uploads/report.png")

	without := BuildPrompt(&PromptInput{})
	assert.NotContains(t, without, "Input metadata file")
	assert.NotContains(t, without, "Input contour report")
}
