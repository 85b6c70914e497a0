// internal/deploy/pipeline_test.go
package deploy

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"borehole-analytics/internal/common/config"
	apperrors "borehole-analytics/internal/common/errors"
	"borehole-analytics/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeRunner struct {
	commands []string
	failOn   string // substring of the command that should fail
	urlOut   string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := name + " " + strings.Join(args, " ")
	f.commands = append(f.commands, cmd)

	if f.failOn != "" && strings.Contains(cmd, f.failOn) {
		return "simulated failure output", fmt.Errorf("exit status 1")
	}
	if strings.Contains(cmd, "services describe") {
		return f.urlOut, nil
	}
	return "ok", nil
}

func testDeployConfig() config.DeployConfig {
	return config.DeployConfig{
		Project:  "bh-ea-project",
		Region:   "africa-south1",
		Service:  "bh-ea-dashboard",
		Registry: "gcr.io",
	}
}

func createTestPipeline(t *testing.T, runner *fakeRunner) *Pipeline {
	t.Helper()
	return NewPipeline(testDeployConfig(), runner, logger.NewTestLogger(t))
}

// ==========================
// Pipeline Tests
// ==========================

func TestPipeline_AllStepsSucceed(t *testing.T) {
	runner := &fakeRunner{urlOut: "https://bh-ea-dashboard-xyz.a.run.app\n"}
	p := createTestPipeline(t, runner)

	url, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "https://bh-ea-dashboard-xyz.a.run.app", url)

	// source sync, build, deploy, then the URL lookup, in order
	require.Len(t, runner.commands, 4)
	assert.Contains(t, runner.commands[0], "git pull")
	assert.Contains(t, runner.commands[1], "builds submit")
	assert.Contains(t, runner.commands[2], "run deploy")
	assert.Contains(t, runner.commands[3], "services describe")
}

func TestPipeline_FailFast(t *testing.T) {
	tests := []struct {
		name         string
		failOn       string
		wantCommands int
		wantMessage  string
	}{
		{
			name:         "source sync failure stops everything",
			failOn:       "git pull",
			wantCommands: 1,
			wantMessage:  "Source sync failed",
		},
		{
			name:         "build failure skips deploy",
			failOn:       "builds submit",
			wantCommands: 2,
			wantMessage:  "Image build failed",
		},
		{
			name:         "deploy failure skips url lookup",
			failOn:       "run deploy",
			wantCommands: 3,
			wantMessage:  "Service deploy failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{failOn: tt.failOn}
			p := createTestPipeline(t, runner)

			_, err := p.Run(context.Background())

			require.Error(t, err)
			stdErr, ok := err.(*apperrors.StandardError)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeDeployStepFailed, stdErr.Code)
			assert.Contains(t, stdErr.Details, tt.wantMessage)
			assert.Len(t, runner.commands, tt.wantCommands, "later steps must not run")
		})
	}
}

func TestPipeline_EmptyServiceURL(t *testing.T) {
	runner := &fakeRunner{urlOut: "  \n"}
	p := createTestPipeline(t, runner)

	_, err := p.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.(*apperrors.StandardError).Details, "empty service URL")
}

func TestPipeline_ProbeFailure(t *testing.T) {
	runner := &fakeRunner{urlOut: "https://svc.example\n"}
	p := createTestPipeline(t, runner)
	p.SetProbe(func(ctx context.Context, url string) error {
		return fmt.Errorf("connection refused")
	})

	_, err := p.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.(*apperrors.StandardError).Details, "not reachable")
}

func TestPipeline_ProbeReceivesResolvedURL(t *testing.T) {
	runner := &fakeRunner{urlOut: "https://svc.example\n"}
	p := createTestPipeline(t, runner)

	var probed string
	p.SetProbe(func(ctx context.Context, url string) error {
		probed = url
		return nil
	})

	url, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, url, probed)
}

func TestPipeline_Image(t *testing.T) {
	p := createTestPipeline(t, &fakeRunner{})
	assert.Equal(t, "gcr.io/bh-ea-project/bh-ea-dashboard", p.Image())
}
