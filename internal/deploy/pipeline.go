// internal/deploy/pipeline.go
package deploy

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"borehole-analytics/internal/common/config"
	"borehole-analytics/internal/common/errors"
	"borehole-analytics/internal/common/logger"
)

// CommandRunner executes an external command and returns its combined
// output. The pipeline talks to this interface so tests can script results.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner shells out with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

// Step is one stage of the deployment sequence.
type Step struct {
	Name    string
	Message string // printed when this step fails
	Command []string
}

// Pipeline runs the deployment steps in order, stopping at the first
// failure. On success the service URL is resolved and probed.
type Pipeline struct {
	cfg    config.DeployConfig
	runner CommandRunner
	logger logger.Logger
	probe  func(ctx context.Context, url string) error
}

// NewPipeline builds the standard three-step pipeline: source sync, image
// build, service deploy.
func NewPipeline(cfg config.DeployConfig, runner CommandRunner, log logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		runner: runner,
		logger: log.WithFields(map[string]interface{}{"component": "deploy"}),
	}
}

// SetProbe overrides the post-deploy reachability check. A nil probe
// disables it.
func (p *Pipeline) SetProbe(probe func(ctx context.Context, url string) error) {
	p.probe = probe
}

// Image returns the fully qualified image tag for this deployment.
func (p *Pipeline) Image() string {
	return fmt.Sprintf("%s/%s/%s", p.cfg.Registry, p.cfg.Project, p.cfg.Service)
}

// Steps returns the ordered deployment steps.
func (p *Pipeline) Steps() []Step {
	image := p.Image()
	return []Step{
		{
			Name:    "source sync",
			Message: "Source sync failed. Fix repository state and retry.",
			Command: []string{"git", "pull", "--ff-only"},
		},
		{
			Name:    "image build",
			Message: "Image build failed. Check Dockerfile and build logs.",
			Command: []string{"gcloud", "builds", "submit", "--tag", image, "--project", p.cfg.Project},
		},
		{
			Name:    "service deploy",
			Message: "Service deploy failed. Check service configuration and quota.",
			Command: []string{
				"gcloud", "run", "deploy", p.cfg.Service,
				"--image", image,
				"--region", p.cfg.Region,
				"--project", p.cfg.Project,
				"--allow-unauthenticated",
			},
		},
	}
}

// Run executes the pipeline. Each step runs only if the previous one
// succeeded; any failure returns a step-specific error. On full success it
// returns the reachable service URL.
func (p *Pipeline) Run(ctx context.Context) (string, error) {
	for _, step := range p.Steps() {
		p.logger.Info("running deploy step", map[string]interface{}{
			"step":    step.Name,
			"command": strings.Join(step.Command, " "),
		})

		out, err := p.runner.Run(ctx, step.Command[0], step.Command[1:]...)
		if err != nil {
			p.logger.WithError(err).Error("deploy step failed", map[string]interface{}{
				"step":   step.Name,
				"output": out,
			})
			return "", errors.NewDeployStepFailedError(step.Name, fmt.Errorf("%s: %w", step.Message, err))
		}

		p.logger.Info("deploy step succeeded", map[string]interface{}{"step": step.Name})
	}

	url, err := p.serviceURL(ctx)
	if err != nil {
		return "", err
	}

	if p.probe != nil {
		if err := p.probe(ctx, url); err != nil {
			return "", errors.NewDeployStepFailedError("service probe",
				fmt.Errorf("deployed service is not reachable at %s: %w", url, err))
		}
	}

	return url, nil
}

// serviceURL asks the platform for the deployed service's public URL.
func (p *Pipeline) serviceURL(ctx context.Context) (string, error) {
	out, err := p.runner.Run(ctx,
		"gcloud", "run", "services", "describe", p.cfg.Service,
		"--region", p.cfg.Region,
		"--project", p.cfg.Project,
		"--format", "value(status.url)",
	)
	if err != nil {
		return "", errors.NewDeployStepFailedError("service url",
			fmt.Errorf("could not resolve service URL: %w", err))
	}

	url := strings.TrimSpace(out)
	if url == "" {
		return "", errors.NewDeployStepFailedError("service url",
			fmt.Errorf("platform returned an empty service URL"))
	}
	return url, nil
}
