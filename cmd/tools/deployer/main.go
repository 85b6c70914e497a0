// cmd/tools/deployer/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"borehole-analytics/internal/common/config"
	httpclient "borehole-analytics/internal/common/http"
	"borehole-analytics/internal/common/logger"
	"borehole-analytics/internal/deploy"
)

func main() {
	project := flag.String("project", "", "Cloud project ID (overrides config)")
	region := flag.String("region", "", "Deployment region (overrides config)")
	service := flag.String("service", "", "Service name (overrides config)")
	registryPath := flag.String("registry", "", "Image registry host (overrides config)")
	skipProbe := flag.Bool("skip-probe", false, "Skip the post-deploy reachability check")
	timeout := flag.Duration("timeout", 20*time.Minute, "Overall pipeline timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: config load failed: %v\n", err)
		os.Exit(1)
	}

	deployCfg := cfg.Deploy
	if *project != "" {
		deployCfg.Project = *project
	}
	if *region != "" {
		deployCfg.Region = *region
	}
	if *service != "" {
		deployCfg.Service = *service
	}
	if *registryPath != "" {
		deployCfg.Registry = *registryPath
	}

	if deployCfg.Project == "" || deployCfg.Region == "" || deployCfg.Service == "" || deployCfg.Registry == "" {
		fmt.Fprintln(os.Stderr, "Error: project, region, service, and registry are required (flags or config).")
		flag.Usage()
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	pipeline := deploy.NewPipeline(deployCfg, deploy.ExecRunner{}, log)
	if !*skipProbe {
		client := httpclient.NewClient(30 * time.Second)
		pipeline.SetProbe(func(ctx context.Context, url string) error {
			resp, err := client.Get(ctx, url)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= http.StatusInternalServerError {
				return fmt.Errorf("service returned status %d", resp.StatusCode)
			}
			return nil
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("Deploying %s (image %s) to %s...\n", deployCfg.Service, pipeline.Image(), deployCfg.Region)

	url, err := pipeline.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Deployment complete. Service is live at: %s\n", url)
}
