// mailgc-run executes every retention job in a TOML deployment file, in
// order. It is the binary a cron entry or systemd timer invokes; each job's
// outcome is reported independently and a failing job does not stop the
// rest.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshsymonds/mailgc/internal/config"
	"github.com/joshsymonds/mailgc/internal/purge"
	"github.com/joshsymonds/mailgc/internal/rate"
	"github.com/joshsymonds/mailgc/internal/runtime"
)

type runConfig struct {
	cfgDir   string
	jobsPath string
	dryRun   bool
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("mailgc-run failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() runConfig {
	cfgDir := flag.String("config", os.ExpandEnv("$HOME/.gmailctl"), "gmailctl auth directory")
	jobsPath := flag.String("jobs", "mailgc.toml", "deployment file listing retention jobs")
	dryRun := flag.Bool("dry-run", false, "force dry-run for every job")
	flag.Parse()

	return runConfig{cfgDir: *cfgDir, jobsPath: *jobsPath, dryRun: *dryRun}
}

func run(cfg runConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deployment, err := config.Load(cfg.jobsPath)
	if err != nil {
		return fmt.Errorf("load jobs: %w", err)
	}

	client, err := runtime.NewGmailClient(ctx, cfg.cfgDir, runtime.ScopeModify)
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}

	logger := runtime.DefaultLogger()
	svc := purge.NewService(client, rate.NewQuotaLimiter(deployment.RateUnitsPerSecond), logger)

	failed := 0
	for _, spec := range deployment.Jobs {
		job := spec.Job()
		if cfg.dryRun {
			job.DryRun = true
		}
		sum, runErr := svc.Run(ctx, job)
		if runErr != nil {
			// Cancellation or a broken job spec; neither improves by
			// continuing down the list.
			return fmt.Errorf("job %s: %w", spec.Name, runErr)
		}
		if sum.Aborted || len(sum.Errors) > 0 {
			failed++
			logger.Warn("job finished with errors",
				"job", spec.Name,
				"aborted", sum.Aborted,
				"errors", len(sum.Errors),
			)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs reported errors", failed, len(deployment.Jobs))
	}
	return nil
}
