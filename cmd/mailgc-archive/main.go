// mailgc-archive removes aged messages under a label from the inbox without
// trashing them. The archive job queries in:inbox, so already-archived mail
// is excluded from the next run's enumeration.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshsymonds/mailgc/internal/policy"
	"github.com/joshsymonds/mailgc/internal/purge"
	"github.com/joshsymonds/mailgc/internal/rate"
	"github.com/joshsymonds/mailgc/internal/runtime"
)

type archiveConfig struct {
	cfgDir      string
	label       string
	olderThan   int
	pageSize    int
	unitsPerSec float64
	dryRun      bool
	summaryJSON string
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("mailgc-archive failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() archiveConfig {
	cfgDir := flag.String("config", os.ExpandEnv("$HOME/.gmailctl"), "gmailctl auth directory")
	label := flag.String("label", "", "label to archive aged messages from")
	olderThan := flag.Int("older-than", 14, "archive messages older than this many days")
	pageSize := flag.Int("page-size", 100, "thread list page size (<=500)")
	unitsPerSec := flag.Float64("units-per-sec", 0, "Gmail quota units per second (0 = default)")
	dryRun := flag.Bool("dry-run", false, "log only; skip modifications")
	summaryJSON := flag.String("summary-json", "", "write the run summary to this relative path")
	flag.Parse()

	return archiveConfig{
		cfgDir:      *cfgDir,
		label:       *label,
		olderThan:   *olderThan,
		pageSize:    *pageSize,
		unitsPerSec: *unitsPerSec,
		dryRun:      *dryRun,
		summaryJSON: *summaryJSON,
	}
}

func run(cfg archiveConfig) error {
	if cfg.label == "" {
		return fmt.Errorf("-label is required")
	}
	if cfg.olderThan <= 0 {
		return fmt.Errorf("-older-than must be positive")
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := runtime.NewGmailClient(ctx, cfg.cfgDir, runtime.ScopeModify)
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}

	svc := purge.NewService(client, rate.NewQuotaLimiter(cfg.unitsPerSec), runtime.DefaultLogger())
	sum, err := svc.Run(ctx, purge.Job{
		Label:     cfg.label,
		Policy:    policy.AgeThreshold{Days: cfg.olderThan},
		Operation: purge.OpArchive,
		PageSize:  cfg.pageSize,
		DryRun:    cfg.dryRun,
	})
	if err != nil {
		return fmt.Errorf("run archive: %w", err)
	}
	if cfg.summaryJSON != "" {
		if writeErr := purge.WriteJSON(sum, cfg.summaryJSON); writeErr != nil {
			return fmt.Errorf("write summary: %w", writeErr)
		}
	}
	if sum.Aborted {
		return fmt.Errorf("run aborted after %d pages (%d errors)", sum.PagesFetched, len(sum.Errors))
	}
	return nil
}
