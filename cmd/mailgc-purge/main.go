// mailgc-purge trashes every reply under a label, keeping only the first
// message of each thread. Pointed at a standup or bot-chatter label it keeps
// the conversation starter and sheds the pile-up.
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

type purgeConfig struct {
	cfgDir      string
	label       string
	pageSize    int
	unitsPerSec float64
	dryRun      bool
	summaryJSON string
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("mailgc-purge failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() purgeConfig {
	cfgDir := flag.String("config", os.ExpandEnv("$HOME/.gmailctl"), "gmailctl auth directory")
	label := flag.String("label", "", "label whose threads are purged down to their first message")
	pageSize := flag.Int("page-size", 100, "thread list page size (<=500)")
	unitsPerSec := flag.Float64("units-per-sec", 0, "Gmail quota units per second (0 = default)")
	dryRun := flag.Bool("dry-run", false, "log only; skip modifications")
	summaryJSON := flag.String("summary-json", "", "write the run summary to this relative path")
	flag.Parse()

	return purgeConfig{
		cfgDir:      *cfgDir,
		label:       *label,
		pageSize:    *pageSize,
		unitsPerSec: *unitsPerSec,
		dryRun:      *dryRun,
		summaryJSON: *summaryJSON,
	}
}

func run(cfg purgeConfig) error {
	if cfg.label == "" {
		return fmt.Errorf("-label is required")
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
		Policy:    policy.KeepFirst{},
		Operation: purge.OpTrash,
		PageSize:  cfg.pageSize,
		DryRun:    cfg.dryRun,
	})
	if err != nil {
		return fmt.Errorf("run purge: %w", err)
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
