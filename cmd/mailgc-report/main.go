// mailgc-report inventories a label read-only: how many messages an age
// threshold would mutate and which sender domains dominate. Run it before
// adding a job to the deployment file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshsymonds/mailgc/internal/rate"
	"github.com/joshsymonds/mailgc/internal/report"
	"github.com/joshsymonds/mailgc/internal/runtime"
)

type reportConfig struct {
	cfgDir      string
	label       string
	olderThan   int
	topN        int
	pageSize    int
	unitsPerSec float64
	jsonPath    string
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("mailgc-report failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() reportConfig {
	cfgDir := flag.String("config", os.ExpandEnv("$HOME/.gmailctl"), "gmailctl auth directory")
	label := flag.String("label", "", "label to inventory")
	olderThan := flag.Int("older-than", 30, "age threshold in days to evaluate")
	topN := flag.Int("top", 20, "number of sender domains to rank")
	pageSize := flag.Int("page-size", 100, "thread list page size (<=500)")
	unitsPerSec := flag.Float64("units-per-sec", 0, "Gmail quota units per second (0 = default)")
	jsonPath := flag.String("json", "", "also write the report to this relative path")
	flag.Parse()

	return reportConfig{
		cfgDir:      *cfgDir,
		label:       *label,
		olderThan:   *olderThan,
		topN:        *topN,
		pageSize:    *pageSize,
		unitsPerSec: *unitsPerSec,
		jsonPath:    *jsonPath,
	}
}

func run(cfg reportConfig) error {
	if cfg.label == "" {
		return fmt.Errorf("-label is required")
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := runtime.NewGmailClient(ctx, cfg.cfgDir, runtime.ScopeReadonly)
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}

	svc := report.NewService(client, rate.NewQuotaLimiter(cfg.unitsPerSec), runtime.DefaultLogger())
	rep, err := svc.Run(ctx, report.Options{
		Label:         cfg.label,
		OlderThanDays: cfg.olderThan,
		TopN:          cfg.topN,
		PageSize:      cfg.pageSize,
	})
	if err != nil {
		return fmt.Errorf("run inventory: %w", err)
	}

	if err := report.PrintHuman(rep, os.Stdout); err != nil {
		return err
	}
	if cfg.jsonPath != "" {
		if err := report.WriteJSON(rep, cfg.jsonPath); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}
