package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"jobhunt-consolidate/internal/backup"
	"jobhunt-consolidate/internal/config"
	"jobhunt-consolidate/internal/migrate"
	"jobhunt-consolidate/internal/report"
	"jobhunt-consolidate/internal/store"
	"jobhunt-consolidate/internal/validate"
)

func main() {
	cfgPath := flag.String("config", "config.yml", "source registry configuration")
	backupPath := flag.String("backup", "", "backup manifest (json or zip), overrides config")
	reportPath := flag.String("report", "", "write the JSON report to this path")
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd != "migrate" && cmd != "validate" {
		fmt.Fprintln(os.Stderr, "usage: consolidate -config config.yml [flags] migrate|validate")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", *cfgPath, err)
	}
	if *backupPath != "" {
		cfg.BackupManifest = *backupPath
	}

	// A user abort mid-run is honored at the next transaction boundary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rep report.Report
	switch cmd {
	case "migrate":
		rep, err = runMigrate(ctx, cfg)
	case "validate":
		rep, err = runValidate(ctx, cfg, validate.Options{})
	}
	if err != nil {
		log.Fatalf("%s failed: %v", cmd, err)
	}

	rep.RenderText(os.Stdout)
	if *reportPath != "" {
		f, err := os.Create(*reportPath)
		if err != nil {
			log.Fatalf("write report: %v", err)
		}
		defer f.Close()
		if err := rep.WriteJSON(f); err != nil {
			log.Fatalf("write report: %v", err)
		}
	}

	if rep.Verdict == report.VerdictFail {
		os.Exit(1)
	}
}

// runMigrate consolidates every registered source, then immediately
// validates the finished target using the run's own scan counts as the
// expected count ranges.
func runMigrate(ctx context.Context, cfg config.Config) (report.Report, error) {
	stats, err := migrate.Run(ctx, cfg)
	if err != nil {
		return report.Report{}, err
	}

	return runValidate(ctx, cfg, validate.Options{
		RunID:       stats.RunID,
		CountRanges: stats.CountRanges(),
	})
}

func runValidate(ctx context.Context, cfg config.Config, opts validate.Options) (report.Report, error) {
	cfg, res := config.NormalizeAndValidate(cfg)
	if err := res.Err(); err != nil {
		return report.Report{}, err
	}

	opts.SpotCompanies = cfg.SpotCheck.Companies
	opts.SpotJobs = cfg.SpotCheck.Jobs
	if cfg.BackupManifest != "" {
		m, err := backup.ReadManifest(cfg.BackupManifest)
		if err != nil {
			// Inconclusive, not fatal: the validator notes the absence.
			log.Printf("[validate] backup manifest unreadable: %v", err)
		} else {
			opts.Manifest = &m
		}
	}

	db, err := store.OpenReadOnly(cfg.Target)
	if err != nil {
		return report.Report{}, fmt.Errorf("open target: %w", err)
	}
	defer db.Close()

	return validate.Run(ctx, db.Pool, opts), nil
}
