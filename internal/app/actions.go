package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"plugindiff/models"
	"plugindiff/pkg/coordinator"
	"plugindiff/pkg/db"
	"plugindiff/pkg/help"
	"plugindiff/pkg/notify"
	"plugindiff/pkg/runner"
)

// RunAction executes one full reconciliation cycle: crawl every paired
// source, match, persist the outcome, and notify on differences.
func RunAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	startTime := time.Now()

	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(2)
	}
	if len(cfg.Pairs) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No pairs configured")
		fmt.Fprintln(os.Stderr, "Add a pairs block to config.yaml; run the quickstart command for a template")
		os.Exit(1)
	}

	store, err := db.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(2)
	}
	defer store.Close()

	coord := coordinator.New(cfg.Workers, logger)
	defer coord.Shutdown()
	notifier := notify.New(cfg, logger)
	r := runner.New(cfg, coord, store, notifier, logger)

	summary, err := r.Run()
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Run %d finished in %s\n\n", summary.RunID, time.Since(startTime).Round(time.Millisecond))
	fmt.Printf("%-12s %6s %8s %9s %8s\n", "Kind", "Exact", "Similar", "Outdated", "Missing")
	fmt.Println(strings.Repeat("-", 48))
	for _, p := range summary.Pairs {
		fmt.Printf("%-12s %6d %8d %9d %8d\n", p.Kind, p.Exact, p.Similar, p.Outdated, p.Missing)
	}
	fmt.Println(strings.Repeat("-", 48))
	fmt.Printf("%-12s %6d %8d %9d %8d\n", "Total", summary.Exact, summary.Similar, summary.Outdated, summary.Missing)

	if diff := summary.Outdated + summary.Missing; diff > 0 {
		fmt.Printf("\n%d differences found\n", diff)
	} else {
		fmt.Println("\nNo differences found")
	}
	return nil
}

// StatusAction prints the latest recorded run and the service settings
// that govern the next one.
func StatusAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(2)
	}

	store, err := db.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(2)
	}
	defer store.Close()

	run, err := store.LatestRun()
	if err != nil {
		if errors.Is(err, db.ErrNoRuns) {
			fmt.Println("No runs recorded yet")
			fmt.Println("\nTip: Run 'plugindiff run' to record the first comparison")
			return nil
		}
		logger.Error("failed to read latest run", "error", err)
		os.Exit(2)
	}

	state := "IDLE"
	if run.Status == db.StatusRunning {
		state = "RUNNING"
	}
	fmt.Printf("%-14s %s\n", "State:", state)
	fmt.Printf("%-14s %d (%s)\n", "Latest run:", run.RunID, run.Status)
	fmt.Printf("%-14s %s\n", "Started:", run.StartedAt.Format("2006-01-02 15:04:05"))
	if !run.FinishedAt.IsZero() {
		fmt.Printf("%-14s %s\n", "Finished:", run.FinishedAt.Format("2006-01-02 15:04:05"))
	}
	if run.ErrorMessage != "" {
		fmt.Printf("%-14s %s\n", "Error:", run.ErrorMessage)
	}
	if run.Status == db.StatusSuccess {
		fmt.Printf("%-14s %d exact, %d similar, %d outdated, %d missing\n", "Counts:",
			run.ExactCount, run.SimilarCount, run.OutdatedCount, run.MissingCount)
	}

	smtp := "not configured"
	if cfg.SMTPConfigured() {
		smtp = "configured"
	}
	fmt.Printf("%-14s %s\n", "SMTP:", smtp)

	schedule := "disabled"
	if cfg.Schedule.Enabled {
		schedule = fmt.Sprintf("enabled (%s)", cfg.Schedule.Cron)
	}
	fmt.Printf("%-14s %s\n", "Schedule:", schedule)
	return nil
}

// ConfigAction prints the effective configuration with credentials
// masked, plus any advisory findings.
func ConfigAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(2)
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Effective configuration")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Println("\nSources:")
	if len(cfg.Sources) == 0 {
		fmt.Println("  (none)")
	}
	for _, s := range cfg.Sources {
		strategy := s.Strategy
		if strategy == "" {
			strategy = models.StrategyClassic
		}
		fmt.Printf("  %-16s %-9s %s\n", s.Name, strategy, s.BaseURL)
	}

	fmt.Println("\nPairs:")
	if len(cfg.Pairs) == 0 {
		fmt.Println("  (none)")
	}
	for _, p := range cfg.Pairs {
		fmt.Printf("  %-16s %s -> %s\n", p.Kind, p.Ref, p.Cand)
	}

	fmt.Println("\nEngine:")
	fmt.Printf("  %-16s %d\n", "workers", cfg.Workers)
	fmt.Printf("  %-16s %d\n", "max_pages", cfg.MaxPages)
	fmt.Printf("  %-16s %d\n", "max_loads", cfg.MaxLoads)
	fmt.Printf("  %-16s %d\n", "delay_ms", cfg.DelayMS)
	fmt.Printf("  %-16s %.2f\n", "threshold", cfg.Threshold)
	fmt.Printf("  %-16s %s\n", "data_dir", cfg.DataDir)

	fmt.Println("\nService:")
	fmt.Printf("  %-16s %s\n", "database", cfg.DatabasePath)
	fmt.Printf("  %-16s %s\n", "listen", cfg.Server.Addr)
	schedule := "disabled"
	if cfg.Schedule.Enabled {
		schedule = fmt.Sprintf("enabled (%s)", cfg.Schedule.Cron)
	}
	fmt.Printf("  %-16s %s\n", "schedule", schedule)

	password := "(not set)"
	if cfg.SMTP.Password != "" {
		password = strings.Repeat("*", 8)
	}
	fmt.Println("\nSMTP:")
	fmt.Printf("  %-16s %s\n", "host", cfg.SMTP.Host)
	fmt.Printf("  %-16s %d\n", "port", cfg.SMTP.Port)
	fmt.Printf("  %-16s %s\n", "username", orUnset(cfg.SMTP.Username))
	fmt.Printf("  %-16s %s\n", "password", password)
	fmt.Printf("  %-16s %s\n", "from", orUnset(cfg.SMTP.From))
	fmt.Printf("  %-16s %s\n", "to", orUnset(cfg.SMTP.To))

	if findings := cfg.Validate(); len(findings) > 0 {
		fmt.Println("\nFindings:")
		for _, f := range findings {
			fmt.Printf("  - %s\n", f)
		}
	}
	return nil
}

func orUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

// QuickstartAction prints the quick-start guide, or a starter
// configuration file with --template.
func QuickstartAction(c *cli.Context) error {
	if c.Bool("template") {
		fmt.Print(help.ConfigTemplate)
		return nil
	}
	fmt.Print(help.QuickstartYAML)
	return nil
}
