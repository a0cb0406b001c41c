package crawl

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"plugindiff/internal/common"
	"plugindiff/models"
	"plugindiff/pkg/coordinator"
	"plugindiff/pkg/report"
	"plugindiff/pkg/scraper"
)

// CrawlAction crawls one configured source, or all of them through the
// coordinator pool, and writes the resulting catalog CSVs.
func CrawlAction(c *cli.Context) error {
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

	all := c.Bool("all")
	name := c.String("source")
	if all == (name != "") {
		fmt.Fprintln(os.Stderr, "Error: Provide either --source <name> or --all")
		fmt.Fprintln(os.Stderr, "Use --source to crawl one configured source, or --all for every source")
		os.Exit(1)
	}
	if all && c.IsSet("out") {
		fmt.Fprintln(os.Stderr, "Error: Cannot use --out with --all")
		fmt.Fprintln(os.Stderr, "Catalogs for --all are written to the data directory, one file per source")
		os.Exit(1)
	}
	if len(cfg.Sources) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No sources configured")
		fmt.Fprintln(os.Stderr, "Add a sources block to config.yaml; run the quickstart command for a template")
		os.Exit(1)
	}

	pages := cfg.MaxPages
	if c.IsSet("pages") {
		pages = c.Int("pages")
	}
	if pages < 1 {
		fmt.Fprintln(os.Stderr, "Error: --pages must be at least 1")
		os.Exit(1)
	}

	var targets []models.SourceConfig
	if all {
		targets = cfg.Sources
	} else {
		src, ok := cfg.Source(name)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: Unknown source %q\n", name)
			fmt.Fprintf(os.Stderr, "Configured sources: %s\n", strings.Join(sourceNames(cfg), ", "))
			os.Exit(1)
		}
		targets = []models.SourceConfig{src}
	}

	// Base URL hygiene before any network work.
	for i := range targets {
		base, err := common.ValidateBaseURL(targets[i].BaseURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Source %q has an unusable base_url %q: %v\n", targets[i].Name, targets[i].BaseURL, err)
			fmt.Fprintln(os.Stderr, "Fix the base_url in config.yaml and retry")
			os.Exit(1)
		}
		targets[i].BaseURL = base
	}

	opts := scraper.Options{
		Delay:    time.Duration(cfg.DelayMS) * time.Millisecond,
		MaxLoads: cfg.MaxLoads,
	}

	crawled := 0
	failed := 0
	totalItems := 0

	if all {
		logger.Info("crawling all sources", "sources", len(targets), "pages", pages, "workers", cfg.Workers)
		coord := coordinator.New(cfg.Workers, logger)
		for _, src := range targets {
			factory := func() scraper.Scraper { return scraper.New(src, opts, logger) }
			if err := coord.Register(src.Name, factory, pages); err != nil {
				logger.Error("failed to register task", "task", src.Name, "error", err)
				os.Exit(2)
			}
			if _, err := coord.Start(src.Name); err != nil {
				logger.Error("failed to start task", "task", src.Name, "error", err)
				os.Exit(2)
			}
		}
		for _, src := range targets {
			_ = coord.Await(src.Name)
		}
		coord.Shutdown()

		for _, src := range targets {
			status, err := coord.Status(src.Name)
			if err != nil {
				continue
			}
			if status.State == models.TaskFailed {
				failed++
				fmt.Printf("%-20s FAILED  %s\n", src.Name, status.Error)
				continue
			}
			records := coord.Result(src.Name)
			outPath := filepath.Join(cfg.DataDir, src.Name+"_catalog.csv")
			if err := writeCatalog(outPath, records); err != nil {
				logger.Error("failed to write catalog", "source", src.Name, "path", outPath, "error", err)
				os.Exit(2)
			}
			crawled++
			totalItems += len(records)
			fmt.Printf("%-20s OK      %4d items  %s\n", src.Name, len(records), outPath)
		}
	} else {
		src := targets[0]
		logger.Info("crawling source", "source", src.Name, "pages", pages)
		cat, err := scraper.New(src, opts, logger).FetchCatalog(pages)
		if err != nil {
			fmt.Printf("%-20s FAILED  %s\n", src.Name, err)
			fmt.Printf("\nCrawled 0 sources in %s\n", time.Since(startTime).Round(time.Millisecond))
			os.Exit(1)
		}
		outPath := c.String("out")
		if outPath == "" {
			outPath = filepath.Join(cfg.DataDir, src.Name+"_catalog.csv")
		}
		records := cat.Records()
		if err := writeCatalog(outPath, records); err != nil {
			logger.Error("failed to write catalog", "source", src.Name, "path", outPath, "error", err)
			os.Exit(2)
		}
		crawled = 1
		totalItems = len(records)
		fmt.Printf("%-20s OK      %4d items  %s\n", src.Name, len(records), outPath)
	}

	fmt.Printf("\nCrawled %d sources, %d items in %s\n", crawled, totalItems, time.Since(startTime).Round(time.Millisecond))
	if failed > 0 {
		fmt.Printf("%d sources failed\n", failed)
		os.Exit(1)
	}
	return nil
}

func writeCatalog(path string, records []models.Record) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return report.WriteCatalog(path, records)
}

func sourceNames(cfg models.Config) []string {
	names := make([]string, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		names = append(names, s.Name)
	}
	return names
}
