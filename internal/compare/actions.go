package compare

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"plugindiff/models"
	"plugindiff/pkg/matcher"
	"plugindiff/pkg/report"
)

// CompareAction reconciles two previously crawled catalog CSVs offline
// and writes the four match reports.
func CompareAction(c *cli.Context) error {
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

	refPath := c.String("ref")
	candPath := c.String("cand")
	if refPath == "" || candPath == "" {
		fmt.Fprintln(os.Stderr, "Error: Both --ref and --cand are required")
		fmt.Fprintln(os.Stderr, "Point them at catalog CSVs produced by the crawl command")
		os.Exit(1)
	}

	threshold := cfg.Threshold
	if c.IsSet("threshold") {
		threshold = c.Float64("threshold")
	}
	if threshold <= 0 || threshold > 1 {
		fmt.Fprintf(os.Stderr, "Error: --threshold must be in (0, 1], got %v\n", threshold)
		os.Exit(1)
	}

	kind := c.String("kind")
	if kind == "" {
		kind = "plugins"
	}
	outDir := c.String("out-dir")
	if outDir == "" {
		outDir = cfg.DataDir
	}

	ref, err := report.ReadCatalog(refPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Cannot read reference catalog: %v\n", err)
		os.Exit(1)
	}
	cand, err := report.ReadCatalog(candPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Cannot read candidate catalog: %v\n", err)
		os.Exit(1)
	}
	logger.Info("catalogs loaded", "ref", ref.Len(), "cand", cand.Len(), "threshold", threshold)

	matches, leftover := matcher.New(threshold).Match(ref, cand)
	b := report.Split(matches)

	paths, err := report.WriteAll(outDir, kind, b)
	if err != nil {
		logger.Error("failed to write match reports", "dir", outDir, "error", err)
		os.Exit(2)
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Comparison: %s vs %s\n", refPath, candPath)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Exact matches (100%%):    %d\n", len(b.Exact))
	fmt.Printf("Similar matches (>=%.0f%%): %d\n", threshold*100, len(b.Similar))
	fmt.Printf("Outdated:                %d\n", len(b.Outdated))
	fmt.Printf("Missing:                 %d\n", len(b.Missing))
	fmt.Printf("Total matches:           %d\n", len(b.Exact)+len(b.Similar))
	fmt.Printf("Unmatched candidates:    %d\n", len(leftover))

	fmt.Println("\nReports:")
	for _, p := range paths {
		fmt.Printf("  %s\n", p)
	}
	return nil
}
