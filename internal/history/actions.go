package history

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"plugindiff/models"
	"plugindiff/pkg/db"
	"plugindiff/pkg/report"
)

// RunsAction lists recorded reconciliation runs.
func RunsAction(c *cli.Context) error {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	limit := c.Int("limit")
	runs, err := store.ListRuns(limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	// Print table header
	fmt.Printf("%-6s %-20s %-20s %-8s %-7s %-8s %-9s %-8s\n",
		"ID", "Started", "Finished", "Status", "Exact", "Similar", "Outdated", "Missing")
	fmt.Println(strings.Repeat("-", 100))

	for _, r := range runs {
		finished := "-"
		if !r.FinishedAt.IsZero() {
			finished = r.FinishedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%-6d %-20s %-20s %-8s %-7d %-8d %-9d %-8d\n",
			r.RunID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			finished,
			r.Status,
			r.ExactCount,
			r.SimilarCount,
			r.OutdatedCount,
			r.MissingCount,
		)
	}

	fmt.Printf("\nTotal: %d runs\n", len(runs))
	fmt.Printf("\nTip: Use 'plugindiff history show <id>' to see details\n")

	return nil
}

// ShowAction shows details for a run, defaulting to the latest one.
func ShowAction(c *cli.Context) error {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	runID, err := GetRunIDOrLatest(c, store)
	if err != nil {
		return err
	}

	run, err := store.GetRun(runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	matches, err := store.GetRunMatches(runID)
	if err != nil {
		return fmt.Errorf("failed to get run matches: %w", err)
	}

	// Print run details
	fmt.Printf("Run %d\n", run.RunID)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Started:     %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if !run.FinishedAt.IsZero() {
		fmt.Printf("Finished:    %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("Status:      %s\n", run.Status)
	if run.ErrorMessage != "" {
		fmt.Printf("Error:       %s\n", run.ErrorMessage)
	}
	fmt.Printf("Counts:      %d exact, %d similar, %d outdated, %d missing\n",
		run.ExactCount, run.SimilarCount, run.OutdatedCount, run.MissingCount)

	if len(matches) == 0 {
		fmt.Println("\nNo matches recorded")
		return nil
	}

	// Matches are stored in per-kind batches; start a section per kind.
	currentKind := ""
	row := 0
	for _, m := range matches {
		if m.Kind != currentKind {
			currentKind = m.Kind
			row = 0
			fmt.Printf("\n%s (%d):\n", currentKind, countKind(matches, currentKind))
			fmt.Println(strings.Repeat("-", 60))
		}
		row++
		if m.Classification == models.MatchMissing {
			fmt.Printf("%2d. [%-7s] %s\n", row, m.Classification, nameVer(m.RefName, m.RefVersion))
			continue
		}
		fmt.Printf("%2d. [%-7s] %s -> %s (%s, %s)\n",
			row,
			m.Classification,
			nameVer(m.RefName, m.RefVersion),
			nameVer(m.CandName, m.CandVersion),
			report.FormatSimilarity(m.Similarity),
			m.Freshness,
		)
	}

	fmt.Printf("\nTip: Use 'plugindiff history runs' to list all runs\n")

	return nil
}

func countKind(matches []db.RunMatch, kind string) int {
	n := 0
	for _, m := range matches {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

func nameVer(name, version string) string {
	if version == "" {
		return name
	}
	return name + " " + version
}
