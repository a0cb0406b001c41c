package history

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"plugindiff/pkg/db"
)

// GetRunIDOrLatest returns the run ID from args, or the latest run if not provided
func GetRunIDOrLatest(c *cli.Context, store *db.DB) (int64, error) {
	if c.NArg() == 0 {
		// No run ID provided, use latest
		run, err := store.LatestRun()
		if err != nil {
			if errors.Is(err, db.ErrNoRuns) {
				return 0, fmt.Errorf("no runs found. Run 'plugindiff run' first")
			}
			return 0, fmt.Errorf("failed to get latest run: %w", err)
		}
		return run.RunID, nil
	}

	// Parse provided run ID
	var runID int64
	_, err := fmt.Sscanf(c.Args().First(), "%d", &runID)
	if err != nil {
		return 0, fmt.Errorf("invalid run ID: %s", c.Args().First())
	}
	return runID, nil
}
