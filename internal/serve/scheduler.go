package serve

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduler fires the reconciliation run on the configured cron
// expression. Standard 5-field format: minute hour day month weekday.
type scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func newScheduler(spec string, trigger func(), logger *slog.Logger) (*scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	// Parse up front so a bad expression fails at startup, and the
	// next fire time can be logged.
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cron expression %q: %w", spec, err)
	}

	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, trigger); err != nil {
		return nil, fmt.Errorf("failed to add cron job: %w", err)
	}

	logger.Info("run scheduled",
		"cron", spec,
		"next_run", schedule.Next(time.Now()).Format("2006-01-02 15:04:05"),
	)
	return &scheduler{cron: c, logger: logger}, nil
}

func (s *scheduler) Start() {
	s.cron.Start()
}

// Stop waits for an in-flight trigger callback to return.
func (s *scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}
