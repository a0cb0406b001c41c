// Package runner orchestrates the full reconciliation pipeline: crawl
// every source the configured pairs reference, match each pair, write
// the CSV reports, persist the run, and send the notification.
package runner

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"plugindiff/models"
	"plugindiff/pkg/catalog"
	"plugindiff/pkg/coordinator"
	"plugindiff/pkg/db"
	"plugindiff/pkg/matcher"
	"plugindiff/pkg/notify"
	"plugindiff/pkg/report"
	"plugindiff/pkg/scraper"
)

var (
	// ErrAlreadyRunning is returned when a run is requested while one
	// is still in progress.
	ErrAlreadyRunning = errors.New("a run is already in progress")
	// ErrStopped is returned when a run honors a stop request.
	ErrStopped = errors.New("run stopped before completion")
)

// PairSummary holds the bucket counts of one reconciled pair.
type PairSummary struct {
	Kind     string
	Exact    int
	Similar  int
	Outdated int
	Missing  int
}

// Summary aggregates the bucket counts of one finished run, with the
// per-pair breakdown in configuration order.
type Summary struct {
	RunID    int64
	Exact    int
	Similar  int
	Outdated int
	Missing  int
	Pairs    []PairSummary
}

// Total returns the number of reference records processed.
func (s Summary) Total() int {
	return s.Exact + s.Similar + s.Missing
}

// Runner executes reconciliation runs one at a time.
type Runner struct {
	cfg      models.Config
	coord    *coordinator.Coordinator
	store    *db.DB
	notifier notify.Service
	logger   *slog.Logger

	running atomic.Bool
	stop    atomic.Bool
}

// New builds a Runner on top of an already opened history store and a
// running coordinator. The coordinator may be shared with the task API.
func New(cfg models.Config, coord *coordinator.Coordinator, store *db.DB, notifier notify.Service, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		cfg:      cfg,
		coord:    coord,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Run executes one full reconciliation and blocks until it finishes.
// Crawl failures degrade to empty catalogs and never fail the run; an
// error return means the run could not be coordinated or persisted.
func (r *Runner) Run() (*Summary, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer r.running.Store(false)
	r.stop.Store(false)

	if len(r.cfg.Pairs) == 0 {
		return nil, errors.New("no pairs configured")
	}

	r.logger.Info("run started", "pairs", len(r.cfg.Pairs))
	runID, err := r.store.InsertRun()
	if err != nil {
		return nil, err
	}

	catalogs, err := r.crawlSources()
	if err != nil {
		return r.fail(runID, err)
	}
	if r.stop.Load() {
		return r.fail(runID, ErrStopped)
	}

	m := matcher.New(r.cfg.Threshold)
	summary := &Summary{RunID: runID}
	var outdated, missing []models.Match

	for _, pair := range r.cfg.Pairs {
		if r.stop.Load() {
			return r.fail(runID, ErrStopped)
		}

		matches, leftover := m.Match(catalogs[pair.Ref], catalogs[pair.Cand])
		b := report.Split(matches)
		r.logger.Info("pair matched", "kind", pair.Kind,
			"exact", len(b.Exact), "similar", len(b.Similar),
			"outdated", len(b.Outdated), "missing", len(b.Missing),
			"unmatchedCandidates", len(leftover))

		if _, err := report.WriteAll(r.cfg.DataDir, pair.Kind, b); err != nil {
			return r.fail(runID, err)
		}
		if err := r.store.InsertMatches(runID, pair.Kind, matches); err != nil {
			return r.fail(runID, err)
		}

		summary.Exact += len(b.Exact)
		summary.Similar += len(b.Similar)
		summary.Outdated += len(b.Outdated)
		summary.Missing += len(b.Missing)
		summary.Pairs = append(summary.Pairs, PairSummary{
			Kind:     pair.Kind,
			Exact:    len(b.Exact),
			Similar:  len(b.Similar),
			Outdated: len(b.Outdated),
			Missing:  len(b.Missing),
		})
		outdated = append(outdated, b.Outdated...)
		missing = append(missing, b.Missing...)
	}

	if err := r.store.FinishRun(runID, summary.Exact, summary.Similar, summary.Outdated, summary.Missing); err != nil {
		return r.fail(runID, err)
	}

	if len(outdated)+len(missing) > 0 {
		rep := notify.Report{GeneratedAt: time.Now(), Outdated: outdated, Missing: missing}
		if err := r.notifier.SendReport(rep); err != nil {
			r.logger.Error("failed to send notification", "error", err)
		}
	}

	r.logger.Info("run finished", "runID", runID,
		"exact", summary.Exact, "similar", summary.Similar,
		"outdated", summary.Outdated, "missing", summary.Missing)
	return summary, nil
}

// RunAsync starts a run in the background. It reports false when a run
// is already in progress.
func (r *Runner) RunAsync() bool {
	if r.running.Load() {
		return false
	}
	go func() {
		if _, err := r.Run(); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			r.logger.Error("background run failed", "error", err)
		}
	}()
	return true
}

// IsRunning reports whether a run is in progress.
func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// Stop asks the current run to halt at the next stage boundary. Crawls
// already in flight finish first. It reports whether a run was active.
func (r *Runner) Stop() bool {
	if !r.running.Load() {
		return false
	}
	r.stop.Store(true)
	r.logger.Info("stop requested")
	return true
}

// crawlSources crawls every source referenced by the configured pairs
// through the coordinator and returns one catalog per source. A failed
// crawl task yields an empty catalog for its source.
func (r *Runner) crawlSources() (map[string]*catalog.Catalog, error) {
	names := r.pairSourceNames()
	opts := scraper.Options{
		Delay:    time.Duration(r.cfg.DelayMS) * time.Millisecond,
		MaxLoads: r.cfg.MaxLoads,
	}

	for _, name := range names {
		src, ok := r.cfg.Source(name)
		if !ok {
			return nil, fmt.Errorf("unknown source %q", name)
		}
		factory := func() scraper.Scraper { return scraper.New(src, opts, r.logger) }
		if err := r.coord.Register(name, factory, r.cfg.MaxPages); err != nil {
			return nil, fmt.Errorf("failed to register crawl for %s: %w", name, err)
		}
		if _, err := r.coord.Start(name); err != nil {
			return nil, fmt.Errorf("failed to start crawl for %s: %w", name, err)
		}
	}

	catalogs := make(map[string]*catalog.Catalog, len(names))
	for _, name := range names {
		if err := r.coord.Await(name); err != nil {
			return nil, fmt.Errorf("failed to await crawl for %s: %w", name, err)
		}
		status, err := r.coord.Status(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read crawl status for %s: %w", name, err)
		}
		if status.State == models.TaskFailed {
			r.logger.Warn("crawl failed, continuing with empty catalog", "source", name, "error", status.Error)
			catalogs[name] = catalog.New()
			continue
		}
		catalogs[name] = catalog.FromRecords(r.coord.Result(name))
	}
	return catalogs, nil
}

// pairSourceNames returns the distinct sources the pairs reference, in
// first-appearance order.
func (r *Runner) pairSourceNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, p := range r.cfg.Pairs {
		for _, name := range []string{p.Ref, p.Cand} {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func (r *Runner) fail(runID int64, err error) (*Summary, error) {
	r.logger.Error("run failed", "runID", runID, "error", err)
	if dbErr := r.store.FailRun(runID, err.Error()); dbErr != nil {
		r.logger.Error("failed to record run failure", "runID", runID, "error", dbErr)
	}
	return nil, err
}
