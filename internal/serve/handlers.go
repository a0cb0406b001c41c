package serve

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"plugindiff/models"
	"plugindiff/pkg/coordinator"
	"plugindiff/pkg/db"
	"plugindiff/pkg/runner"
	"plugindiff/pkg/scraper"
)

// handler serves the REST API over the run history, the live runner,
// and the crawl coordinator.
type handler struct {
	cfg    models.Config
	runner *runner.Runner
	store  *db.DB
	coord  *coordinator.Coordinator
	logger *slog.Logger
}

func newHandler(cfg models.Config, r *runner.Runner, store *db.DB, coord *coordinator.Coordinator, logger *slog.Logger) *handler {
	return &handler{cfg: cfg, runner: r, store: store, coord: coord, logger: logger}
}

// listRuns returns the run history, most recent first. An optional
// limit query parameter caps the result.
func (h *handler) listRuns(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(limit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	c.JSON(http.StatusOK, runs)
}

// getRun returns one run with its stored match rows.
func (h *handler) getRun(c *gin.Context) {
	runID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	run, err := h.store.GetRun(runID)
	if err != nil {
		if errors.Is(err, db.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		h.logger.Error("failed to get run", "run_id", runID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get run"})
		return
	}

	matches, err := h.store.GetRunMatches(runID)
	if err != nil {
		h.logger.Error("failed to get run matches", "run_id", runID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get run matches"})
		return
	}
	if matches == nil {
		matches = []db.RunMatch{}
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "matches": matches})
}

// triggerRun starts a full reconciliation run in the background.
func (h *handler) triggerRun(c *gin.Context) {
	if !h.runner.RunAsync() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a run is already in progress"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "run started", "status": "running"})
}

// stopRun asks the current run to stop at the next checkpoint. Crawls
// already in flight still finish.
func (h *handler) stopRun(c *gin.Context) {
	if !h.runner.Stop() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no run in progress"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "run stopping", "status": "stopped"})
}

func (h *handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running":          h.runner.IsRunning(),
		"smtp_configured":  h.cfg.SMTPConfigured(),
		"schedule_enabled": h.cfg.Schedule.Enabled,
		"schedule":         h.cfg.Schedule.Cron,
	})
}

// getConfig returns the effective configuration without credentials.
func (h *handler) getConfig(c *gin.Context) {
	findings := h.cfg.Validate()
	if findings == nil {
		findings = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"smtp_configured":   h.cfg.SMTPConfigured(),
		"smtp_host":         h.cfg.SMTP.Host,
		"smtp_port":         h.cfg.SMTP.Port,
		"smtp_from":         h.cfg.SMTP.From,
		"smtp_to":           h.cfg.SMTP.To,
		"schedule_enabled":  h.cfg.Schedule.Enabled,
		"schedule":          h.cfg.Schedule.Cron,
		"validation_errors": findings,
	})
}

func (h *handler) listTasks(c *gin.Context) {
	c.JSON(http.StatusOK, h.coord.StatusAll())
}

func (h *handler) getTask(c *gin.Context) {
	status, err := h.coord.Status(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// startTask triggers a single crawl. The pages query parameter bounds
// the crawl; absent it falls back to the coordinator default. The call
// returns immediately with the task's resulting state.
func (h *handler) startTask(c *gin.Context) {
	id := c.Param("id")
	src, ok := h.cfg.Source(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task"})
		return
	}

	pages := 0
	if v := c.Query("pages"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pages must be a positive integer"})
			return
		}
		pages = n
	}

	// Upsert the descriptor with the requested page limit. A task that
	// is mid-crawl cannot be replaced; Start below reports it unchanged.
	opts := scraper.Options{
		Delay:    time.Duration(h.cfg.DelayMS) * time.Millisecond,
		MaxLoads: h.cfg.MaxLoads,
	}
	factory := func() scraper.Scraper { return scraper.New(src, opts, h.logger) }
	if err := h.coord.Register(id, factory, pages); err != nil && !errors.Is(err, coordinator.ErrTaskActive) {
		h.logger.Error("failed to register task", "task", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register task"})
		return
	}

	started, err := h.coord.Start(id)
	if err != nil {
		h.logger.Error("failed to start task", "task", id, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to start task"})
		return
	}

	status, err := h.coord.Status(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read task status"})
		return
	}
	code := http.StatusOK
	if started {
		code = http.StatusAccepted
	}
	c.JSON(code, gin.H{"task": id, "started": started, "status": status})
}
