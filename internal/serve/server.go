package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"plugindiff/models"
	"plugindiff/pkg/coordinator"
	"plugindiff/pkg/db"
	"plugindiff/pkg/notify"
	"plugindiff/pkg/runner"
	"plugindiff/pkg/scraper"
)

const (
	readTimeout     = 30 * time.Second
	writeTimeout    = 60 * time.Second
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 15 * time.Second
)

// Server hosts the REST API and, when enabled, the cron schedule that
// fires the daily reconciliation run.
type Server struct {
	cfg    models.Config
	router *gin.Engine
	coord  *coordinator.Coordinator
	sched  *scheduler
	logger *slog.Logger
}

// NewServer assembles the API over an already-built runner, history
// store, and coordinator. Every configured source is registered as a
// pending crawl task so the task endpoints can address it.
func NewServer(cfg models.Config, r *runner.Runner, store *db.DB, coord *coordinator.Coordinator, logger *slog.Logger) (*Server, error) {
	opts := scraper.Options{
		Delay:    time.Duration(cfg.DelayMS) * time.Millisecond,
		MaxLoads: cfg.MaxLoads,
	}
	for _, src := range cfg.Sources {
		factory := func() scraper.Scraper { return scraper.New(src, opts, logger) }
		if err := coord.Register(src.Name, factory, cfg.MaxPages); err != nil {
			return nil, fmt.Errorf("failed to register task %s: %w", src.Name, err)
		}
	}

	h := newHandler(cfg, r, store, coord, logger)
	srv := &Server{
		cfg:    cfg,
		router: newRouter(h, logger),
		coord:  coord,
		logger: logger,
	}

	if cfg.Schedule.Enabled {
		trigger := func() {
			logger.Info("scheduled run triggered")
			if !r.RunAsync() {
				logger.Warn("scheduled run skipped, a run is already in progress")
			}
		}
		sched, err := newScheduler(cfg.Schedule.Cron, trigger, logger)
		if err != nil {
			return nil, err
		}
		srv.sched = sched
	}

	return srv, nil
}

// Run serves until SIGINT or SIGTERM, then drains HTTP, stops the
// scheduler, and shuts down the coordinator pool.
func (s *Server) Run() error {
	httpSrv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Server.Addr)
		serverErrors <- httpSrv.ListenAndServe()
	}()

	if s.sched != nil {
		s.sched.Start()
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("graceful shutdown failed", "error", err)
		_ = httpSrv.Close()
	}

	if s.sched != nil {
		s.sched.Stop()
	}
	s.coord.Shutdown()
	s.logger.Info("server stopped")
	return nil
}

// ServeAction starts the HTTP API and scheduler from the CLI.
func ServeAction(c *cli.Context) error {
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
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	store, err := db.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(2)
	}
	defer store.Close()

	gin.SetMode(gin.ReleaseMode)
	coord := coordinator.New(cfg.Workers, logger)
	notifier := notify.New(cfg, logger)
	r := runner.New(cfg, coord, store, notifier, logger)

	srv, err := NewServer(cfg, r, store, coord, logger)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(2)
	}

	if err := srv.Run(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(2)
	}
	return nil
}
