package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/gcbaptista/go-mrc-prep/api"
	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/internal/engine"
	"github.com/gcbaptista/go-mrc-prep/internal/jobs"
	"github.com/gcbaptista/go-mrc-prep/internal/logger"
	"github.com/gcbaptista/go-mrc-prep/internal/tokenizer"
)

const (
	version        = "1.0.0"
	maxRequestBody = 256 << 20
	shutdownGrace  = 10 * time.Second
)

func main() {
	// Define command-line flags
	var (
		help        = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		configPath  = flag.String("config", "", "Path to a YAML config file (default: ./mrcprep.yaml)")
		port        = flag.Int("port", 0, "Port to run the server on (overrides config)")
		dataDir     = flag.String("data-dir", "", "Directory to store index data (overrides config)")
		jobsRoot    = flag.String("jobs-root", "", "Directory job requests may read datasets from and write to (overrides config)")
		segmenter   = flag.String("segmenter", "", "Segmenter for raw questions: whitespace, words or jieba (overrides config)")
		jobWorkers  = flag.Int("job-workers", 2, "Number of background jobs run concurrently")
	)

	flag.Parse()

	if *help {
		fmt.Printf("MRC prep server - fake answer annotation and paragraph search over HTTP\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s                            # Start server on default port 8080\n", os.Args[0])
		fmt.Printf("  %s --port 9000                # Start server on port 9000\n", os.Args[0])
		fmt.Printf("  %s --segmenter jieba          # Segment raw Chinese questions with jieba\n", os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("MRC prep server v%s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *segmenter != "" {
		cfg.Segmenter = *segmenter
	}
	if *jobsRoot != "" {
		cfg.Server.JobsRoot = *jobsRoot
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	if err := run(cfg, *jobWorkers, log); err != nil {
		log.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, jobWorkers int, log *slog.Logger) error {
	base, release, err := tokenizer.NewSegmenter(cfg.Segmenter)
	if err != nil {
		return err
	}
	defer release()
	seg := base
	if cfg.SegmenterCacheSize > 0 {
		if seg, err = tokenizer.NewCachedSegmenter(base, cfg.SegmenterCacheSize); err != nil {
			return err
		}
	}

	jobManager := jobs.NewManager(jobWorkers, log)
	jobManager.Start()
	defer jobManager.Stop()

	log.Info("using data directory", slog.String("data_dir", cfg.DataDir))
	eng := engine.NewEngine(cfg.DataDir,
		engine.WithLogger(log),
		engine.WithSegmenter(seg),
		engine.WithJobManager(jobManager))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		api.RequestIDMiddleware(),
		api.RequestLoggerMiddleware(log),
		api.MetricsMiddleware(),
		api.CORSMiddleware(),
		api.RequestSizeLimitMiddleware(maxRequestBody),
	)
	if cfg.Server.RateLimit > 0 {
		log.Info("rate limiting enabled",
			slog.Float64("requests_per_second", cfg.Server.RateLimit),
			slog.Int("burst", cfg.Server.RateBurst))
		router.Use(api.NewRateLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst).Middleware())
	}
	api.SetupRoutes(router, eng,
		api.WithSegmenter(seg),
		api.WithLogger(log),
		api.WithPipelineDefaults(cfg.Pipeline),
		api.WithJobsRoot(cfg.Server.JobsRoot))
	log.Info("job files confined to jobs root", slog.String("jobs_root", cfg.Server.JobsRoot))

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", slog.Int("port", cfg.Server.Port), slog.Any("indexes", eng.ListIndexes()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
