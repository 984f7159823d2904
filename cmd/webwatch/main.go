package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/webwatch/webwatch/internal/config"
	"github.com/webwatch/webwatch/internal/fetcher"
	"github.com/webwatch/webwatch/internal/notifier"
	"github.com/webwatch/webwatch/internal/step"
	"github.com/webwatch/webwatch/internal/storage"
	"github.com/webwatch/webwatch/internal/watch"
)

var version = "dev"

func main() {
	once := flag.Bool("once", false, "run a single pass over all targets and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("webwatch %s\n", version)
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	methods := step.DefaultRegistry()

	cfg, err := config.Load(flag.Arg(0), methods)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logging)
	logger.Info("starting webwatch", "version", version, "targets", len(cfg.Targets))

	var history storage.Store
	if cfg.History.Path != "" {
		store, err := storage.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			logger.Error("failed to open history database", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		history = store
		logger.Info("history database opened", "path", cfg.History.Path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetch := &fetcher.Fetcher{
		Timeout:      cfg.Watch.Timeout.Std(),
		UserAgent:    cfg.Watch.UserAgent,
		MaxBody:      cfg.Watch.MaxBodySize,
		AllowPrivate: cfg.Watch.AllowPrivateTargets,
	}
	interp := step.NewInterpreter(methods)
	dispatcher := notifier.NewDispatcher(cfg.Watch.NotifyRatePerSec, cfg.Watch.NotifyBurst, logger)
	pipeline := watch.NewPipeline(cfg.Targets, fetch, interp, dispatcher, history, cfg.Watch.Workers, logger)

	if *once {
		runOnce(ctx, cfg, pipeline, dispatcher, logger)
		logger.Info("single pass complete")
		return
	}

	go pipeline.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info("received signal, shutting down", "signal", sig)

	cancel()
	logger.Info("shutdown complete")
}

// runOnce performs a single fetch for every target, then reconciles the
// Telegram channels that can be read back against the observed values.
func runOnce(ctx context.Context, cfg *config.Config, pipeline *watch.Pipeline, dispatcher *notifier.Dispatcher, logger *slog.Logger) {
	pipeline.RunOnce(ctx)

	reconciler := notifier.NewReconciler(dispatcher, logger)
	for _, t := range cfg.Targets {
		st, ok := pipeline.State(t.Name)
		if !ok || st.LastResult == nil {
			continue
		}
		reconciler.Reconcile(ctx, t.Name, t.Website, t.Notify, *st.LastResult)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: webwatch [flags] <config-file>\n\nFlags:\n")
	flag.PrintDefaults()
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
