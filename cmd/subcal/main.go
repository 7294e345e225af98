package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"subcal/internal/config"
	"subcal/internal/feed"
	appLog "subcal/internal/log"
	"subcal/internal/timeline"
	"subcal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	cacheDir   string
	once       bool
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("subcal starting", "version", "0.1.0-dev")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"window_before", conf.WindowBefore,
		"window_after", conf.WindowAfter,
		"feed_count", len(conf.Feeds),
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	loc := conf.Location()
	sources := make([]feed.Source, 0, len(conf.Feeds))
	for _, fc := range conf.Feeds {
		if fc.URL == "" {
			continue
		}
		id := fc.ID
		if id == "" {
			if fc.Name != "" {
				id = fc.Name
			} else {
				id = fc.URL
			}
		}
		sources = append(sources, feed.Source{
			ID:   id,
			Name: fc.Name,
			URL:  fc.URL,
			Kind: feed.Kind(fc.Kind),
		})
	}

	client := feed.NewClient(feed.NewFetcher(flags.cacheDir), sources, loc)
	loader := timeline.NewLoader(client, loc)

	// Initial window load. A failure here is non-fatal; the cron refresh
	// or an API widen will retry the identical range.
	if err := loader.RequestWindow(ctx, conf.WindowBefore, conf.WindowAfter); err != nil {
		appLog.Error("initial window load failed", err)
	}

	if flags.once {
		groups, loaded := loader.Snapshot()
		appLog.Info("single-shot load complete",
			"groups", len(groups),
			"before", loaded.Before,
			"after", loaded.After,
		)
		return
	}

	// Periodic refresh of the already-loaded range.
	sched := cron.New()
	if _, err := sched.AddFunc(conf.RefreshCron, func() {
		rctx, rcancel := context.WithTimeout(ctx, time.Minute)
		defer rcancel()
		if err := loader.Refresh(rctx); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	}); err != nil {
		appLog.Error("invalid refresh cron spec", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:    conf.Listen,
		Handler: web.NewServer(conf, loader).Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, sdCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer sdCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}

	appLog.Info("subcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/subcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.cacheDir, "cache-dir", "/var/lib/subcal/feed-cache", "Feed cache directory")
	flag.BoolVar(&cfg.once, "once", false, "Load the initial window once and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
