// Command resolvd is the recursive-forwarding DNS resolver's entry point:
// it loads configuration, builds the cache/filter/forwarder/pipeline
// stack, and serves UDP, TCP, and the admin HTTP API until interrupted.
// Grounded on the teacher's cmd/hydradns/main.go (flag parsing, context
// wiring via signal.NotifyContext, background API goroutine,
// graceful-shutdown-with-timeout shape), narrowed to this repo's single
// TOML config file instead of a SQLite-backed config database, and with
// cluster mode dropped (see DESIGN.md).
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
	"syscall"
	"time"

	"github.com/resolvd/resolvd/internal/api"
	"github.com/resolvd/resolvd/internal/cache"
	"github.com/resolvd/resolvd/internal/filterrules"
	"github.com/resolvd/resolvd/internal/forwarder"
	"github.com/resolvd/resolvd/internal/listener"
	"github.com/resolvd/resolvd/internal/logging"
	"github.com/resolvd/resolvd/internal/pipeline"
	"github.com/resolvd/resolvd/internal/resolvdconfig"
	"github.com/resolvd/resolvd/internal/scheduler"
	"github.com/resolvd/resolvd/internal/stats"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	configPath string
	dnsAddr    string
	adminAddr  string
	noTCP      bool
	cacheDir   string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "resolvd.toml", "Path to TOML configuration file")
	flag.StringVar(&f.dnsAddr, "dns-addr", ":53", "DNS listener bind address")
	flag.StringVar(&f.adminAddr, "admin-addr", ":8080", "Admin HTTP API bind address")
	flag.BoolVar(&f.noTCP, "no-tcp", false, "Disable the TCP listener")
	flag.StringVar(&f.cacheDir, "filter-cache-dir", "filter-cache", "Directory filter list bodies are cached to")
	flag.Parse()
	return f
}

func run() error {
	flags := parseFlags()

	cfg, err := resolvdconfig.Load(flags.configPath)
	if errors.Is(err, os.ErrNotExist) {
		logger := slog.Default()
		logger.Info("no config file found, using defaults", "path", flags.configPath)
		cfg = resolvdconfig.Default()
	} else if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.Configure(logging.Config{
		Level:      envOr("LOG_LEVEL", "INFO"),
		Structured: false,
	})
	logger.Info("resolvd starting",
		"config", flags.configPath,
		"dns_addr", flags.dnsAddr,
		"admin_addr", flags.adminAddr,
		"upstreams", cfg.UpstreamAddrs(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sink := stats.New()
	cfgStore := resolvdconfig.NewStore(flags.configPath, cfg)

	filterParser := &filterrules.Parser{CacheDir: flags.cacheDir}
	trie := loadFilters(filterParser, cfg.Filter, logger)

	fwd := forwarder.New(cfg.UpstreamAddrs())
	memCache := cache.New(sink)

	pipe := &pipeline.Pipeline{
		Cache:     memCache,
		Filters:   trie,
		Forwarder: fwd,
		Stats:     sink,
		Logger:    logger,
	}

	udpListener := &listener.UDPListener{Logger: logger, Pipeline: pipe}
	var tcpListener *listener.TCPListener
	if !flags.noTCP {
		tcpListener = &listener.TCPListener{Logger: logger, Pipeline: pipe}
	}

	adminSrv := api.New(flags.adminAddr, cfgStore, sink, logger)

	sched := scheduler.New(logger, []scheduler.Task{
		{
			Name:     resolvdconfig.TaskFilters,
			Interval: scheduleInterval(cfg, resolvdconfig.TaskFilters, 30*time.Minute),
			Run: func(ctx context.Context) {
				live := cfgStore.Get()
				pipe.Filters.ReplaceWith(loadFilters(filterParser, live.Filter, logger))
				logger.Info("filter lists refreshed", "count", len(live.Filter))
			},
		},
		{
			Name:     resolvdconfig.TaskLogs,
			Interval: scheduleInterval(cfg, resolvdconfig.TaskLogs, time.Hour),
			Run: func(ctx context.Context) {
				cutoff := time.Now().Add(-time.Duration(cfgStore.Get().KeepLogs))
				sink.PruneRequestHistoryOlderThan(cutoff)
			},
		},
	})

	var runErr error
	errCh := make(chan error, 3)

	go func() { errCh <- udpListener.Run(ctx, flags.dnsAddr) }()
	if tcpListener != nil {
		go func() { errCh <- tcpListener.Run(ctx, flags.dnsAddr) }()
	}
	go func() {
		err := adminSrv.ListenAndServe()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
			return
		}
		errCh <- err
	}()
	go sched.Run(ctx)

	select {
	case runErr = <-errCh:
		if runErr != nil {
			logger.Error("listener exited with error", "err", runErr)
			cancel()
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = adminSrv.Shutdown(shutdownCtx)
	shutdownCancel()

	<-ctx.Done()
	logger.Info("resolvd stopped")

	if runErr != nil {
		return fmt.Errorf("server exited with error: %w", runErr)
	}
	return nil
}

// loadFilters fetches and parses every configured filter list into one
// merged Trie. A single list failing to fetch is logged and skipped
// rather than aborting the whole load.
func loadFilters(p *filterrules.Parser, descriptors []resolvdconfig.Filter, logger *slog.Logger) *filterrules.Trie {
	trie := filterrules.NewTrie()
	for _, d := range descriptors {
		rules, err := p.ParseURL(d.URL)
		if err != nil {
			logger.Warn("filter list fetch failed", "name", d.Name, "url", d.URL, "err", err)
			continue
		}
		for _, r := range rules {
			trie.Insert(r)
		}
	}
	return trie
}

// scheduleInterval returns the configured interval for the named task, or
// def if the config has no entry for it.
func scheduleInterval(cfg resolvdconfig.Config, name resolvdconfig.TaskKind, def time.Duration) time.Duration {
	for _, t := range cfg.Schedule {
		if t.Name == name {
			return time.Duration(t.Schedule)
		}
	}
	return def
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

