package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/me/mesas/internal/config"
	"github.com/me/mesas/internal/engine"
	"github.com/me/mesas/internal/logging"
	"github.com/me/mesas/internal/notify"
	"github.com/me/mesas/internal/reminder"
	"github.com/me/mesas/internal/scheduling"
	"github.com/me/mesas/internal/server"
	"github.com/me/mesas/internal/store"
	"github.com/me/mesas/internal/validate"
)

func main() {
	configFile := flag.String("config", os.Getenv("MESAS_CONFIG"), "Path to YAML config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (text, json)")
	driver := flag.String("store", "", "Store driver: sqlite or postgres")
	dbPath := flag.String("db", "", "SQLite database path (default ~/.mesas/mesas.db)")
	strategy := flag.String("notifier", "", "Initial notifier strategy: broadcast, push, log")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	genVAPID := flag.Bool("gen-vapid", false, "Print a fresh VAPID key pair and exit")

	flag.Parse()

	if *genVAPID {
		pub, priv, err := notify.GenerateVAPIDKeys()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate VAPID keys: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("MESAS_VAPID_PUBLIC_KEY=%s\nMESAS_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	override(&cfg.Addr, *addr)
	override(&cfg.LogLevel, *logLevel)
	override(&cfg.LogFormat, *logFormat)
	override(&cfg.Store.Driver, *driver)
	override(&cfg.Store.DBPath, *dbPath)
	override(&cfg.Notifier.Strategy, *strategy)
	if *debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	loc, _ := cfg.Location()

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open store and run migrations.
	st, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "migrate store: %v\n", err)
		os.Exit(1)
	}

	// Notification strategies. The log sink is always available; push
	// needs VAPID keys.
	hub := notify.NewHub(nil, logger)
	defer hub.Close()
	disp := notify.NewDispatcher(notify.NewLogSink(logger), logger)
	disp.Register(notify.NewBroadcast(hub, logger))

	serverOpts := []server.Option{server.WithHub(hub)}
	var cleaner reminder.Cleaner
	if cfg.Notifier.VAPIDPublicKey != "" && cfg.Notifier.VAPIDPrivateKey != "" {
		transport := notify.NewWebPushTransport(notify.VAPIDConfig{
			PublicKey:  cfg.Notifier.VAPIDPublicKey,
			PrivateKey: cfg.Notifier.VAPIDPrivateKey,
			Subscriber: cfg.Notifier.VAPIDSubscriber,
		})
		push := notify.NewPush(notify.NewRegistry(cfg.Notifier.SubscriptionTTL), transport, cfg.Notifier.PushTimeout, logger)
		disp.Register(push)
		serverOpts = append(serverOpts, server.WithPush(push))
		cleaner = push
		logger.Info("web push enabled", "subscription_ttl", cfg.Notifier.SubscriptionTTL)
	}
	if err := disp.Use(cfg.Notifier.Strategy); err != nil {
		fmt.Fprintf(os.Stderr, "notifier: %v\n", err)
		os.Exit(1)
	}

	eng := engine.New(st, disp, engine.NewLocks(), logger)
	svc := scheduling.New(st, eng, disp, logger,
		scheduling.WithRules(validate.Rules{MinLeadTime: cfg.Rules.MinLeadTime, ConflictWindow: cfg.Rules.ConflictWindow}),
		scheduling.WithLocation(loc),
	)
	rem := reminder.NewProcessor(st, disp, loc, logger)
	loop := reminder.NewLoop(rem, cleaner, reminder.Config{
		Interval:        cfg.Reminders.Interval,
		CleanupInterval: cfg.Reminders.CleanupInterval,
	}, logger)
	serverOpts = append(serverOpts, server.WithReminderLoop(loop))

	srv := server.New(cfg, svc, rem, disp, logger, serverOpts...)
	if len(cfg.AdminTokens) == 0 {
		logger.Warn("no admin tokens configured; administrative endpoints are open")
	}

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	srv.StartReminders(ctx)

	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "store", cfg.Store.Driver,
			"notifier", cfg.Notifier.Strategy, "timezone", loc.String())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Stop the reminder loop before the HTTP server.
	if err := loop.Stop(); err != nil {
		logger.Error("reminder loop stop error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func override(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// openStore opens the configured driver. An empty SQLite path resolves to
// ~/.mesas/mesas.db.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (store.Store, error) {
	if cfg.Driver == "postgres" {
		st, err := store.NewPostgresStore(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("database ready", "driver", "postgres")
		return st, nil
	}

	path := cfg.DBPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir := filepath.Join(home, ".mesas")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create %s: %w", dir, err)
		}
		path = filepath.Join(dir, "mesas.db")
	}
	st, err := store.NewSQLiteStore(path, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("database ready", "driver", "sqlite", "path", path)
	return st, nil
}
