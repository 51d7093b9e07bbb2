package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"shortcoder-go/internal/capability"
	"shortcoder-go/internal/config"
	"shortcoder-go/internal/confirm"
	"shortcoder-go/internal/db"
	"shortcoder-go/internal/dispatch"
	"shortcoder-go/internal/event"
	"shortcoder-go/internal/handlers"
	"shortcoder-go/internal/inbound"
	"shortcoder-go/internal/metrics"
	"shortcoder-go/internal/monitor"
	"shortcoder-go/internal/rules"
	"shortcoder-go/internal/server"
	"shortcoder-go/internal/store"
	"shortcoder-go/internal/trigger"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Shortcoder runtime")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var st store.Store
	switch cfg.Store.Driver {
	case "memory":
		st = store.NewMemoryStore()
		logrus.Info("Using in-memory store")
	default:
		dbConn, err := db.Init(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		st = store.NewGormStore(dbConn)
	}

	m := metrics.NewMetrics()

	var provider capability.Provider
	switch cfg.Provider.Kind {
	case "gmail":
		gmailProvider, err := capability.NewGmailProvider(&cfg.Gmail)
		if err != nil {
			return fmt.Errorf("failed to create Gmail provider: %w", err)
		}
		provider = gmailProvider
		logrus.Info("Using Gmail capability provider")
	default:
		provider = capability.NewLogProvider()
		logrus.Info("Using log capability provider")
	}

	state := event.NewStaticSource()

	dispatcher := dispatch.NewDispatcher(provider, m)
	engine := rules.NewEngine(st, provider, state, m)
	matcher := trigger.NewMatcher(st, m)
	requester := confirm.NewNotificationRequester(provider)
	gate := confirm.NewGate(st, dispatcher, requester, cfg.Confirmation.Timeout, m)
	processor := inbound.NewProcessor(engine, matcher, gate, m)

	loop := monitor.NewLoop(
		time.Duration(cfg.Monitor.IntervalSeconds)*time.Second,
		cfg.Monitor.SettingsCheckMultiple,
		st, matcher, gate, state, m,
	)

	h := handlers.NewHandlers(st, processor, gate, dispatcher, loop, state)
	router := server.SetupRouter(h)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if err := loop.Start(); err != nil {
		return fmt.Errorf("failed to start monitor loop: %w", err)
	}

	inboundCtx, stopInbound := context.WithCancel(context.Background())
	defer stopInbound()

	var imapSource *inbound.IMAPSource
	if cfg.Inbound.IMAPEnabled {
		imapSource, err = inbound.NewIMAPSource(&cfg.Gmail, processor,
			time.Duration(cfg.Inbound.IMAPIntervalSeconds)*time.Second)
		if err != nil {
			return fmt.Errorf("failed to create IMAP inbound source: %w", err)
		}
		go imapSource.Run(inboundCtx)
		logrus.Info("IMAP inbound source enabled")
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stopInbound()
	if err := loop.Stop(); err != nil {
		logrus.Errorf("Failed to stop monitor loop: %v", err)
	}
	loop.Wait()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	if imapSource != nil {
		if err := imapSource.Close(); err != nil {
			logrus.Errorf("Failed to close IMAP source: %v", err)
		}
	}

	logrus.Info("Server stopped gracefully")
	return nil
}
