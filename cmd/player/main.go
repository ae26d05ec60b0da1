// Package main provides the player daemon entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/soundkite/radiobox/internal/api/control"
	"github.com/soundkite/radiobox/internal/app/events"
	"github.com/soundkite/radiobox/internal/app/lifecycle"
	"github.com/soundkite/radiobox/internal/app/player"
	"github.com/soundkite/radiobox/internal/app/prefs"
	"github.com/soundkite/radiobox/internal/infra/audio"
	"github.com/soundkite/radiobox/internal/infra/config"
	"github.com/soundkite/radiobox/internal/infra/logger"
	"github.com/soundkite/radiobox/internal/infra/notify"
	"github.com/soundkite/radiobox/internal/infra/store"
)

var (
	app        = kingpin.New("radiobox", "single-stream internet radio player daemon")
	configPath = app.Flag("config", "Path to config file").Default("config/player.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
	autoplay   = app.Flag("play", "Start playback immediately").Bool()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Output: "stdout", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Player error: %v", err)
		os.Exit(1)
	}
}

// run executes the daemon. A separate function ensures defers run even when
// returning with an error.
func run(cfg *config.Config) error {
	// Preference storage
	kv, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open preference store: %w", err)
	}
	defer kv.Close()

	adapter := prefs.NewAdapter(kv)
	defer adapter.Close()

	volume := cfg.Playback.DefaultVolume
	if v, ok := adapter.Load(); ok {
		volume = v
	}
	zlog.Info().Msgf("Startup volume: %.2f", volume)

	// Audio engine
	engine, err := audio.New(cfg.Engine)
	if err != nil {
		return fmt.Errorf("failed to create audio engine: %w", err)
	}

	// Playback session
	session := player.NewSession(engine, adapter, player.Config{
		StreamURL:      cfg.Stream.URL,
		MaxRetries:     cfg.Playback.MaxRetries,
		RetryBaseDelay: time.Duration(cfg.Playback.RetryBaseDelayMs) * time.Millisecond,
		InitialVolume:  volume,
	})
	defer session.Close()

	// Desktop notifications
	var notifier notify.Notifier
	if !cfg.Notification.Disabled {
		notifier, err = notify.New(cfg.Notification.AppName)
		if err != nil {
			return fmt.Errorf("failed to create notifier: %w", err)
		}
	} else {
		notifier = notify.Disabled()
	}

	coordinator := lifecycle.NewCoordinator(session, notifier, lifecycle.Config{
		Title: cfg.Notification.Title,
		Body:  cfg.Notification.Body,
	})

	// Event fan-out: coordinator and websocket clients subscribe here.
	broker := events.NewBroker()
	defer broker.Close()
	broker.Subscribe(events.SinkFunc(coordinator.HandleEvent))
	go broker.Run(session.Events())

	// Control API
	service := control.NewService(session, coordinator, broker, cfg.Stream.Name)
	mux := http.NewServeMux()
	service.Register(mux)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting control API: addr=%s stream=%s", cfg.Server.Addr, cfg.Stream.URL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	if *autoplay {
		session.Start()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session.Stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Player stopped")
	return nil
}
