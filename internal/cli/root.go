package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"
	"github.com/vietddude/weatherwatch/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "weatherwatch",
	Short: "Weather ingestion and query service",
	Long: `Weatherwatch periodically pulls observations from a weather provider into
a store (loader) and serves current conditions and averages over HTTP (api).`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// service is a process started by a subcommand.
type service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// loadConfig reads .env and the config file, then initializes logging.
func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	initLogging(cfg.Logging, isDebug)
	return cfg
}

func logLevel(cfg config.LoggingConfig, debug bool) slog.Level {
	switch {
	case debug || cfg.Level == "debug":
		return slog.LevelDebug
	case cfg.Level == "warn":
		return slog.LevelWarn
	case cfg.Level == "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// initLogging installs the default logger: tinted text for terminals, or
// JSON lines when logging.format is json.
func initLogging(cfg config.LoggingConfig, debug bool) {
	level := logLevel(cfg, debug)
	if cfg.Format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return
	}
	stylelog.InitDefault(&tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})
}

// run starts svc and blocks until SIGINT or SIGTERM, then shuts it down.
func run(name string, svc service) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := svc.Start(ctx); err != nil {
		slog.Error("Failed to start "+name, "error", err)
		os.Exit(1)
	}

	slog.Info(name+" started", "config", cfgPath)

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := svc.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info(name + " stopped gracefully")
}
