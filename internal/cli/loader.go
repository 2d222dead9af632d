package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vietddude/weatherwatch/internal/control"
	"github.com/vietddude/weatherwatch/internal/core/config"
)

var loaderCmd = &cobra.Command{
	Use:   "loader",
	Short: "Run the ingestion scheduler and the data service",
	Run:   runLoader,
}

func init() {
	rootCmd.AddCommand(loaderCmd)
}

func loaderConfig(cfg *config.AppConfig) control.LoaderConfig {
	return control.LoaderConfig{
		HealthPort: cfg.Loader.HealthPort,
		GRPCAddr:   cfg.Loader.GRPCAddr,
		Provider:   cfg.Loader.Provider,
		Schedule:   cfg.Loader.Schedule,
		Database:   cfg.Database,
	}
}

func runLoader(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	app, err := control.NewLoader(context.Background(), loaderConfig(cfg))
	if err != nil {
		slog.Error("Failed to initialize Loader", "error", err)
		os.Exit(1)
	}

	run("Loader", app)
}
