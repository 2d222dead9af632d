package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vietddude/weatherwatch/internal/control"
	"github.com/vietddude/weatherwatch/internal/core/config"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve weather queries over HTTP",
	Run:   runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func apiConfig(cfg *config.AppConfig) control.APIConfig {
	return control.APIConfig{
		Port:            cfg.API.Port,
		DataService:     cfg.API.DataService,
		FallbackEnabled: cfg.API.Fallback.Enabled,
		Fallback:        cfg.API.Fallback.Config,
		Query:           cfg.API.Query,
		Redis:           cfg.Redis,
	}
}

func runAPI(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	app, err := control.NewAPI(apiConfig(cfg))
	if err != nil {
		slog.Error("Failed to initialize API", "error", err)
		os.Exit(1)
	}

	run("API", app)
}
