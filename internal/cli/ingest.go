package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/weatherwatch/internal/control"
)

var ingestTimeout time.Duration

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run a single ingestion cycle and exit",
	Run:   runIngest,
}

func init() {
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 2*time.Minute, "deadline for the cycle")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	loader, err := control.NewLoader(ctx, loaderConfig(cfg))
	if err != nil {
		slog.Error("Failed to initialize Loader", "error", err)
		os.Exit(1)
	}

	if err := loader.Scheduler().RunOnce(ctx); err != nil {
		slog.Error("Ingestion failed", "error", err)
		os.Exit(1)
	}

	m, err := loader.Repository().Latest(ctx)
	if err != nil || m == nil {
		slog.Error("Failed to read stored measurement", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Stored %s at %s: %.1f°C, %.0f%% humidity, %.0f hPa\n",
		m.SourceID, m.Time().Format(time.RFC3339), m.Temperature, m.Humidity, m.Pressure)
}
