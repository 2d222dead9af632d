package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/weatherwatch/internal/health"
)

var (
	statusURL    string
	statusLoader bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the health of a running loader or api process",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusURL, "url", "", "health endpoint (defaults to the configured api port)")
	statusCmd.Flags().BoolVar(&statusLoader, "loader", false, "query the loader health port instead of the api")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	url := statusURL
	if url == "" {
		cfg := loadConfig()
		port := cfg.API.Port
		if statusLoader {
			port = cfg.Loader.HealthPort
		}
		url = fmt.Sprintf("http://localhost:%d/health/detailed", port)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := fetchReport(ctx, url)
	if err != nil {
		slog.Error("Failed to fetch health report", "url", url, "error", err)
		os.Exit(1)
	}

	if err := printReport(os.Stdout, report); err != nil {
		slog.Error("Failed to print health report", "error", err)
		os.Exit(1)
	}
}

func fetchReport(ctx context.Context, url string) (*health.HealthReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// 503 still carries a report.
	var report health.HealthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode report (HTTP %d): %w", resp.StatusCode, err)
	}
	return &report, nil
}

func printReport(out io.Writer, report *health.HealthReport) error {
	_, _ = fmt.Fprintf(out, "System: %s\n\n", report.SystemStatus)

	names := make([]string, 0, len(report.Components))
	for name := range report.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "COMPONENT\tSTATUS\tDETAILS")
	for _, name := range names {
		c := report.Components[name]
		detail := c.Error
		if detail == "" && len(c.Details) > 0 {
			b, _ := json.Marshal(c.Details)
			detail = string(b)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", name, c.Status, detail)
	}
	return w.Flush()
}
