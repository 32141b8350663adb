package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/poi-cli/internal/catalog"
	"github.com/sells-group/poi-cli/internal/harvest"
	"github.com/sells-group/poi-cli/internal/overpass"
	"github.com/sells-group/poi-cli/internal/resilience"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch raw Overpass responses for the survey matrix",
	Long: `Query the Overpass API for every (region, category) pair and persist
the raw JSON responses under the data directory, one file per pair.

Pairs whose file already exists are skipped, so the command is safe to re-run
after a partial failure. A pair that still fails after retries is logged and
left absent; the run continues with the next pair.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cat, err := catalog.Resolve(cfg.Data.CatalogPath)
		if err != nil {
			return err
		}

		retry := resilience.DefaultRetryConfig()
		retry.MaxAttempts = cfg.Overpass.MaxRetries

		client := overpass.NewClient(overpass.ClientOptions{
			BaseURL:   cfg.Overpass.BaseURL,
			UserAgent: cfg.Overpass.UserAgent,
			Timeout:   cfg.Overpass.Timeout(),
			RateRPS:   cfg.Overpass.RateRPS,
			Retry:     retry,
		})

		engine := harvest.NewEngine(client, cat, cfg.Data.Dir)

		zap.L().Info("starting fetch",
			zap.String("data_dir", cfg.Data.Dir),
			zap.Int("regions", len(cat.Regions)),
			zap.Int("categories", len(cat.Categories)),
		)

		if _, err := engine.Run(ctx); err != nil {
			return eris.Wrap(err, "fetch")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
