package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/poi-cli/internal/catalog"
	"github.com/sells-group/poi-cli/internal/flatten"
)

var flattenCmd = &cobra.Command{
	Use:   "flatten",
	Short: "Flatten fetched responses into a consolidated CSV",
	Long: `Read every fetched raw response under the data directory and write one
consolidated CSV with a column for every tag key seen across all files.

The output is recomputed in full on every run; running flatten twice on the
same input produces identical bytes.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := catalog.Resolve(cfg.Data.CatalogPath)
		if err != nil {
			return err
		}

		f := flatten.New(cat, cfg.Data.Dir, flatten.Options{
			SplitByPurpose: cfg.Flatten.SplitByPurpose,
			XLSX:           cfg.Flatten.XLSX,
		})

		zap.L().Info("starting flatten", zap.String("data_dir", cfg.Data.Dir))

		if _, err := f.Run(); err != nil {
			return eris.Wrap(err, "flatten")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flattenCmd)
}
