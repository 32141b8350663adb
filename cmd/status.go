package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/poi-cli/internal/catalog"
	"github.com/sells-group/poi-cli/internal/harvest"
	"github.com/sells-group/poi-cli/internal/overpass"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show fetch progress for the survey matrix",
	Long:  "Display which (region, category) raw files exist, their sizes, and element counts.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := catalog.Resolve(cfg.Data.CatalogPath)
		if err != nil {
			return err
		}

		fetched, missing := 0, 0
		for _, region := range cat.Regions {
			for _, c := range cat.Categories {
				path := harvest.PairPath(cfg.Data.Dir, region.Name, c.Name)
				info, err := os.Stat(path)
				if err != nil {
					fmt.Printf("%-16s %-18s missing\n", region.Name, c.Name)
					missing++
					continue
				}

				elements := "?"
				if raw, err := os.ReadFile(path); err == nil {
					if resp, err := overpass.Decode(raw); err == nil {
						elements = fmt.Sprintf("%d", len(resp.Elements))
					}
				}

				fmt.Printf("%-16s %-18s %8d bytes  %s elements\n",
					region.Name, c.Name, info.Size(), elements)
				fetched++
			}
		}

		fmt.Printf("\n%d fetched, %d missing of %d pairs\n",
			fetched, missing, fetched+missing)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
