// Package harvest drives the fetch side of the pipeline: it walks the fixed
// region × category matrix, queries Overpass for each pair that has no raw
// file yet, and persists the raw response bodies under the data directory.
package harvest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/poi-cli/internal/catalog"
	"github.com/sells-group/poi-cli/internal/overpass"
)

// Querier is the slice of the Overpass client the engine needs.
type Querier interface {
	Query(ctx context.Context, query string) (*overpass.Result, error)
}

// Engine runs the harvest matrix strictly sequentially.
type Engine struct {
	client  Querier
	cat     *catalog.Catalog
	dataDir string
}

// Summary reports the outcome of one harvest run.
type Summary struct {
	Fetched int
	Skipped int
	Failed  int
}

// NewEngine creates a harvest engine writing under dataDir.
func NewEngine(client Querier, cat *catalog.Catalog, dataDir string) *Engine {
	return &Engine{
		client:  client,
		cat:     cat,
		dataDir: dataDir,
	}
}

// PairPath returns the raw response path for one (region, category) pair.
func PairPath(dataDir, region, category string) string {
	return filepath.Join(dataDir, region, category+".json")
}

// Run ensures a raw response file exists for every (region, category) pair.
// Pairs whose file already exists are skipped without a network call; a pair
// that fails after retry exhaustion is logged and does not abort the run.
// Run returns an error only when the context is cancelled.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	log := zap.L().With(zap.String("component", "harvest.engine"))

	total := len(e.cat.Regions) * len(e.cat.Categories)
	sum := &Summary{}
	done := 0

	for _, region := range e.cat.Regions {
		regionDir := filepath.Join(e.dataDir, region.Name)
		if err := os.MkdirAll(regionDir, 0o755); err != nil {
			return sum, eris.Wrapf(err, "harvest: create region dir %s", regionDir)
		}

		for _, cat := range e.cat.Categories {
			if err := ctx.Err(); err != nil {
				return sum, eris.Wrap(err, "harvest: cancelled")
			}
			done++

			pLog := log.With(
				zap.String("region", region.Name),
				zap.String("category", cat.Name),
				zap.String("progress", fmt.Sprintf("%d/%d", done, total)),
			)

			path := PairPath(e.dataDir, region.Name, cat.Name)
			if _, err := os.Stat(path); err == nil {
				pLog.Info("already fetched, skipping")
				sum.Skipped++
				continue
			}

			query := overpass.BuildAreaQuery(region.AreaID, cat.Filters)
			pLog.Info("querying", zap.Int("filters", len(cat.Filters)))

			result, err := e.client.Query(ctx, query)
			if err != nil {
				if ctx.Err() != nil {
					return sum, eris.Wrap(ctx.Err(), "harvest: cancelled")
				}
				pLog.Error("query failed", zap.Error(err))
				sum.Failed++
				continue
			}

			if err := writeRaw(path, result.Raw); err != nil {
				pLog.Error("write failed", zap.Error(err))
				sum.Failed++
				continue
			}

			pLog.Info("saved",
				zap.Int("elements", len(result.Response.Elements)),
				zap.Int("bytes", len(result.Raw)),
			)
			sum.Fetched++
		}
	}

	log.Info("harvest complete",
		zap.Int("fetched", sum.Fetched),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}

// writeRaw persists the body via a temp file and rename so an interrupted run
// never leaves a half-written file that a later run would treat as complete.
func writeRaw(path string, raw []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return eris.Wrapf(err, "harvest: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return eris.Wrapf(err, "harvest: rename %s", path)
	}
	return nil
}
