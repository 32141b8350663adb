// Package flatten reads every raw Overpass response under the data directory
// and consolidates the descriptive elements into a single wide CSV. Columns
// are the union of all tag keys seen across all files, so no tag is ever
// silently dropped; records missing a column get an empty cell.
package flatten

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/poi-cli/internal/catalog"
	"github.com/sells-group/poi-cli/internal/overpass"
)

// Leading output columns, in order, ahead of the discovered tag columns.
var fixedColumns = []string{
	"latitude", "longitude", "query_purpose", "query_county", "osm_id", "osm_type",
}

// Options configures optional outputs beyond the combined CSV.
type Options struct {
	// SplitByPurpose additionally writes one CSV per category, dropping tag
	// columns that are empty across that category's rows.
	SplitByPurpose bool

	// XLSX additionally writes the combined dataset as a spreadsheet.
	XLSX bool
}

// Flattener consolidates fetched raw responses into tabular output.
type Flattener struct {
	cat     *catalog.Catalog
	dataDir string
	opts    Options
}

// Summary reports the outcome of one flatten run.
type Summary struct {
	Records      int
	Files        int
	SkippedFiles int
	ByRegion     map[string]int
	ByCategory   map[string]int
	Outputs      []string
}

// record is one flattened element before serialization.
type record struct {
	county  string
	purpose string
	id      int64
	typ     string
	coords  *overpass.Coords
	tags    map[string]string
}

// New creates a flattener reading raw files under dataDir.
func New(cat *catalog.Catalog, dataDir string, opts Options) *Flattener {
	return &Flattener{cat: cat, dataDir: dataDir, opts: opts}
}

// OutputDir returns the directory holding the tabular outputs.
func (f *Flattener) OutputDir() string {
	return filepath.Join(f.dataDir, "csv")
}

// CombinedPath returns the path of the consolidated CSV.
func (f *Flattener) CombinedPath() string {
	return filepath.Join(f.OutputDir(), "combined_data.csv")
}

// Run recomputes the consolidated output from every fetched file. Malformed
// or unknown files are logged and skipped; they never abort the run.
func (f *Flattener) Run() (*Summary, error) {
	log := zap.L().With(zap.String("component", "flatten"))

	sum := &Summary{
		ByRegion:   make(map[string]int),
		ByCategory: make(map[string]int),
	}

	var records []record
	cols := newColumnSet()

	entries, err := os.ReadDir(f.dataDir)
	if err != nil {
		return nil, eris.Wrapf(err, "flatten: read data dir %s", f.dataDir)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		county := entry.Name()
		if !f.cat.HasRegion(county) {
			if county != "csv" {
				log.Warn("skipping unknown region directory", zap.String("dir", county))
			}
			continue
		}

		files, err := os.ReadDir(filepath.Join(f.dataDir, county))
		if err != nil {
			log.Error("cannot read region directory", zap.String("region", county), zap.Error(err))
			continue
		}

		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
				continue
			}
			purpose := strings.TrimSuffix(file.Name(), ".json")
			if !f.cat.HasCategory(purpose) {
				log.Warn("skipping unknown category file",
					zap.String("region", county),
					zap.String("file", file.Name()),
				)
				continue
			}

			path := filepath.Join(f.dataDir, county, file.Name())
			rows, err := f.processFile(path, purpose, county, cols)
			if err != nil {
				log.Error("skipping unreadable file", zap.String("path", path), zap.Error(err))
				sum.SkippedFiles++
				continue
			}

			log.Info("processed",
				zap.String("region", county),
				zap.String("category", purpose),
				zap.Int("records", len(rows)),
			)
			records = append(records, rows...)
			sum.Files++
			sum.ByRegion[county] += len(rows)
			sum.ByCategory[purpose] += len(rows)
		}
	}

	sum.Records = len(records)
	if len(records) == 0 {
		log.Warn("no records to flatten")
		return sum, nil
	}

	// Deterministic row order so repeated runs produce identical bytes.
	sort.Slice(records, func(i, j int) bool {
		if records[i].county != records[j].county {
			return records[i].county < records[j].county
		}
		if records[i].purpose != records[j].purpose {
			return records[i].purpose < records[j].purpose
		}
		return records[i].id < records[j].id
	})

	if err := os.MkdirAll(f.OutputDir(), 0o755); err != nil {
		return sum, eris.Wrapf(err, "flatten: create output dir %s", f.OutputDir())
	}

	header := append(append([]string{}, fixedColumns...), cols.order...)
	if err := writeCSV(f.CombinedPath(), header, records); err != nil {
		return sum, err
	}
	sum.Outputs = append(sum.Outputs, f.CombinedPath())

	if f.opts.SplitByPurpose {
		paths, err := f.writeSplit(cols.order, records)
		if err != nil {
			return sum, err
		}
		sum.Outputs = append(sum.Outputs, paths...)
	}

	if f.opts.XLSX {
		xlsxPath := filepath.Join(f.OutputDir(), "combined_data.xlsx")
		if err := writeXLSX(xlsxPath, header, records); err != nil {
			return sum, err
		}
		sum.Outputs = append(sum.Outputs, xlsxPath)
	}

	logSummary(log, sum, records)
	return sum, nil
}

// processFile parses one raw response and flattens its descriptive elements.
// New tag keys are registered on cols in sorted order per element so the
// discovered column order does not depend on map iteration.
func (f *Flattener) processFile(path, purpose, county string, cols *columnSet) ([]record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "flatten: read %s", path)
	}

	resp, err := overpass.Decode(raw)
	if err != nil {
		return nil, err
	}

	lookup := overpass.BuildNodeLookup(resp.Elements)

	var rows []record
	for _, el := range resp.Elements {
		if !f.cat.Meaningful(el.Tags) {
			continue
		}

		rec := record{
			county:  county,
			purpose: purpose,
			id:      el.ID,
			typ:     el.Type,
			tags:    el.Tags,
		}
		if c, ok := lookup.Resolve(el); ok {
			rec.coords = &c
		}

		keys := make([]string, 0, len(el.Tags))
		for k := range el.Tags {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cols.add(k)
		}

		rows = append(rows, rec)
	}

	return rows, nil
}

// cell returns the serialized value of one column for a record. Missing tag
// values and unresolved coordinates serialize as empty cells.
func (r *record) cell(col string) string {
	switch col {
	case "latitude":
		if r.coords != nil {
			return strconv.FormatFloat(r.coords.Lat, 'f', -1, 64)
		}
		return ""
	case "longitude":
		if r.coords != nil {
			return strconv.FormatFloat(r.coords.Lon, 'f', -1, 64)
		}
		return ""
	case "query_purpose":
		return r.purpose
	case "query_county":
		return r.county
	case "osm_id":
		return strconv.FormatInt(r.id, 10)
	case "osm_type":
		return r.typ
	default:
		return r.tags[col]
	}
}

// columnSet tracks tag columns in discovery order.
type columnSet struct {
	order []string
	seen  map[string]struct{}
}

func newColumnSet() *columnSet {
	cs := &columnSet{seen: make(map[string]struct{}, len(fixedColumns))}
	for _, c := range fixedColumns {
		cs.seen[c] = struct{}{}
	}
	return cs
}

func (c *columnSet) add(key string) {
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	c.order = append(c.order, key)
}

// logSummary emits per-region and per-category counts plus the spatial extent
// of all records that resolved coordinates.
func logSummary(log *zap.Logger, sum *Summary, records []record) {
	for _, r := range sortedKeys(sum.ByRegion) {
		log.Info("records by region", zap.String("region", r), zap.Int("count", sum.ByRegion[r]))
	}
	for _, c := range sortedKeys(sum.ByCategory) {
		log.Info("records by category", zap.String("category", c), zap.Int("count", sum.ByCategory[c]))
	}

	bounds := geom.NewBounds(geom.XY)
	located := 0
	for _, r := range records {
		if r.coords == nil {
			continue
		}
		bounds.Extend(geom.NewPointFlat(geom.XY, []float64{r.coords.Lon, r.coords.Lat}))
		located++
	}
	if located > 0 {
		log.Info("spatial extent",
			zap.Int("located", located),
			zap.Float64("min_lon", bounds.Min(0)),
			zap.Float64("min_lat", bounds.Min(1)),
			zap.Float64("max_lon", bounds.Max(0)),
			zap.Float64("max_lat", bounds.Max(1)),
		)
	}

	log.Info("flatten complete",
		zap.Int("files", sum.Files),
		zap.Int("skipped_files", sum.SkippedFiles),
		zap.Int("records", sum.Records),
		zap.Strings("outputs", sum.Outputs),
	)
}

func sortedKeys(m map[string]int) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
