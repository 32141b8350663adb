package flatten

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// writeCSV writes records as rows of a single delimited file under header.
func writeCSV(path string, header []string, records []record) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "flatten: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrapf(err, "flatten: write header %s", path)
	}

	row := make([]string, len(header))
	for i := range records {
		for j, col := range header {
			row[j] = records[i].cell(col)
		}
		if err := w.Write(row); err != nil {
			return eris.Wrapf(err, "flatten: write row %s", path)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "flatten: flush %s", path)
	}
	return nil
}

// writeSplit writes one CSV per category, keeping only the tag columns that
// hold at least one value within that category. Returns the written paths.
func (f *Flattener) writeSplit(tagCols []string, records []record) ([]string, error) {
	log := zap.L().With(zap.String("component", "flatten"))

	byPurpose := make(map[string][]record)
	for _, r := range records {
		byPurpose[r.purpose] = append(byPurpose[r.purpose], r)
	}

	var paths []string
	for _, cat := range f.cat.Categories {
		group := byPurpose[cat.Name]
		if len(group) == 0 {
			continue
		}

		kept := make([]string, 0, len(tagCols))
		for _, col := range tagCols {
			if columnHasValue(group, col) {
				kept = append(kept, col)
			}
		}
		if dropped := len(tagCols) - len(kept); dropped > 0 {
			log.Info("dropped empty tag columns",
				zap.String("category", cat.Name),
				zap.Int("dropped", dropped),
			)
		}

		header := append(append([]string{}, fixedColumns...), kept...)
		path := filepath.Join(f.OutputDir(), cat.Name+".csv")
		if err := writeCSV(path, header, group); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func columnHasValue(records []record, col string) bool {
	for i := range records {
		if records[i].cell(col) != "" {
			return true
		}
	}
	return false
}
