package flatten

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// writeXLSX writes the combined dataset as a single-sheet workbook for
// consumers who work in spreadsheets rather than on the raw CSV.
func writeXLSX(path string, header []string, records []record) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("combined")
	if err != nil {
		return eris.Wrap(err, "flatten: add xlsx sheet")
	}

	headerRow := sheet.AddRow()
	for _, col := range header {
		headerRow.AddCell().SetString(col)
	}

	for i := range records {
		row := sheet.AddRow()
		for _, col := range header {
			row.AddCell().SetString(records[i].cell(col))
		}
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "flatten: save %s", path)
	}
	return nil
}
