package manifest

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

// Read loads rows from the first sheet of an .xlsx workbook. Cells are read
// raw so date serials reach DecodeDate unformatted.
func Read(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close manifest", "path", path, "error", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("manifest: workbook has no sheets")
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("manifest: read sheet %q: %w", sheets[0], err)
	}

	rows, err := FromRecords(records)
	if err != nil {
		return nil, err
	}
	slog.Debug("manifest loaded", "path", path, "sheet", sheets[0], "rows", len(rows))
	return rows, nil
}
