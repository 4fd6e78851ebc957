package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/catalogcrawl/internal/model"
)

// SheetName is the worksheet holding the dataset.
const SheetName = "Assessments"

// XLSXWriter outputs datasets as a single-sheet Excel workbook.
// Durations are stored as numbers; unknown durations are left blank.
type XLSXWriter struct {
	baseWriter
}

// NewXLSXWriter creates an XLSXWriter that outputs to the given writer.
func NewXLSXWriter(output io.Writer) *XLSXWriter {
	return &XLSXWriter{baseWriter: newBaseWriter(output)}
}

// WriteDataset builds the workbook and writes it to the output.
func (w *XLSXWriter) WriteDataset(d *model.Dataset) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return 0, fmt.Errorf("rename sheet: %w", err)
	}

	columns := model.Columns()
	for i, h := range columns {
		if err := setCell(f, i+1, 1, h); err != nil {
			return 0, err
		}
	}

	if d != nil {
		for r, rec := range d.Records {
			row := r + 2
			for c, v := range rec.Row() {
				var value any = v
				if columns[c] == model.ColumnDuration && rec.DurationMinutes != nil {
					value = *rec.DurationMinutes
				}
				if err := setCell(f, c+1, row, value); err != nil {
					return 0, err
				}
			}
		}
	}

	n, err := f.WriteTo(w.output)
	return int(n), err
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}
