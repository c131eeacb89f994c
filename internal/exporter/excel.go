package exporter

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	apperrors "incomefit/internal/errors"
)

// ExcelWriter exports checkpoint tables as analyst-facing workbooks.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates a new Excel writer instance
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger}
}

// WriteWorkbook writes a single-sheet workbook with a header row followed by
// data records.
func (w *ExcelWriter) WriteWorkbook(filePath, sheet string, headers []string, records [][]string) error {
	w.logger.Info("writing Excel workbook",
		slog.String("path", filePath),
		slog.String("sheet", sheet),
		slog.Int("record_count", len(records)))

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return apperrors.NewStorageError("failed to create worksheet", err)
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return apperrors.NewStorageError("failed to drop default worksheet", err)
		}
	}

	if err := writeRow(f, sheet, 1, headers); err != nil {
		return err
	}
	for i, record := range records {
		if err := writeRow(f, sheet, i+2, record); err != nil {
			return err
		}
	}

	if err := f.SaveAs(filePath); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to resolve cell for row %d", row), err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write row %d", row), err)
	}
	return nil
}
