package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "incomefit/internal/errors"
)

// CSVWriter provides CSV export functionality for checkpoint tables.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Info("writing CSV file",
		slog.String("path", filePath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return apperrors.NewStorageError("failed to create CSV file", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return apperrors.NewStorageError("failed to write BOM", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return apperrors.NewStorageError("failed to write CSV header row", err)
		}
	}

	for _, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return apperrors.NewStorageError("failed to write CSV data row", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStorageError("failed to flush CSV writer", err)
	}
	return nil
}

// WriteSimpleCSV writes a CSV file with headers and records.
func (w *CSVWriter) WriteSimpleCSV(filePath string, headers []string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers: headers,
		Records: records,
	})
}

// ReadCSV reads a CSV file and returns its header row and data records.
// Tolerates an optional UTF-8 BOM on the first header field.
func ReadCSV(filePath string) ([]string, [][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, apperrors.NewStorageError("failed to open CSV file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, apperrors.NewParsingError("failed to read CSV file", err)
	}
	if len(rows) == 0 {
		return nil, nil, apperrors.NewParsingError("CSV file is empty", nil)
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}
	return header, rows[1:], nil
}

func trimBOM(s string) string {
	const bom = "\xef\xbb\xbf"
	if len(s) >= 3 && s[:3] == bom {
		return s[3:]
	}
	return s
}

// CheckHeader verifies that a loaded header row matches a table contract.
func CheckHeader(got, want []string) error {
	match := len(got) == len(want)
	if match {
		for i := range want {
			if strings.TrimSpace(got[i]) != want[i] {
				match = false
				break
			}
		}
	}
	if !match {
		return apperrors.NewParsingError(
			fmt.Sprintf("unexpected header %v, want %v", got, want), nil)
	}
	return nil
}

// ParseFloat parses a CSV field as float64 with row context in the error.
func ParseFloat(field string, row int, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, apperrors.NewParsingError(fmt.Sprintf("row %d: bad %s", row, name), err)
	}
	return v, nil
}

// ParseInt parses a CSV field as int with row context in the error.
func ParseInt(field string, row int, name string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, apperrors.NewParsingError(fmt.Sprintf("row %d: bad %s", row, name), err)
	}
	return v, nil
}

// FormatFloat renders a float with the fewest digits that survive a
// round-trip, keeping checkpoint reloads exact.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
