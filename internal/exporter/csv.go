// Package exporter writes analytical results (grouped statistics tables and
// correlation matrices) to CSV files.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"wellwq/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality rooted at an output directory.
type CSVWriter struct {
	outDir string
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(outDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{outDir: outDir, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(fileName string, options WriteOptions) error {
	fullPath := filepath.Join(w.outDir, fileName)

	w.logger.Info("writing CSV file",
		slog.String("path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// BOM helps Excel recognize UTF-8
	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return writer.Error()
}

// WriteAggregation writes a grouped statistics table. Columns are Year,
// Season, then one column per requested statistic in the given order.
// Undefined statistics render as empty cells.
func (w *CSVWriter) WriteAggregation(fileName string, result *domain.AggregationResult, statistics []string) error {
	headers := append([]string{"Year", "Season"}, statistics...)

	records := make([][]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		record := []string{strconv.Itoa(row.Year), row.Season}
		for _, stat := range statistics {
			record = append(record, formatStat(row.Statistics[stat]))
		}
		records = append(records, record)
	}

	return w.WriteCSV(fileName, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// WriteCorrelation writes a correlation matrix with parameter names on both
// axes. NaN cells (degenerate zero-variance columns) render empty.
func (w *CSVWriter) WriteCorrelation(fileName string, matrix *domain.CorrelationMatrix) error {
	headers := append([]string{"Parameter"}, matrix.Parameters...)

	records := make([][]string, 0, len(matrix.Parameters))
	for i, param := range matrix.Parameters {
		record := make([]string, 0, len(matrix.Parameters)+1)
		record = append(record, param)
		for j := range matrix.Parameters {
			v := matrix.Values[i][j]
			if math.IsNaN(v) {
				record = append(record, "")
			} else {
				record = append(record, strconv.FormatFloat(v, 'f', 4, 64))
			}
		}
		records = append(records, record)
	}

	return w.WriteCSV(fileName, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// formatStat renders a statistic value, empty when undefined.
func formatStat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
