package exporter

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellwq/pkg/contracts/domain"
)

func readReport(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.TrimPrefix(string(data), "\xef\xbb\xbf")
}

func f(v float64) *float64 { return &v }

func TestCSVWriter_WriteAggregation(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, slog.Default())

	result := &domain.AggregationResult{
		Parameter: "EC",
		Rows: []domain.AggregateRow{
			{
				Year:   2015,
				Season: "Pre-Monsoon",
				Statistics: map[string]*float64{
					"mean":               f(410),
					"count":              f(2),
					"standard_deviation": nil,
				},
			},
			{
				Year:   2015,
				Season: "Post-Monsoon",
				Statistics: map[string]*float64{
					"mean":               f(425),
					"count":              f(2),
					"standard_deviation": f(7.0710678118654755),
				},
			},
		},
	}

	err := w.WriteAggregation("statistics.csv", result, []string{"mean", "count", "standard_deviation"})
	require.NoError(t, err)

	content := readReport(t, filepath.Join(dir, "statistics.csv"))
	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "Year,Season,mean,count,standard_deviation", lines[0])
	assert.Equal(t, "2015,Pre-Monsoon,410,2,", lines[1], "undefined statistic renders empty")
	assert.True(t, strings.HasPrefix(lines[2], "2015,Post-Monsoon,425,2,7.07"))
}

func TestCSVWriter_WriteCorrelation(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, slog.Default())

	matrix := &domain.CorrelationMatrix{
		Method:     "pearson",
		Parameters: []string{"EC", "TDS"},
		Values: [][]float64{
			{1.0, 0.98765},
			{0.98765, 1.0},
		},
		CompleteRows: 4,
	}

	err := w.WriteCorrelation("correlation_pearson.csv", matrix)
	require.NoError(t, err)

	content := readReport(t, filepath.Join(dir, "correlation_pearson.csv"))
	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "Parameter,EC,TDS", lines[0])
	assert.Equal(t, "EC,1.0000,0.9877", lines[1])
	assert.Equal(t, "TDS,0.9877,1.0000", lines[2])
}

func TestCSVWriter_WriteCorrelation_NaNRendersEmpty(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, slog.Default())

	matrix := &domain.CorrelationMatrix{
		Method:     "pearson",
		Parameters: []string{"EC", "pH"},
		Values: [][]float64{
			{1.0, math.NaN()},
			{math.NaN(), 1.0},
		},
	}

	err := w.WriteCorrelation("correlation_pearson.csv", matrix)
	require.NoError(t, err)

	content := readReport(t, filepath.Join(dir, "correlation_pearson.csv"))
	lines := strings.Split(strings.TrimSpace(content), "\n")
	assert.Equal(t, "EC,1.0000,", lines[1])
}

func TestCSVWriter_BOMPrefix(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, slog.Default())

	err := w.WriteCSV("report.csv", WriteOptions{
		Headers:   []string{"A"},
		Records:   [][]string{{"1"}},
		BOMPrefix: true,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "report.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\xef\xbb\xbf"))
}
