package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "wellwq/internal/errors"
	"wellwq/pkg/contracts/domain"
)

// Column names with fixed meaning in the input schema. Every other column
// is a candidate numeric parameter.
const (
	columnBasin     = "Basin"
	columnDate      = "Date"
	columnSeason    = "Season"
	columnLatitude  = "Latitude"
	columnLongitude = "Longitude"
)

// NormalizerConfig holds configuration options for the Normalizer.
type NormalizerConfig struct {
	// DateFormat is the Go layout for the Date column.
	DateFormat string
	// ExcludedColumns are numeric columns kept out of the parameter set
	// (row identifiers, coordinates, the derived year).
	ExcludedColumns []string
}

// DefaultNormalizerConfig returns the configuration matching the accepted
// input format: ISO dates and the standard identifier exclusion set.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		DateFormat:      "2006-01-02",
		ExcludedColumns: []string{"OBJECTID_12", columnLatitude, columnLongitude, "Year"},
	}
}

// Normalizer parses raw tabular data into a domain.Dataset. Unparseable
// dates are absorbed into null values rather than propagated as errors;
// a missing Basin column is the only fatal condition.
type Normalizer struct {
	logger     *slog.Logger
	dateFormat string
	excluded   map[string]bool
}

// NewNormalizer creates a normalizer with the given configuration.
func NewNormalizer(logger *slog.Logger, cfg NormalizerConfig) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = "2006-01-02"
	}

	excluded := make(map[string]bool, len(cfg.ExcludedColumns))
	for _, col := range cfg.ExcludedColumns {
		excluded[strings.TrimSpace(col)] = true
	}

	return &Normalizer{
		logger:     logger,
		dateFormat: cfg.DateFormat,
		excluded:   excluded,
	}
}

// LoadFile reads a dataset from a CSV or Excel file on disk, dispatching on
// the file extension.
func (n *Normalizer) LoadFile(ctx context.Context, path string) (*domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open dataset file %s", path), err)
	}
	defer f.Close()

	return n.Load(ctx, filepath.Base(path), f)
}

// Load reads a dataset from r, using the file name extension to pick the
// CSV or Excel reader.
func (n *Normalizer) Load(ctx context.Context, name string, r io.Reader) (*domain.Dataset, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return n.LoadCSV(ctx, r)
	case ".xls", ".xlsx":
		return n.LoadExcel(ctx, r)
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported file type %q, expected .csv, .xls or .xlsx", filepath.Ext(name)))
	}
}

// LoadCSV reads a dataset from CSV content.
func (n *Normalizer) LoadCSV(ctx context.Context, r io.Reader) (*domain.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows may be ragged
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read CSV content", err)
	}

	return n.normalize(ctx, rows)
}

// LoadExcel reads a dataset from the first sheet of an XLS/XLSX workbook.
func (n *Normalizer) LoadExcel(ctx context.Context, r io.Reader) (*domain.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open Excel workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewSchemaError("workbook contains no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheets[0]), err)
	}

	return n.normalize(ctx, rows)
}

// normalize turns header+data rows into a Dataset: coerces dates, derives
// years, detects the numeric parameter columns and validates the schema.
func (n *Normalizer) normalize(ctx context.Context, rows [][]string) (*domain.Dataset, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewSchemaError("dataset is empty", nil)
	}

	header := make([]string, len(rows[0]))
	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.TrimSpace(name)
		columns[header[i]] = i
	}

	basinIdx, ok := columns[columnBasin]
	if !ok {
		return nil, apperrors.NewSchemaError(`required column "Basin" is missing`, nil).
			WithContext("columns", header)
	}

	dateIdx, hasDateCol := columns[columnDate]
	seasonIdx, hasSeasonCol := columns[columnSeason]
	latIdx, hasLatCol := columns[columnLatitude]
	lonIdx, hasLonCol := columns[columnLongitude]

	dataRows := rows[1:]
	parameters := n.detectParameters(header, dataRows)

	ds := &domain.Dataset{
		Records:    make([]domain.Record, 0, len(dataRows)),
		Parameters: parameters,
	}

	skippedBasin := 0
	for _, row := range dataRows {
		basin := strings.TrimSpace(cell(row, basinIdx))
		if basin == "" {
			skippedBasin++
			continue
		}

		rec := domain.Record{
			Basin:  basin,
			Values: make(map[string]float64, len(parameters)),
		}

		if hasSeasonCol {
			rec.Season = strings.TrimSpace(cell(row, seasonIdx))
		}
		if hasLatCol {
			rec.Latitude, _ = parseNumeric(cell(row, latIdx))
		}
		if hasLonCol {
			rec.Longitude, _ = parseNumeric(cell(row, lonIdx))
		}

		if hasDateCol {
			raw := strings.TrimSpace(cell(row, dateIdx))
			if date, err := time.Parse(n.dateFormat, raw); err == nil {
				rec.Date = date
				rec.HasDate = true
				rec.Year = date.Year()
			} else {
				// Lenient policy: unparseable dates become null, the
				// row stays but is excluded from year-dependent work.
				ds.NullDates++
			}
		} else {
			ds.NullDates++
		}

		for _, param := range parameters {
			if v, ok := parseNumeric(cell(row, columns[param])); ok {
				rec.Values[param] = v
			}
		}

		ds.Records = append(ds.Records, rec)
	}

	n.logger.InfoContext(ctx, "dataset normalized",
		slog.Int("records", len(ds.Records)),
		slog.Int("parameters", len(ds.Parameters)),
		slog.Int("rows_with_null_date", ds.NullDates),
		slog.Int("rows_without_basin", skippedBasin))

	return ds, nil
}

// detectParameters returns the columns whose non-empty values are purely
// numeric, minus the excluded identifier set, in header order.
func (n *Normalizer) detectParameters(header []string, dataRows [][]string) []string {
	parameters := make([]string, 0, len(header))

	for i, name := range header {
		if name == "" || name == columnBasin || name == columnDate || name == columnSeason {
			continue
		}
		if n.excluded[name] {
			continue
		}

		numeric := false
		for _, row := range dataRows {
			raw := strings.TrimSpace(cell(row, i))
			if raw == "" {
				continue
			}
			if _, ok := parseNumeric(raw); !ok {
				numeric = false
				break
			}
			numeric = true
		}

		if numeric {
			parameters = append(parameters, name)
		}
	}

	return parameters
}

// cell returns the trimmed value at idx, tolerating short rows.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseNumeric parses a cell as a float, tolerating thousands separators.
func parseNumeric(raw string) (float64, bool) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
