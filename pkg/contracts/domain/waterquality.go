// Package domain contains the core domain types shared between the
// analytics packages and the transport layer.
package domain

import (
	"time"
)

// Record is a single groundwater-quality observation. Values holds the
// numeric parameter measurements keyed by column name; a missing key means
// the value was null in the source data.
type Record struct {
	Basin     string             `json:"basin"`
	Season    string             `json:"season"`
	Date      time.Time          `json:"date"`
	HasDate   bool               `json:"has_date"`
	Year      int                `json:"year"`
	Latitude  float64            `json:"latitude"`
	Longitude float64            `json:"longitude"`
	Values    map[string]float64 `json:"values"`
}

// Value returns the measurement for the given parameter and whether it is
// non-null.
func (r *Record) Value(parameter string) (float64, bool) {
	v, ok := r.Values[parameter]
	return v, ok
}

// Dataset is an immutable, in-memory collection of records loaded once per
// session. Parameters lists the numeric parameter columns in source column
// order, already excluding identifier columns.
type Dataset struct {
	Records    []Record `json:"records"`
	Parameters []string `json:"parameters"`
	NullDates  int      `json:"null_dates"`
}

// HasParameter reports whether name is one of the numeric parameter columns.
func (d *Dataset) HasParameter(name string) bool {
	for _, p := range d.Parameters {
		if p == name {
			return true
		}
	}
	return false
}

// Basins returns the distinct basin names in order of first appearance.
func (d *Dataset) Basins() []string {
	seen := make(map[string]bool, 8)
	basins := make([]string, 0, 8)
	for i := range d.Records {
		b := d.Records[i].Basin
		if !seen[b] {
			seen[b] = true
			basins = append(basins, b)
		}
	}
	return basins
}

// YearBounds returns the minimum and maximum derived year across records
// with a valid date. ok is false when no record has a valid date.
func (d *Dataset) YearBounds() (min, max int, ok bool) {
	for i := range d.Records {
		r := &d.Records[i]
		if !r.HasDate {
			continue
		}
		if !ok || r.Year < min {
			min = r.Year
		}
		if !ok || r.Year > max {
			max = r.Year
		}
		ok = true
	}
	return min, max, ok
}

// Summary produces the selection metadata the presentation layer needs to
// build its controls (basin list, year slider bounds, parameter list).
func (d *Dataset) Summary() DatasetSummary {
	s := DatasetSummary{
		Basins:      d.Basins(),
		Parameters:  append([]string(nil), d.Parameters...),
		RecordCount: len(d.Records),
		NullDates:   d.NullDates,
	}
	if min, max, ok := d.YearBounds(); ok {
		s.FromYear = min
		s.ToYear = max
	}
	return s
}

// DatasetSummary describes a loaded dataset without exposing its records.
type DatasetSummary struct {
	Basins      []string `json:"basins"`
	FromYear    int      `json:"from_year"`
	ToYear      int      `json:"to_year"`
	Parameters  []string `json:"parameters"`
	RecordCount int      `json:"record_count"`
	NullDates   int      `json:"null_dates"`
}

// FilterCriteria narrows a dataset to one basin and an inclusive year range.
// Constructed per query, never persisted.
type FilterCriteria struct {
	Basin    string `json:"basin"`
	FromYear int    `json:"from_year"`
	ToYear   int    `json:"to_year"`
}

// AggregationRequest selects one parameter and the statistics to compute
// for it.
type AggregationRequest struct {
	Parameter  string   `json:"parameter"`
	Statistics []string `json:"statistics"`
}

// AggregateRow is one (year, season) group of an aggregation result. A nil
// statistic value means the statistic is undefined for the group (for
// example standard_deviation over fewer than two values).
type AggregateRow struct {
	Year       int                 `json:"year"`
	Season     string              `json:"season"`
	Statistics map[string]*float64 `json:"statistics"`
}

// AggregationResult is the grouped statistics table for one parameter,
// ordered by year ascending and then by season first-appearance order.
type AggregationResult struct {
	Parameter string         `json:"parameter"`
	Rows      []AggregateRow `json:"rows"`
}

// CorrelationRequest selects the correlation method.
type CorrelationRequest struct {
	Method string `json:"method"`
}

// CorrelationMatrix is a square matrix indexed by parameter name on both
// axes. Values[i][j] is the coefficient between Parameters[i] and
// Parameters[j]; the diagonal is 1.0 by construction. CompleteRows records
// how many rows survived complete-case dropping.
type CorrelationMatrix struct {
	Method       string      `json:"method"`
	Parameters   []string    `json:"parameters"`
	Values       [][]float64 `json:"values"`
	CompleteRows int         `json:"complete_rows"`
}

// At returns the coefficient for the named parameter pair.
func (m *CorrelationMatrix) At(row, col string) (float64, bool) {
	ri, ci := -1, -1
	for i, p := range m.Parameters {
		if p == row {
			ri = i
		}
		if p == col {
			ci = i
		}
	}
	if ri < 0 || ci < 0 {
		return 0, false
	}
	return m.Values[ri][ci], true
}
