package dataprocessing

import (
	"math"
	"sort"

	apperrors "wellwq/internal/errors"
	"wellwq/pkg/contracts/domain"
)

// Recognized statistic names.
const (
	StatMean   = "mean"
	StatMedian = "median"
	StatMin    = "min"
	StatMax    = "max"
	StatStdDev = "standard_deviation"
	StatCount  = "count"
)

// SupportedStatistics lists the recognized statistic names in canonical
// order.
var SupportedStatistics = []string{StatMean, StatMedian, StatMin, StatMax, StatStdDev, StatCount}

var supportedStatistics = map[string]bool{
	StatMean:   true,
	StatMedian: true,
	StatMin:    true,
	StatMax:    true,
	StatStdDev: true,
	StatCount:  true,
}

// groupKey identifies one (year, season) aggregation group.
type groupKey struct {
	year   int
	season string
}

// Aggregate groups the subset by (year, season) and computes the requested
// statistics over the chosen parameter, ignoring null values. Groups with
// zero non-null values are kept with nil value statistics and count 0.
//
// Output rows are ordered by year ascending, then by season in order of
// first appearance in the subset. An empty statistics set is a no-op
// producing an empty result table.
func Aggregate(subset []domain.Record, parameters []string, req domain.AggregationRequest) (*domain.AggregationResult, error) {
	if !containsString(parameters, req.Parameter) {
		return nil, apperrors.NewUnknownParameterError(req.Parameter)
	}
	for _, stat := range req.Statistics {
		if !supportedStatistics[stat] {
			return nil, apperrors.NewInvalidStatisticError(stat)
		}
	}

	result := &domain.AggregationResult{
		Parameter: req.Parameter,
		Rows:      []domain.AggregateRow{},
	}
	if len(req.Statistics) == 0 {
		return result, nil
	}

	// Group values in subset order; season rank is global first-appearance
	// order so output is deterministic given identical input ordering.
	groups := make(map[groupKey][]float64)
	keys := make([]groupKey, 0)
	seasonRank := make(map[string]int)

	for i := range subset {
		r := &subset[i]
		if !r.HasDate {
			continue
		}
		key := groupKey{year: r.Year, season: r.Season}
		if _, seen := groups[key]; !seen {
			groups[key] = []float64{}
			keys = append(keys, key)
		}
		if _, seen := seasonRank[r.Season]; !seen {
			seasonRank[r.Season] = len(seasonRank)
		}
		if v, ok := r.Value(req.Parameter); ok {
			groups[key] = append(groups[key], v)
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return seasonRank[keys[i].season] < seasonRank[keys[j].season]
	})

	for _, key := range keys {
		row := domain.AggregateRow{
			Year:       key.year,
			Season:     key.season,
			Statistics: make(map[string]*float64, len(req.Statistics)),
		}
		for _, stat := range req.Statistics {
			row.Statistics[stat] = computeStatistic(stat, groups[key])
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// computeStatistic evaluates one statistic over the group's non-null
// values. nil means the statistic is undefined for the group.
func computeStatistic(stat string, values []float64) *float64 {
	switch stat {
	case StatCount:
		return ptr(float64(len(values)))
	case StatMean:
		if len(values) == 0 {
			return nil
		}
		return ptr(mean(values))
	case StatMedian:
		if len(values) == 0 {
			return nil
		}
		return ptr(median(values))
	case StatMin:
		if len(values) == 0 {
			return nil
		}
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return ptr(min)
	case StatMax:
		if len(values) == 0 {
			return nil
		}
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return ptr(max)
	case StatStdDev:
		// Sample standard deviation, undefined for fewer than 2 values.
		if len(values) < 2 {
			return nil
		}
		return ptr(sampleStdDev(values))
	}
	return nil
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func sampleStdDev(values []float64) float64 {
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func ptr(v float64) *float64 {
	return &v
}
