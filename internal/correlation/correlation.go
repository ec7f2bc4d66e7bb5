// Package correlation computes pairwise correlation matrices over the
// numeric parameter columns of a record subset, using complete-case
// analysis: any row with a null among the selected columns is dropped
// before correlation.
package correlation

import (
	"fmt"
	"math"
	"sort"

	apperrors "wellwq/internal/errors"
	"wellwq/pkg/contracts/domain"
)

// Recognized correlation methods.
const (
	MethodPearson  = "pearson"
	MethodSpearman = "spearman"
)

// Matrix computes the square correlation matrix over the given parameters.
// The matrix is symmetric with 1.0 on the diagonal by construction.
//
// Fails with InsufficientDataError when fewer than 2 complete rows remain
// after dropping rows with nulls, and with UnknownMethodError for an
// unrecognized method name.
func Matrix(records []domain.Record, parameters []string, method string) (*domain.CorrelationMatrix, error) {
	if method != MethodPearson && method != MethodSpearman {
		return nil, apperrors.NewUnknownMethodError(method)
	}

	columns := completeCases(records, parameters)
	n := 0
	if len(columns) > 0 {
		n = len(columns[0])
	}
	if n < 2 {
		return nil, apperrors.NewInsufficientDataError(
			fmt.Sprintf("correlation requires at least 2 complete rows, have %d", n)).
			WithContext("complete_rows", n)
	}

	if method == MethodSpearman {
		for i := range columns {
			columns[i] = ranks(columns[i])
		}
	}

	matrix := &domain.CorrelationMatrix{
		Method:       method,
		Parameters:   append([]string(nil), parameters...),
		Values:       make([][]float64, len(parameters)),
		CompleteRows: n,
	}
	for i := range matrix.Values {
		matrix.Values[i] = make([]float64, len(parameters))
	}

	for i := range parameters {
		matrix.Values[i][i] = 1.0
		for j := i + 1; j < len(parameters); j++ {
			r := pearson(columns[i], columns[j])
			matrix.Values[i][j] = r
			matrix.Values[j][i] = r
		}
	}

	return matrix, nil
}

// completeCases extracts one column per parameter, keeping only rows where
// every parameter is non-null.
func completeCases(records []domain.Record, parameters []string) [][]float64 {
	columns := make([][]float64, len(parameters))

	for i := range records {
		r := &records[i]
		row := make([]float64, len(parameters))
		complete := true
		for j, param := range parameters {
			v, ok := r.Value(param)
			if !ok {
				complete = false
				break
			}
			row[j] = v
		}
		if !complete {
			continue
		}
		for j := range parameters {
			columns[j] = append(columns[j], row[j])
		}
	}

	return columns
}

// pearson computes the linear correlation coefficient between x and y.
// Returns NaN when either column has zero variance.
func pearson(x, y []float64) float64 {
	n := float64(len(x))
	var meanX, meanY float64
	for i := range x {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= n
	meanY /= n

	var sxy, sxx, syy float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}

	denom := math.Sqrt(sxx * syy)
	if denom == 0 {
		return math.NaN()
	}
	return sxy / denom
}

// ranks transforms values into 1-based ranks, assigning tied values the
// average of the ranks they span.
func ranks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	ranked := make([]float64, len(values))
	i := 0
	for i < len(idx) {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		// Ranks i+1..j+1 collapse to their average for the tie run.
		avg := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			ranked[idx[k]] = avg
		}
		i = j + 1
	}

	return ranked
}
