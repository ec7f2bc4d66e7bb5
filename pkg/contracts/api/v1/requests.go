// Package api contains API contract definitions for the well water quality
// analyzer. Version v1 represents the current stable API version.
package api

import (
	"math"
	"time"

	"wellwq/pkg/contracts/domain"
)

// Dataset API requests

// StatisticsRequest asks for grouped descriptive statistics of one
// parameter over a basin/year selection.
type StatisticsRequest struct {
	Basin      string   `json:"basin" validate:"required"`
	FromYear   int      `json:"from_year" validate:"required"`
	ToYear     int      `json:"to_year" validate:"required,gtefield=FromYear"`
	Parameter  string   `json:"parameter" validate:"required"`
	Statistics []string `json:"statistics"`
}

// CorrelationRequest asks for a correlation matrix over a basin/year
// selection.
type CorrelationRequest struct {
	Basin    string `json:"basin" validate:"required"`
	FromYear int    `json:"from_year" validate:"required"`
	ToYear   int    `json:"to_year" validate:"required,gtefield=FromYear"`
	Method   string `json:"method" validate:"required"`
}

// Dataset API responses

// DatasetResponse acknowledges a registered dataset and carries the
// selection metadata the caller needs for follow-up queries.
type DatasetResponse struct {
	Success   bool                  `json:"success"`
	DatasetID string                `json:"dataset_id"`
	Cached    bool                  `json:"cached"`
	Summary   domain.DatasetSummary `json:"summary"`
}

// StatisticsResponse is the grouped statistics table, or an empty-result
// indicator with a human-readable reason.
type StatisticsResponse struct {
	Success bool                      `json:"success"`
	Empty   bool                      `json:"empty"`
	Message string                    `json:"message,omitempty"`
	Result  *domain.AggregationResult `json:"result,omitempty"`
}

// CorrelationResponse is the correlation matrix, or an empty-result
// indicator. Matrix cells are nullable so degenerate NaN coefficients
// survive JSON encoding as null.
type CorrelationResponse struct {
	Success      bool         `json:"success"`
	Empty        bool         `json:"empty"`
	Message      string       `json:"message,omitempty"`
	Method       string       `json:"method,omitempty"`
	Parameters   []string     `json:"parameters,omitempty"`
	Values       [][]*float64 `json:"values,omitempty"`
	CompleteRows int          `json:"complete_rows,omitempty"`
}

// NewCorrelationResponse converts a matrix into its wire form, mapping NaN
// cells to null.
func NewCorrelationResponse(m *domain.CorrelationMatrix) *CorrelationResponse {
	values := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]*float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			cell := v
			values[i][j] = &cell
		}
	}

	return &CorrelationResponse{
		Success:      true,
		Method:       m.Method,
		Parameters:   m.Parameters,
		Values:       values,
		CompleteRows: m.CompleteRows,
	}
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}
