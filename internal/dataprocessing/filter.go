package dataprocessing

import (
	"wellwq/pkg/contracts/domain"
)

// Filter narrows the dataset to records whose basin matches exactly
// (case-sensitive) and whose derived year lies within the inclusive range.
// Records with a null date never match. An empty result is a normal,
// reportable outcome, not an error.
//
// FromYear <= ToYear is a precondition; equal bounds select a single year.
// Input order is preserved, so repeated calls with identical arguments on an
// unmodified dataset yield identical results.
func Filter(ds *domain.Dataset, criteria domain.FilterCriteria) []domain.Record {
	subset := make([]domain.Record, 0, len(ds.Records))

	for i := range ds.Records {
		r := &ds.Records[i]
		if r.Basin != criteria.Basin {
			continue
		}
		if !r.HasDate {
			continue
		}
		if r.Year < criteria.FromYear || r.Year > criteria.ToYear {
			continue
		}
		subset = append(subset, *r)
	}

	return subset
}
