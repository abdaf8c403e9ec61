package analytics

import (
	"time"

	"bikepulse/pkg/contracts/domain"
)

// FilterByDate returns the records whose calendar date lies in [start, end],
// both ends inclusive, in their original order. Time of day is ignored.
// An inverted range yields an empty, non-nil slice. The input is not modified.
func FilterByDate(records []domain.RentalRecord, start, end time.Time) []domain.RentalRecord {
	window := domain.DateRange{Start: start, End: end}
	if window.Inverted() {
		return []domain.RentalRecord{}
	}

	out := make([]domain.RentalRecord, 0, len(records))
	for _, r := range records {
		if window.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// FilterHours slices an hourly aggregate to the hours inside hr.
// It works on the aggregate, not the raw records, and never recomputes sums.
func FilterHours(hourly []domain.HourlyDemand, hr domain.HourRange) []domain.HourlyDemand {
	return hr.Apply(hourly)
}
