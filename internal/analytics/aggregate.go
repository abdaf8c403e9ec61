package analytics

import (
	"sort"

	"bikepulse/pkg/contracts/domain"
)

// HourlyTotals sums Total per hour of day. Hours without records are absent.
func HourlyTotals(records []domain.RentalRecord) map[int]int64 {
	totals := make(map[int]int64)
	for _, r := range records {
		totals[r.Hour] += r.Total
	}
	return totals
}

// HourlyDemand is HourlyTotals as rows sorted by hour.
func HourlyDemand(records []domain.RentalRecord) []domain.HourlyDemand {
	totals := HourlyTotals(records)

	rows := make([]domain.HourlyDemand, 0, len(totals))
	for hour, total := range totals {
		rows = append(rows, domain.HourlyDemand{Hour: hour, Total: total})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Hour < rows[j].Hour })
	return rows
}

// SeasonTotals sums Registered and Casual independently per season.
// Seasons outside the canonical four are grouped under their own value.
func SeasonTotals(records []domain.RentalRecord) map[string]domain.SeasonTotals {
	totals := make(map[string]domain.SeasonTotals)
	for _, r := range records {
		t := totals[r.Season]
		t.Registered += r.Registered
		t.Casual += r.Casual
		totals[r.Season] = t
	}
	return totals
}

// SeasonalUsage is SeasonTotals as rows in spring, summer, fall, winter order,
// followed by any other seasons by name.
func SeasonalUsage(records []domain.RentalRecord) []domain.SeasonalUsage {
	totals := SeasonTotals(records)

	rows := make([]domain.SeasonalUsage, 0, len(totals))
	for season, t := range totals {
		rows = append(rows, domain.SeasonalUsage{
			Season:     season,
			Registered: t.Registered,
			Casual:     t.Casual,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		ri, rj := domain.SeasonRank(rows[i].Season), domain.SeasonRank(rows[j].Season)
		if ri != rj {
			return ri < rj
		}
		return rows[i].Season < rows[j].Season
	})
	return rows
}

type meanAcc struct {
	sum   int64
	count int64
	order int
}

// WeatherMeans computes the arithmetic mean of Total per weather condition.
// Groups come from existing rows, so no group is ever empty.
func WeatherMeans(records []domain.RentalRecord) map[string]float64 {
	means := make(map[string]float64)
	for cond, acc := range weatherAccumulate(records) {
		means[cond] = float64(acc.sum) / float64(acc.count)
	}
	return means
}

// WeatherImpact is WeatherMeans as rows, ordered by first appearance of each
// condition in the input.
func WeatherImpact(records []domain.RentalRecord) []domain.WeatherImpact {
	accs := weatherAccumulate(records)

	rows := make([]domain.WeatherImpact, 0, len(accs))
	orders := make(map[string]int, len(accs))
	for cond, acc := range accs {
		rows = append(rows, domain.WeatherImpact{
			Condition: cond,
			MeanTotal: float64(acc.sum) / float64(acc.count),
			Records:   acc.count,
		})
		orders[cond] = acc.order
	}
	sort.Slice(rows, func(i, j int) bool { return orders[rows[i].Condition] < orders[rows[j].Condition] })
	return rows
}

func weatherAccumulate(records []domain.RentalRecord) map[string]*meanAcc {
	accs := make(map[string]*meanAcc)
	for _, r := range records {
		acc, ok := accs[r.WeatherCondition]
		if !ok {
			acc = &meanAcc{order: len(accs)}
			accs[r.WeatherCondition] = acc
		}
		acc.sum += r.Total
		acc.count++
	}
	return accs
}

// Summarize totals the three user counts over records.
func Summarize(records []domain.RentalRecord) domain.SummaryMetrics {
	var m domain.SummaryMetrics
	for _, r := range records {
		m.Total += r.Total
		m.Registered += r.Registered
		m.Casual += r.Casual
	}
	m.Records = int64(len(records))
	return m
}
