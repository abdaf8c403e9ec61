package domain

import (
	"time"
)

// DateRange is an inclusive calendar date interval
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Inverted reports whether the range starts after it ends.
func (r DateRange) Inverted() bool {
	return TruncateDay(r.Start).After(TruncateDay(r.End))
}

// Contains reports whether t falls on a day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	day := TruncateDay(t)
	return !day.Before(TruncateDay(r.Start)) && !day.After(TruncateDay(r.End))
}

// DateRangeDTO is the wire form of a DateRange
type DateRangeDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DTO converts the range to its wire form.
func (r DateRange) DTO() DateRangeDTO {
	return DateRangeDTO{
		Start: r.Start.Format(DateLayout),
		End:   r.End.Format(DateLayout),
	}
}

// HourRange is an inclusive sub-range of hours of day
type HourRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FullDay is the default hour range
var FullDay = HourRange{Start: MinHour, End: MaxHour}

// Contains reports whether hour falls inside the range.
func (r HourRange) Contains(hour int) bool {
	return hour >= r.Start && hour <= r.End
}

// Valid reports whether both ends are hours of day and Start <= End.
func (r HourRange) Valid() bool {
	return r.Start >= MinHour && r.End <= MaxHour && r.Start <= r.End
}

// Apply slices an hourly aggregate to the hours inside the range.
func (r HourRange) Apply(hourly []HourlyDemand) []HourlyDemand {
	out := make([]HourlyDemand, 0, len(hourly))
	for _, h := range hourly {
		if r.Contains(h.Hour) {
			out = append(out, h)
		}
	}
	return out
}

// HourlyDemand is the summed total rentals for one hour of day
type HourlyDemand struct {
	Hour  int   `json:"hour"`
	Total int64 `json:"total"`
}

// SeasonTotals is the registered/casual split for one season
type SeasonTotals struct {
	Registered int64 `json:"registered"`
	Casual     int64 `json:"casual"`
}

// SeasonalUsage is the registered and casual rentals summed per season
type SeasonalUsage struct {
	Season     string `json:"season"`
	Registered int64  `json:"registered"`
	Casual     int64  `json:"casual"`
}

// Total returns registered plus casual rentals.
func (s SeasonalUsage) Total() int64 {
	return s.Registered + s.Casual
}

// WeatherImpact is the mean total rentals for one weather condition
type WeatherImpact struct {
	Condition string  `json:"condition"`
	MeanTotal float64 `json:"mean_total"`
	Records   int64   `json:"records"`
}

// SummaryMetrics are the scalar metrics shown above the charts
type SummaryMetrics struct {
	Total      int64 `json:"total"`
	Registered int64 `json:"registered"`
	Casual     int64 `json:"casual"`
	Records    int64 `json:"records"`
}

// Bounds describes the limits of the user controls
type Bounds struct {
	MinDate string    `json:"min_date"`
	MaxDate string    `json:"max_date"`
	Hours   HourRange `json:"hours"`
	Records int       `json:"records"`
}

// NarrativeSection is the explanatory text shown under one chart
type NarrativeSection struct {
	Title      string   `json:"title"`
	Text       string   `json:"text"`
	Highlights []string `json:"highlights,omitempty"`
}

// Narrative groups the text for the three charts
type Narrative struct {
	Hourly   NarrativeSection `json:"hourly"`
	Seasonal NarrativeSection `json:"seasonal"`
	Weather  NarrativeSection `json:"weather"`
}

// DashboardView is everything the presentation layer needs for one render
type DashboardView struct {
	Range       DateRangeDTO    `json:"range"`
	Hours       HourRange       `json:"hours"`
	Bounds      Bounds          `json:"bounds"`
	Summary     SummaryMetrics  `json:"summary"`
	Hourly      []HourlyDemand  `json:"hourly"`
	Seasonal    []SeasonalUsage `json:"seasonal"`
	Weather     []WeatherImpact `json:"weather"`
	Narrative   Narrative       `json:"narrative"`
	GeneratedAt time.Time       `json:"generated_at"`
}
