// Package analytics implements the filtering and aggregation core of the
// bike-sharing dashboard.
//
// Every function here is a pure function of its input records. None of them
// mutate the slice they are given, so the same immutable dataset can be
// shared by all requests and live sessions without locking.
//
// # Filters
//
//	FilterByDate   inclusive calendar-date window over raw records
//	FilterHours    display slice over the hourly aggregate
//
// # Reducers
//
//	HourlyTotals / HourlyDemand    sum of total rentals per hour of day
//	SeasonTotals / SeasonalUsage   registered and casual sums per season
//	WeatherMeans / WeatherImpact   mean total rentals per weather condition
//	Summarize                      scalar totals for the metric cards
//
// The map forms are the raw group-by results; the slice forms are the same
// values ordered for presentation. An empty input always gives empty results.
package analytics
