// Package api contains the request and response contracts of the dashboard API.
// Version v1 represents the current stable API version.
package api

import (
	"bikepulse/pkg/contracts/domain"
)

// Export tables
const (
	TableHourly   = "hourly"
	TableSeasonal = "seasonal"
	TableWeather  = "weather"
	TableSummary  = "summary"
)

// Export formats
const (
	FormatCSV     = "csv"
	FormatXLSX    = "xlsx"
	FormatParquet = "parquet"
)

// ExportTables lists the tables that can be exported, in display order.
var ExportTables = []string{TableHourly, TableSeasonal, TableWeather, TableSummary}

// ExportFormats lists the supported export formats.
var ExportFormats = []string{FormatCSV, FormatXLSX, FormatParquet}

// DashboardQuery is the filter shared by the HTTP API, the WebSocket filter
// message and the report CLI. Empty dates fall back to the dataset bounds and
// nil hours to the full day.
type DashboardQuery struct {
	Start     string `json:"start,omitempty" query:"start" validate:"omitempty,datetime=2006-01-02"`
	End       string `json:"end,omitempty" query:"end" validate:"omitempty,datetime=2006-01-02"`
	StartHour *int   `json:"start_hour,omitempty" query:"start_hour" validate:"omitempty,min=0,max=23"`
	EndHour   *int   `json:"end_hour,omitempty" query:"end_hour" validate:"omitempty,min=0,max=23"`
}

// Hours resolves the requested hour window, defaulting each missing end.
func (q DashboardQuery) Hours() domain.HourRange {
	hr := domain.FullDay
	if q.StartHour != nil {
		hr.Start = *q.StartHour
	}
	if q.EndHour != nil {
		hr.End = *q.EndHour
	}
	return hr
}

// ExportRequest selects one aggregate table and an output format.
type ExportRequest struct {
	DashboardQuery
	Table  string `json:"table" param:"table" validate:"required,oneof=hourly seasonal weather summary"`
	Format string `json:"format" query:"format" validate:"required,oneof=csv xlsx parquet"`
}

// IntPtr is a convenience for building queries in code and tests.
func IntPtr(v int) *int {
	return &v
}
