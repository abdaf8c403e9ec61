package api

import (
	"time"

	"bikepulse/pkg/contracts/domain"
)

// Response is the success envelope of every JSON endpoint
type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

// Success wraps data in the success envelope.
func Success(data interface{}) Response {
	return Response{Status: "success", Data: data}
}

// HourlyResponse is returned by /api/dashboard/hourly
type HourlyResponse struct {
	Range  domain.DateRangeDTO   `json:"range"`
	Hours  domain.HourRange      `json:"hours"`
	Hourly []domain.HourlyDemand `json:"hourly"`
}

// SeasonalResponse is returned by /api/dashboard/seasonal
type SeasonalResponse struct {
	Range    domain.DateRangeDTO    `json:"range"`
	Seasonal []domain.SeasonalUsage `json:"seasonal"`
}

// WeatherResponse is returned by /api/dashboard/weather
type WeatherResponse struct {
	Range   domain.DateRangeDTO    `json:"range"`
	Weather []domain.WeatherImpact `json:"weather"`
}

// SummaryResponse is returned by /api/dashboard/summary
type SummaryResponse struct {
	Range   domain.DateRangeDTO   `json:"range"`
	Summary domain.SummaryMetrics `json:"summary"`
}

// HealthResponse is returned by the health endpoints
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one readiness check
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
