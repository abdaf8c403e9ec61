package domain

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used on the wire and in exports
const DateLayout = "2006-01-02"

// Canonical season values found in the bike-sharing dataset
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonFall   = "fall"
	SeasonWinter = "winter"
)

// Hour bounds of a rental record
const (
	MinHour = 0
	MaxHour = 23
)

// RentalRecord is one hour-season-weather-date observation of bike rentals
type RentalRecord struct {
	Date             time.Time `json:"date"`
	Hour             int       `json:"hour"`
	Season           string    `json:"season"`
	WeatherCondition string    `json:"weather_condition"`
	Registered       int64     `json:"registered"`
	Casual           int64     `json:"casual"`
	Total            int64     `json:"total"`
}

// Day returns the record date truncated to a calendar day in UTC.
func (r RentalRecord) Day() time.Time {
	return TruncateDay(r.Date)
}

// TruncateDay drops the time of day, keeping the calendar date as seen in t's location.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SeasonRank orders the canonical seasons, ignoring case; unknown seasons sort after them.
func SeasonRank(season string) int {
	switch strings.ToLower(season) {
	case SeasonSpring:
		return 0
	case SeasonSummer:
		return 1
	case SeasonFall:
		return 2
	case SeasonWinter:
		return 3
	default:
		return 4
	}
}
