package narrative

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikepulse/pkg/contracts/domain"
)

func TestBuildStaticText(t *testing.T) {
	n := Build(nil, nil, nil)

	assert.Contains(t, n.Hourly.Text, "8 AM")
	assert.Contains(t, n.Hourly.Text, "5 PM")
	assert.Contains(t, n.Hourly.Text, "4 AM")
	assert.Contains(t, n.Seasonal.Text, "Fall is the most popular")
	assert.Contains(t, n.Weather.Text, "heavy rain")

	assert.Empty(t, n.Hourly.Highlights)
	assert.Empty(t, n.Seasonal.Highlights)
	assert.Empty(t, n.Weather.Highlights)
}

func TestHourlyHighlights(t *testing.T) {
	got := HourlyHighlights([]domain.HourlyDemand{
		{Hour: 4, Total: 5},
		{Hour: 8, Total: 80},
		{Hour: 17, Total: 80},
		{Hour: 23, Total: 5},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "Peak hour in this selection is 08:00 with 80 rentals.", got[0])
	assert.Equal(t, "Quietest hour in this selection is 04:00 with 5 rentals.", got[1])
}

func TestSeasonalHighlights(t *testing.T) {
	got := SeasonalHighlights([]domain.SeasonalUsage{
		{Season: "fall", Registered: 150, Casual: 30},
		{Season: "winter", Registered: 10, Casual: 10},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "Fall has the most rentals with 180.", got[0])
	assert.Equal(t, "Registered users account for 80.0% of rentals.", got[1])
}

func TestSeasonalHighlightsZeroTotals(t *testing.T) {
	got := SeasonalHighlights([]domain.SeasonalUsage{{Season: "fall"}})
	assert.Len(t, got, 1)
}

func TestWeatherHighlights(t *testing.T) {
	tests := []struct {
		name     string
		weather  []domain.WeatherImpact
		expected []string
	}{
		{
			name:    "best and worst",
			weather: []domain.WeatherImpact{{Condition: "clear", MeanTotal: 150}, {Condition: "heavy_rain", MeanTotal: 10}},
			expected: []string{
				"Clear weather averages the most rentals per hour at 150.0.",
				"Heavy rain weather averages the fewest at 10.0.",
			},
		},
		{
			name:     "single condition",
			weather:  []domain.WeatherImpact{{Condition: "mist", MeanTotal: 12.3}},
			expected: []string{"Mist weather averages the most rentals per hour at 12.3."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WeatherHighlights(tt.weather))
		})
	}
}

func TestTitleIsRuneAware(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"heavy_rain", "Heavy rain"},
		{"été", "Été"},
		{"ümlaut_day", "Ümlaut day"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := title(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
