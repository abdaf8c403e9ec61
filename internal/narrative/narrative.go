// Package narrative produces the explanatory text shown under each chart.
package narrative

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"bikepulse/pkg/contracts/domain"
)

const (
	hourlyTitle   = "Total bike rentals by hour"
	seasonalTitle = "Total bike rentals by season"
	weatherTitle  = "Average bike rentals by weather condition"
)

const hourlyText = "There are two peaks in bike rentals, at 8 AM and at 5 PM. " +
	"The morning peak shows that most people ride to work or school, and the evening peak " +
	"shows the same riders heading home. Rentals fall off through the late morning and midday " +
	"once people have reached their destinations. The lowest demand is at 4 AM, the quietest " +
	"period of the service. Operators can stage more bikes for the peak hours and schedule " +
	"maintenance in the quiet ones."

const seasonalText = "Fall is the most popular season for renting bikes, for registered and " +
	"casual users alike. Spring and summer are also busy, though not as busy as fall, while " +
	"winter has the fewest rentals, likely because cold weather keeps people off their bikes. " +
	"Registered users rent more than casual users in every season, which suggests registered " +
	"users ride for daily transport while casual users ride for leisure or tourism."

const weatherText = "Clear or lightly cloudy weather brings the highest average number of " +
	"rentals, and mist or light cloud is close behind. Light snow or rain clearly lowers demand, " +
	"and heavy rain, snow or fog brings it very low. Weather has a strong effect on whether " +
	"people choose to ride."

// Build returns the narrative for a computed view. Highlights describe the
// current selection and are omitted when a chart has no data.
func Build(hourly []domain.HourlyDemand, seasonal []domain.SeasonalUsage, weather []domain.WeatherImpact) domain.Narrative {
	return domain.Narrative{
		Hourly: domain.NarrativeSection{
			Title:      hourlyTitle,
			Text:       hourlyText,
			Highlights: HourlyHighlights(hourly),
		},
		Seasonal: domain.NarrativeSection{
			Title:      seasonalTitle,
			Text:       seasonalText,
			Highlights: SeasonalHighlights(seasonal),
		},
		Weather: domain.NarrativeSection{
			Title:      weatherTitle,
			Text:       weatherText,
			Highlights: WeatherHighlights(weather),
		},
	}
}

// HourlyHighlights names the busiest and quietest hours. Ties go to the earlier hour.
func HourlyHighlights(hourly []domain.HourlyDemand) []string {
	if len(hourly) == 0 {
		return nil
	}
	peak, low := hourly[0], hourly[0]
	for _, h := range hourly[1:] {
		if h.Total > peak.Total || (h.Total == peak.Total && h.Hour < peak.Hour) {
			peak = h
		}
		if h.Total < low.Total || (h.Total == low.Total && h.Hour < low.Hour) {
			low = h
		}
	}
	return []string{
		fmt.Sprintf("Peak hour in this selection is %s with %d rentals.", clock(peak.Hour), peak.Total),
		fmt.Sprintf("Quietest hour in this selection is %s with %d rentals.", clock(low.Hour), low.Total),
	}
}

// SeasonalHighlights names the top season and the registered share of all rentals.
func SeasonalHighlights(seasonal []domain.SeasonalUsage) []string {
	if len(seasonal) == 0 {
		return nil
	}
	top := seasonal[0]
	var registered, total int64
	for _, s := range seasonal {
		if s.Total() > top.Total() {
			top = s
		}
		registered += s.Registered
		total += s.Total()
	}

	out := []string{fmt.Sprintf("%s has the most rentals with %d.", title(top.Season), top.Total())}
	if total > 0 {
		out = append(out, fmt.Sprintf("Registered users account for %.1f%% of rentals.", float64(registered)*100/float64(total)))
	}
	return out
}

// WeatherHighlights names the conditions with the highest and lowest mean demand.
func WeatherHighlights(weather []domain.WeatherImpact) []string {
	if len(weather) == 0 {
		return nil
	}
	best, worst := weather[0], weather[0]
	for _, w := range weather[1:] {
		if w.MeanTotal > best.MeanTotal {
			best = w
		}
		if w.MeanTotal < worst.MeanTotal {
			worst = w
		}
	}

	out := []string{fmt.Sprintf("%s weather averages the most rentals per hour at %.1f.", title(best.Condition), best.MeanTotal)}
	if worst.Condition != best.Condition {
		out = append(out, fmt.Sprintf("%s weather averages the fewest at %.1f.", title(worst.Condition), worst.MeanTotal))
	}
	return out
}

func clock(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

func title(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return "Unknown"
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
