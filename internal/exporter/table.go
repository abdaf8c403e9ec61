package exporter

import (
	"fmt"

	api "bikepulse/pkg/contracts/api/v1"
	"bikepulse/pkg/contracts/domain"
)

// Table is one aggregate ready to be written
type Table struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// Records renders the rows as CSV text.
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, cell := range row {
			rec[j] = formatCell(cell)
		}
		out[i] = rec
	}
	return out
}

// BuildTable extracts the named table from a computed view.
func BuildTable(name string, view *domain.DashboardView) (*Table, error) {
	if view == nil {
		return nil, fmt.Errorf("no dashboard view to export")
	}

	switch name {
	case api.TableHourly:
		t := &Table{Name: name, Headers: []string{"hour", "total"}}
		for _, h := range view.Hourly {
			t.Rows = append(t.Rows, []interface{}{h.Hour, h.Total})
		}
		return t, nil

	case api.TableSeasonal:
		t := &Table{Name: name, Headers: []string{"season", "registered", "casual", "total"}}
		for _, s := range view.Seasonal {
			t.Rows = append(t.Rows, []interface{}{s.Season, s.Registered, s.Casual, s.Total()})
		}
		return t, nil

	case api.TableWeather:
		t := &Table{Name: name, Headers: []string{"weather_cond", "mean_total", "records"}}
		for _, w := range view.Weather {
			t.Rows = append(t.Rows, []interface{}{w.Condition, w.MeanTotal, w.Records})
		}
		return t, nil

	case api.TableSummary:
		s := view.Summary
		return &Table{
			Name:    name,
			Headers: []string{"start", "end", "start_hour", "end_hour", "total", "registered", "casual", "records"},
			Rows: [][]interface{}{{
				view.Range.Start, view.Range.End, view.Hours.Start, view.Hours.End,
				s.Total, s.Registered, s.Casual, s.Records,
			}},
		}, nil
	}

	return nil, fmt.Errorf("unknown table %q", name)
}
