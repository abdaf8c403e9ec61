package exporter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	api "bikepulse/pkg/contracts/api/v1"
	"bikepulse/pkg/contracts/domain"
)

// HourlyRow is the parquet schema of the hourly table
type HourlyRow struct {
	Hour  int32 `parquet:"name=hour,type=INT32"`
	Total int64 `parquet:"name=total,type=INT64"`
}

// SeasonalRow is the parquet schema of the seasonal table
type SeasonalRow struct {
	Season     string `parquet:"name=season,type=BYTE_ARRAY,convertedtype=UTF8,encoding=PLAIN_DICTIONARY"`
	Registered int64  `parquet:"name=registered,type=INT64"`
	Casual     int64  `parquet:"name=casual,type=INT64"`
	Total      int64  `parquet:"name=total,type=INT64"`
}

// WeatherRow is the parquet schema of the weather table
type WeatherRow struct {
	Condition string  `parquet:"name=weather_cond,type=BYTE_ARRAY,convertedtype=UTF8,encoding=PLAIN_DICTIONARY"`
	MeanTotal float64 `parquet:"name=mean_total,type=DOUBLE"`
	Records   int64   `parquet:"name=records,type=INT64"`
}

// SummaryRow is the parquet schema of the summary table
type SummaryRow struct {
	Start      string `parquet:"name=start,type=BYTE_ARRAY,convertedtype=UTF8"`
	End        string `parquet:"name=end,type=BYTE_ARRAY,convertedtype=UTF8"`
	StartHour  int32  `parquet:"name=start_hour,type=INT32"`
	EndHour    int32  `parquet:"name=end_hour,type=INT32"`
	Total      int64  `parquet:"name=total,type=INT64"`
	Registered int64  `parquet:"name=registered,type=INT64"`
	Casual     int64  `parquet:"name=casual,type=INT64"`
	Records    int64  `parquet:"name=records,type=INT64"`
}

// parquetRows returns the schema prototype and the typed rows for a table.
func parquetRows(table string, view *domain.DashboardView) (interface{}, []interface{}, error) {
	switch table {
	case api.TableHourly:
		rows := make([]interface{}, 0, len(view.Hourly))
		for _, h := range view.Hourly {
			rows = append(rows, HourlyRow{Hour: int32(h.Hour), Total: h.Total})
		}
		return new(HourlyRow), rows, nil

	case api.TableSeasonal:
		rows := make([]interface{}, 0, len(view.Seasonal))
		for _, s := range view.Seasonal {
			rows = append(rows, SeasonalRow{Season: s.Season, Registered: s.Registered, Casual: s.Casual, Total: s.Total()})
		}
		return new(SeasonalRow), rows, nil

	case api.TableWeather:
		rows := make([]interface{}, 0, len(view.Weather))
		for _, w := range view.Weather {
			rows = append(rows, WeatherRow{Condition: w.Condition, MeanTotal: w.MeanTotal, Records: w.Records})
		}
		return new(WeatherRow), rows, nil

	case api.TableSummary:
		s := view.Summary
		return new(SummaryRow), []interface{}{SummaryRow{
			Start:      view.Range.Start,
			End:        view.Range.End,
			StartHour:  int32(view.Hours.Start),
			EndHour:    int32(view.Hours.End),
			Total:      s.Total,
			Registered: s.Registered,
			Casual:     s.Casual,
			Records:    s.Records,
		}}, nil
	}
	return nil, nil, fmt.Errorf("unknown table %q", table)
}

// WriteParquet encodes one table with SNAPPY compression. The file is built
// in memory first so a failed encode never leaves a partial download.
func WriteParquet(w io.Writer, table string, view *domain.DashboardView) error {
	if view == nil {
		return fmt.Errorf("no dashboard view to export")
	}
	proto, rows, err := parquetRows(table, view)
	if err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, proto, 1)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer for %s: %w", table, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, row := range rows {
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("failed to write %s row %d to parquet: %w", table, i, err)
		}
	}

	// WriteStop can panic on internal encoder errors
	var stopErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if e, ok := r.(error); ok {
					stopErr = e
				} else {
					stopErr = fmt.Errorf("panic value: %v", r)
				}
			}
		}()
		stopErr = pw.WriteStop()
	}()
	if stopErr != nil {
		return fmt.Errorf("failed to stop parquet writer for %s: %w", table, stopErr)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write parquet output: %w", err)
	}
	return nil
}
