package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xuri/excelize/v2"

	api "bikepulse/pkg/contracts/api/v1"
	"bikepulse/pkg/contracts/domain"
)

func sampleView() *domain.DashboardView {
	return &domain.DashboardView{
		Range: domain.DateRangeDTO{Start: "2011-01-01", End: "2011-01-02"},
		Hours: domain.FullDay,
		Summary: domain.SummaryMetrics{
			Total: 200, Registered: 155, Casual: 45, Records: 4,
		},
		Hourly: []domain.HourlyDemand{
			{Hour: 8, Total: 80},
			{Hour: 17, Total: 120},
		},
		Seasonal: []domain.SeasonalUsage{
			{Season: "fall", Registered: 150, Casual: 30},
			{Season: "winter", Registered: 5, Casual: 15},
		},
		Weather: []domain.WeatherImpact{
			{Condition: "clear", MeanTotal: 62.5, Records: 3},
			{Condition: "heavy_rain", MeanTotal: 12.25, Records: 1},
		},
	}
}

func newTestExporter() *Exporter {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func exportBytes(t *testing.T, ex *Exporter, table, format string) []byte {
	t.Helper()
	var buf bytes.Buffer
	n, err := ex.Export(context.Background(), &buf, table, format, sampleView())
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	return buf.Bytes()
}

func TestExportCSV(t *testing.T) {
	raw := exportBytes(t, newTestExporter(), api.TableWeather, api.FormatCSV)
	require.True(t, bytes.HasPrefix(raw, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(raw[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"weather_cond", "mean_total", "records"},
		{"clear", "62.5", "3"},
		{"heavy_rain", "12.25", "1"},
	}, records)
}

func TestCSVKeepsFullMeanPrecision(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"thirds", 100.0 / 3, "33.333333333333336"},
		{"whole", 40, "40"},
		{"small", 0.125, "0.125"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatCell(tt.in))
		})
	}
}

func TestCSVWriterWithoutBOM(t *testing.T) {
	tbl, err := BuildTable(api.TableSeasonal, sampleView())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter(false).WriteTable(&buf, tbl))
	assert.Equal(t, "season,registered,casual,total\nfall,150,30,180\nwinter,5,15,20\n", buf.String())
}

func TestBuildTableSummary(t *testing.T) {
	tbl, err := BuildTable(api.TableSummary, sampleView())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2011-01-01", "2011-01-02", "0", "23", "200", "155", "45", "4"}}, tbl.Records())
}

func TestBuildTableErrors(t *testing.T) {
	_, err := BuildTable("daily", sampleView())
	assert.ErrorContains(t, err, "unknown table")

	_, err = BuildTable(api.TableHourly, nil)
	assert.Error(t, err)
}

func TestExportXLSX(t *testing.T) {
	data := exportBytes(t, newTestExporter(), api.TableHourly, api.FormatXLSX)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{api.TableHourly}, f.GetSheetList())

	rows, err := f.GetRows(api.TableHourly)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"hour", "total"}, {"8", "80"}, {"17", "120"}}, rows)

	styleID, err := f.GetCellStyle(api.TableHourly, "B1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
}

func readParquet[T any](t *testing.T, data []byte) []T {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.parquet")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(T), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	rows := make([]T, int(pr.GetNumRows()))
	require.NoError(t, pr.Read(&rows))
	return rows
}

func TestExportParquet(t *testing.T) {
	ex := newTestExporter()

	t.Run("hourly", func(t *testing.T) {
		data := exportBytes(t, ex, api.TableHourly, api.FormatParquet)
		assert.Equal(t, []HourlyRow{{Hour: 8, Total: 80}, {Hour: 17, Total: 120}}, readParquet[HourlyRow](t, data))
	})

	t.Run("seasonal", func(t *testing.T) {
		data := exportBytes(t, ex, api.TableSeasonal, api.FormatParquet)
		assert.Equal(t, []SeasonalRow{
			{Season: "fall", Registered: 150, Casual: 30, Total: 180},
			{Season: "winter", Registered: 5, Casual: 15, Total: 20},
		}, readParquet[SeasonalRow](t, data))
	})

	t.Run("weather", func(t *testing.T) {
		data := exportBytes(t, ex, api.TableWeather, api.FormatParquet)
		rows := readParquet[WeatherRow](t, data)
		require.Len(t, rows, 2)
		assert.Equal(t, "heavy_rain", rows[1].Condition)
		assert.InDelta(t, 12.25, rows[1].MeanTotal, 1e-9)
	})

	t.Run("summary", func(t *testing.T) {
		data := exportBytes(t, ex, api.TableSummary, api.FormatParquet)
		rows := readParquet[SummaryRow](t, data)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(200), rows[0].Total)
		assert.Equal(t, "2011-01-02", rows[0].End)
		assert.Equal(t, int32(23), rows[0].EndHour)
	})
}

func TestExportRejectsBadInput(t *testing.T) {
	ex := newTestExporter()

	var buf bytes.Buffer

	_, err := ex.Export(context.Background(), &buf, api.TableHourly, "pdf", sampleView())
	assert.ErrorContains(t, err, "unsupported export format")

	_, err = ex.Export(context.Background(), &buf, "daily", api.FormatParquet, sampleView())
	assert.ErrorContains(t, err, "unknown table")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := ex.Export(ctx, &buf, api.TableHourly, api.FormatCSV, sampleView())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

func TestFileNameAndContentType(t *testing.T) {
	assert.Equal(t, "bikepulse_hourly_2011-01-01_2011-12-31.csv",
		FileName(api.TableHourly, api.FormatCSV, domain.DateRangeDTO{Start: "2011-01-01", End: "2011-12-31"}))
	assert.Equal(t, "bikepulse_summary.parquet", FileName(api.TableSummary, api.FormatParquet, domain.DateRangeDTO{}))

	assert.Equal(t, "text/csv; charset=utf-8", ContentType(api.FormatCSV))
	assert.Contains(t, ContentType(api.FormatXLSX), "spreadsheetml")
	assert.Equal(t, "application/octet-stream", ContentType("zip"))
}
