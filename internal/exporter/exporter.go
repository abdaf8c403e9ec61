package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	api "bikepulse/pkg/contracts/api/v1"
	"bikepulse/pkg/contracts/domain"
)

// Exporter dispatches a table to the writer for the requested format
type Exporter struct {
	csv    *CSVWriter
	logger *slog.Logger
}

// New creates an exporter whose CSV output carries a BOM.
func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		csv:    NewCSVWriter(true),
		logger: logger.With(slog.String("component", "exporter")),
	}
}

// Export writes one table of view to w in the given format and returns the
// number of bytes written.
func (e *Exporter) Export(ctx context.Context, w io.Writer, table, format string, view *domain.DashboardView) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	var err error
	switch format {
	case api.FormatParquet:
		err = WriteParquet(cw, table, view)
	case api.FormatCSV, api.FormatXLSX:
		var t *Table
		if t, err = BuildTable(table, view); err != nil {
			break
		}
		if format == api.FormatCSV {
			err = e.csv.WriteTable(cw, t)
		} else {
			err = WriteXLSX(cw, t)
		}
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}

	if err != nil {
		e.logger.ErrorContext(ctx, "Export failed",
			slog.String("table", table),
			slog.String("format", format),
			slog.String("error", err.Error()))
		return cw.n, err
	}

	e.logger.InfoContext(ctx, "Export written",
		slog.String("table", table),
		slog.String("format", format),
		slog.Int64("bytes", cw.n))
	return cw.n, nil
}

// ContentType returns the MIME type of an export format.
func ContentType(format string) string {
	switch format {
	case api.FormatCSV:
		return "text/csv; charset=utf-8"
	case api.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case api.FormatParquet:
		return "application/vnd.apache.parquet"
	}
	return "application/octet-stream"
}

// FileName builds the download name, e.g. bikepulse_hourly_2011-01-01_2012-12-31.csv
func FileName(table, format string, r domain.DateRangeDTO) string {
	parts := []string{"bikepulse", table}
	if r.Start != "" {
		parts = append(parts, r.Start)
	}
	if r.End != "" {
		parts = append(parts, r.End)
	}
	return strings.Join(parts, "_") + "." + format
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
