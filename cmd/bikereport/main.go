// Command bikereport prints the dashboard summary for a date and hour
// window, or writes one aggregate table to a file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"bikepulse/internal/config"
	"bikepulse/internal/dataset"
	apierrors "bikepulse/internal/errors"
	"bikepulse/internal/infrastructure"
	"bikepulse/internal/services"
	api "bikepulse/pkg/contracts/api/v1"
)

type options struct {
	data      string
	start     string
	end       string
	startHour int
	endHour   int
	table     string
	format    string
	out       string
	logLevel  string
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logger := infrastructure.NewLogger(stderr, opts.logLevel)
	ctx = services.WithCaller(ctx, "cli")

	loadOpts := dataset.DefaultOptions()
	loadOpts.Logger = logger
	table, err := dataset.Load(ctx, config.ResolvePath(opts.data), loadOpts)
	if err != nil {
		logger.Error("Failed to load dataset", slog.String("path", opts.data), slog.String("error", err.Error()))
		return 1
	}

	svc := services.NewDashboardService(table, nil, nil, logger)
	q := opts.query()

	if opts.table == "" {
		view, err := svc.Compute(ctx, q)
		if err != nil {
			report(logger, err)
			return 1
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(api.SummaryResponse{Range: view.Range, Summary: view.Summary}); err != nil {
			logger.Error("Failed to write summary", slog.String("error", err.Error()))
			return 1
		}
		return 0
	}

	return export(ctx, svc, q, opts, stdout, logger)
}

func export(ctx context.Context, svc *services.DashboardService, q api.DashboardQuery, opts options, stdout io.Writer, logger *slog.Logger) int {
	req := api.ExportRequest{DashboardQuery: q, Table: opts.table, Format: opts.format}

	if opts.out == "-" {
		if _, err := svc.Export(ctx, req, stdout); err != nil {
			report(logger, err)
			return 1
		}
		return 0
	}

	dir, name := ".", ""
	switch st, err := os.Stat(opts.out); {
	case opts.out == "":
	case err == nil && st.IsDir():
		dir = opts.out
	default:
		dir, name = filepath.Dir(opts.out), filepath.Base(opts.out)
	}

	// staged beside the target and renamed on success
	tmp, err := os.CreateTemp(dir, ".bikereport-*")
	if err != nil {
		logger.Error("Failed to create output file", slog.String("error", err.Error()))
		return 1
	}
	defer os.Remove(tmp.Name())

	// CreateTemp is owner-only; reports are ordinary files
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		logger.Error("Failed to set output file mode", slog.String("error", err.Error()))
		return 1
	}

	info, err := svc.Export(ctx, req, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		report(logger, err)
		return 1
	}

	if name == "" {
		name = info.FileName
	}
	target := filepath.Join(dir, name)

	if err := os.Rename(tmp.Name(), target); err != nil {
		logger.Error("Failed to write export", slog.String("path", target), slog.String("error", err.Error()))
		return 1
	}

	logger.Info("Export written",
		slog.String("path", target),
		slog.String("table", opts.table),
		slog.String("format", opts.format),
		slog.Int64("bytes", info.Bytes))
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fset := flag.NewFlagSet("bikereport", flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.StringVar(&opts.data, "data", config.DefaultDatasetPath, "rental dataset (.csv, .tsv, .txt or .xlsx)")
	fset.StringVar(&opts.start, "start", "", "first day, YYYY-MM-DD (defaults to the dataset start)")
	fset.StringVar(&opts.end, "end", "", "last day, YYYY-MM-DD (defaults to the dataset end)")
	fset.IntVar(&opts.startHour, "start-hour", -1, "first hour of day, 0-23")
	fset.IntVar(&opts.endHour, "end-hour", -1, "last hour of day, 0-23")
	fset.StringVar(&opts.table, "table", "", "export one table instead of printing the summary: hourly, seasonal, weather or summary")
	fset.StringVar(&opts.format, "format", api.FormatCSV, "export format: csv, xlsx or parquet")
	fset.StringVar(&opts.out, "out", "", "export destination file or directory, - for stdout")
	fset.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	if err := fset.Parse(args); err != nil {
		return opts, err
	}
	if fset.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fset.Args())
		fset.Usage()
		return opts, errors.New("unexpected arguments")
	}
	return opts, nil
}

func (o options) query() api.DashboardQuery {
	q := api.DashboardQuery{Start: o.start, End: o.end}
	// -1 means unset; anything else out of range is left for validation
	if o.startHour != -1 {
		q.StartHour = api.IntPtr(o.startHour)
	}
	if o.endHour != -1 {
		q.EndHour = api.IntPtr(o.endHour)
	}
	return q
}

// report logs a service error, flattening API errors to their code.
func report(logger *slog.Logger, err error) {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		logger.Error(apiErr.Message, slog.String("error_code", apiErr.ErrorCode), slog.Any("details", apiErr.Details))
		return
	}
	logger.Error("Request failed", slog.String("error", err.Error()))
}
