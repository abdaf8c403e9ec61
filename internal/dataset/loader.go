package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"bikepulse/pkg/contracts/domain"
)

// Options control how a dataset file is parsed.
type Options struct {
	// Delimiter for text files. Zero means comma, or tab for .tsv files.
	Delimiter rune
	// Sheet to read from a workbook. Empty means the first sheet.
	Sheet string
	// ValidateTotals rejects rows where count != registered + casual.
	ValidateTotals bool
	// MaxErrors caps how many row errors are collected before giving up.
	MaxErrors int
	Logger    *slog.Logger
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{MaxErrors: 20}
}

// Format is a supported input file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat maps a file extension to a Format.
func DetectFormat(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		return FormatCSV, true
	case ".xlsx", ".xlsm":
		return FormatXLSX, true
	default:
		return "", false
	}
}

// Canonical column names and the header spellings accepted for each.
// The second spellings are the ones used by the raw UCI hourly file.
const (
	colDate       = "dateday"
	colHour       = "hr"
	colSeason     = "season"
	colWeather    = "weather_cond"
	colRegistered = "registered"
	colCasual     = "casual"
	colCount      = "count"
)

var requiredColumns = []string{colDate, colHour, colSeason, colWeather, colRegistered, colCasual, colCount}

var columnAliases = map[string]string{
	"dateday":      colDate,
	"dteday":       colDate,
	"date":         colDate,
	"hr":           colHour,
	"hour":         colHour,
	"season":       colSeason,
	"weather_cond": colWeather,
	"weathersit":   colWeather,
	"weather":      colWeather,
	"registered":   colRegistered,
	"casual":       colCasual,
	"count":        colCount,
	"cnt":          colCount,
}

var dateLayouts = []string{
	domain.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
}

const cancelCheckInterval = 4096

// rowReader yields raw rows, returning io.EOF after the last one.
type rowReader interface {
	Next() ([]string, error)
	Close() error
}

// Load reads the dataset at path into an immutable Table.
// Every failure is reported as a *LoadError.
func Load(ctx context.Context, path string, opts Options) (*Table, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "dataset"), slog.String("path", path))

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Path: path, Reason: ReasonNotFound, Err: err}
		}
		return nil, &LoadError{Path: path, Reason: ReasonUnreadable, Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Path: path, Reason: ReasonUnreadable, Err: fmt.Errorf("%s is a directory", path)}
	}

	format, ok := DetectFormat(path)
	if !ok {
		return nil, &LoadError{
			Path:   path,
			Reason: ReasonUnsupportedFormat,
			Err:    fmt.Errorf("extension %q, want .csv, .txt, .tsv or .xlsx", filepath.Ext(path)),
		}
	}

	var rr rowReader
	switch format {
	case FormatXLSX:
		rr, err = openXLSX(path, opts.Sheet)
	default:
		rr, err = openCSV(path, opts.Delimiter)
	}
	if err != nil {
		return nil, &LoadError{Path: path, Reason: ReasonUnreadable, Err: err}
	}
	defer rr.Close()

	records, err := parse(ctx, path, rr, opts)
	if err != nil {
		return nil, err
	}

	table := NewTable(path, records)
	if table.Len() == 0 {
		logger.Warn("Dataset has a header but no records")
	}
	logger.Info("Dataset loaded",
		slog.String("format", string(format)),
		slog.Int("records", table.Len()),
		slog.String("min_date", table.Bounds().MinDate),
		slog.String("max_date", table.Bounds().MaxDate),
		slog.Duration("duration", time.Since(start)))

	return table, nil
}

// parse maps the header and converts every data row. Row problems are
// collected so that one bad file reports many issues at once.
func parse(ctx context.Context, path string, rr rowReader, opts Options) ([]domain.RentalRecord, error) {
	header, err := rr.Next()
	if errors.Is(err, io.EOF) || (err == nil && blank(header)) {
		return nil, &LoadError{Path: path, Reason: ReasonEmptyHeader}
	}
	if err != nil {
		return nil, &LoadError{Path: path, Reason: ReasonUnreadable, Err: err}
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: ReasonMissingColumn, Err: err}
	}

	maxErrors := opts.MaxErrors
	if maxErrors <= 0 {
		maxErrors = DefaultOptions().MaxErrors
	}

	var (
		records  []domain.RentalRecord
		rowErrs  error
		errCount int
	)
	for row := 2; ; row++ {
		if row%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, &LoadError{Path: path, Reason: ReasonCancelled, Err: err}
			}
		}

		cells, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rowErrs = multierror.Append(rowErrs, &RowError{Row: row, Msg: err.Error()})
			errCount++
		} else if !blank(cells) {
			rec, errs := parseRow(row, cells, columns, opts.ValidateTotals)
			if len(errs) == 0 {
				records = append(records, rec)
			} else {
				rowErrs = multierror.Append(rowErrs, errs...)
				errCount += len(errs)
			}
		}

		if errCount >= maxErrors {
			rowErrs = multierror.Append(rowErrs, fmt.Errorf("stopped after %d errors", errCount))
			break
		}
	}

	if rowErrs != nil {
		return nil, &LoadError{Path: path, Reason: ReasonMalformedRows, Err: rowErrs}
	}
	return records, nil
}

// mapColumns resolves the index of each required column from the header.
func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(requiredColumns))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		canonical, ok := columnAliases[key]
		if !ok {
			continue
		}
		if _, seen := columns[canonical]; !seen {
			columns[canonical] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header lacks %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func parseRow(row int, cells []string, columns map[string]int, validateTotals bool) (domain.RentalRecord, []error) {
	var (
		rec  domain.RentalRecord
		errs []error
	)
	cell := func(col string) string {
		i := columns[col]
		if i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}
	fail := func(col, value, msg string) {
		errs = append(errs, &RowError{Row: row, Column: col, Value: value, Msg: msg})
	}

	raw := cell(colDate)
	date, err := parseDate(raw)
	if err != nil {
		fail(colDate, raw, "invalid date")
	}
	rec.Date = date

	raw = cell(colHour)
	hour, err := parseInt(raw)
	switch {
	case err != nil:
		fail(colHour, raw, "invalid hour")
	case hour < domain.MinHour || hour > domain.MaxHour:
		fail(colHour, raw, "hour outside 0..23")
	}
	rec.Hour = int(hour)

	rec.Season = cell(colSeason)
	rec.WeatherCondition = cell(colWeather)

	counts := []struct {
		col string
		dst *int64
	}{
		{colRegistered, &rec.Registered},
		{colCasual, &rec.Casual},
		{colCount, &rec.Total},
	}
	for _, c := range counts {
		raw := cell(c.col)
		n, err := parseInt(raw)
		switch {
		case err != nil:
			fail(c.col, raw, "invalid count")
		case n < 0:
			fail(c.col, raw, "negative count")
		}
		*c.dst = n
	}

	if validateTotals && len(errs) == 0 && rec.Registered+rec.Casual != rec.Total {
		fail(colCount, cell(colCount), fmt.Sprintf("does not equal registered + casual (%d)", rec.Registered+rec.Casual))
	}
	return rec, errs
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.TruncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// parseInt accepts plain integers and integral floats such as "8.0",
// which is how some spreadsheet tools store whole numbers.
func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return int64(f), nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
