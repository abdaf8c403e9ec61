package dataset

import (
	"errors"
	"fmt"
)

// Reasons a dataset can fail to load
const (
	ReasonNotFound          = "file not found"
	ReasonUnreadable        = "file unreadable"
	ReasonUnsupportedFormat = "unsupported format"
	ReasonEmptyHeader       = "missing header row"
	ReasonMissingColumn     = "missing required column"
	ReasonMalformedRows     = "malformed rows"
	ReasonCancelled         = "load cancelled"
)

// LoadError is returned for any failure while loading a dataset.
// Loading is all-or-nothing: a LoadError means no table was produced.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("load %s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err is or wraps a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// RowError describes a problem in a single data row. Row is 1-based and
// counts the header, so it matches what a spreadsheet shows.
type RowError struct {
	Row    int
	Column string
	Value  string
	Msg    string
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Msg)
	}
	return fmt.Sprintf("row %d, column %q: %s (value %q)", e.Row, e.Column, e.Msg, e.Value)
}
