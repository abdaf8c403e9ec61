// Package exporter writes the dashboard aggregate tables to downloadable
// files.
//
// Every table is first converted to a Table: named columns and typed rows.
// The same Table then feeds one of three writers:
//
//	CSV      header row + records, optional UTF-8 BOM for Excel
//	XLSX     one sheet with a bold, frozen header row
//	Parquet  typed columns, SNAPPY compressed
//
// Example usage:
//
//	ex := exporter.New(logger)
//	n, err := ex.Export(ctx, w, api.TableHourly, api.FormatParquet, view)
package exporter
