package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type csvReader struct {
	file *os.File
	r    *csv.Reader
}

func openCSV(path string, delimiter rune) (*csvReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if delimiter == 0 {
		delimiter = ','
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			delimiter = '\t'
		}
	}

	r := csv.NewReader(bufio.NewReader(f))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	return &csvReader{file: f, r: r}, nil
}

func (c *csvReader) Next() ([]string, error) {
	return c.r.Read()
}

func (c *csvReader) Close() error {
	return c.file.Close()
}
