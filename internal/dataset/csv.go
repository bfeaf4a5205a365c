package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	ErrNoHeader     = errors.New("no columns to parse from file")
	ErrRowTooLong   = errors.New("row has more fields than the header")
	ErrReadDataFile = errors.New("read data file")
)

// LoadCSV reads a CSV file with a header row.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadDataFile, err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses CSV data. Short rows are padded with nulls; rows longer than
// the header are rejected. A header with no data rows is a valid empty table.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := normalizeHeader(header)

	var rows [][]string
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(record) > len(columns) {
			return nil, fmt.Errorf("%w: line %d has %d fields, expected %d", ErrRowTooLong, line, len(record), len(columns))
		}
		row := make([]string, len(columns))
		copy(row, record)
		rows = append(rows, row)
	}

	return New(columns, rows), nil
}

// normalizeHeader strips a UTF-8 BOM, trims names and de-duplicates repeated
// names as name.1, name.2, ...
func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n+1)
		} else {
			seen[name] = 0
		}
		columns[i] = name
	}
	return columns
}
