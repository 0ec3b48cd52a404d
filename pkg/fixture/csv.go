package fixture

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoHeader is returned when CSV input has no header row.
var ErrNoHeader = errors.New("csv: missing header row")

// ParseCSV reads a header row followed by data rows. Columns are matched to Row
// fields by header name (case-insensitive); unknown columns are ignored and
// missing trailing cells are treated as empty. Blank lines are skipped.
// Dates are returned as written; see NormalizeDate.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		columns[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if isBlankRecord(record) {
			continue
		}

		var row Row
		for i, col := range columns {
			if i >= len(record) {
				break
			}
			row.Set(col, strings.TrimSpace(record[i]))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseCSVString is ParseCSV over a string.
func ParseCSVString(text string) ([]Row, error) {
	return ParseCSV(strings.NewReader(text))
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
