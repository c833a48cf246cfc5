package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// rawRow is one partition listing row before normalization. All fields are
// kept as strings; coercion happens during the merge.
type rawRow struct {
	ID         string
	Title      string
	URL        string
	Difficulty string
	Acceptance string
	Frequency  string
	Topics     string
}

// columnAliases maps each logical column to the header spellings seen in the
// source exports. Headers are matched case-insensitively.
var columnAliases = map[string][]string{
	"id":         {"id"},
	"title":      {"title"},
	"url":        {"url", "link"},
	"difficulty": {"difficulty"},
	"acceptance": {"acceptance %", "acceptance", "acceptance rate"},
	"frequency":  {"frequency %", "frequency"},
	"topics":     {"topics", "topic"},
}

// readPartitionFile parses one partition resource into raw rows. The format
// is chosen by file extension; a trailing blank row is ignored.
func readPartitionFile(path string) ([]rawRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readXLSX(path)
	}
	return nil, fmt.Errorf("unsupported partition format: %s", filepath.Base(path))
}

func readCSV(path string) ([]rawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := resolveColumns(header)

	var rows []rawRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		if row, ok := toRawRow(record, cols); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func readXLSX(path string) ([]rawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	cols := resolveColumns(records[0])
	var rows []rawRow
	for _, record := range records[1:] {
		if row, ok := toRawRow(record, cols); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// resolveColumns maps logical column names to header indexes.
func resolveColumns(header []string) map[string]int {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := make(map[string]int)
	for logical, aliases := range columnAliases {
		for _, alias := range aliases {
			if i, ok := byName[alias]; ok {
				cols[logical] = i
				break
			}
		}
	}
	return cols
}

// toRawRow extracts a raw row from a record; blank records report ok=false.
func toRawRow(record []string, cols map[string]int) (rawRow, bool) {
	field := func(logical string) string {
		i, ok := cols[logical]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := rawRow{
		ID:         field("id"),
		Title:      field("title"),
		URL:        field("url"),
		Difficulty: field("difficulty"),
		Acceptance: field("acceptance"),
		Frequency:  field("frequency"),
		Topics:     field("topics"),
	}
	if row.ID == "" && row.Title == "" && row.Difficulty == "" {
		return rawRow{}, false
	}
	return row, true
}
