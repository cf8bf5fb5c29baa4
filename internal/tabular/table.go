// Package tabular converts manifest payloads between their wire forms
// (JSON records, CSV files) and the row/column table the validation and
// submission engines consume.
package tabular

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/datacurio/schemactl/internal/domain"
)

// FromJSONRecords decodes a list of JSON records into a table. Column
// order follows first appearance across records; a malformed payload is
// a FormatError.
func FromJSONRecords(data []byte) (*domain.Table, error) {
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, domain.NewFormatError(domain.ContentTypeJSON, err)
	}

	columns, err := columnOrder(data)
	if err != nil {
		return nil, domain.NewFormatError(domain.ContentTypeJSON, err)
	}

	table := &domain.Table{Columns: columns}
	for _, record := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			raw, ok := record[col]
			if !ok {
				continue
			}
			row[i] = rawToString(raw)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// columnOrder walks the raw token stream so column order matches the
// payload instead of Go's randomized map iteration.
func columnOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("expected a JSON array of records")
	}

	var columns []string
	seen := make(map[string]bool)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' {
			return nil, fmt.Errorf("expected a JSON object record")
		}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("expected a string record key")
			}
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
		if _, err := dec.Token(); err != nil { // closing '}'
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return nil, err
	}
	return columns, nil
}

// rawToString renders a JSON value as a cell value. Strings lose their
// quotes, null becomes empty, everything else keeps its JSON encoding.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		if s, err := strconv.Unquote(string(raw)); err == nil {
			return s
		}
	}
	return string(raw)
}

// WriteCSV writes the table to path with a header row.
func WriteCSV(table *domain.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Columns); err != nil {
		return err
	}
	for _, row := range table.Rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadCSV reads a CSV file with a header row into a table.
func ReadCSV(path string) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, domain.NewFormatError("text/csv", err)
	}
	if len(rows) == 0 {
		return &domain.Table{}, nil
	}
	return &domain.Table{Columns: rows[0], Rows: rows[1:]}, nil
}

// RecordsFromFile reads a CSV manifest and returns it as JSON-style
// records, one map per row.
func RecordsFromFile(path string) ([]map[string]string, error) {
	table, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}
	return table.Records(), nil
}
