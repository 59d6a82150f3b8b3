// SPDX-License-Identifier: Apache-2.0

package quality

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// ErrUnsupportedTable: the table input cannot be decoded into rows.
var ErrUnsupportedTable = errors.New("unsupported analysis table")

// Table formats accepted by LoadRows.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// FormatFromPath infers the table format from a file extension.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// LoadFile reads an analysis table from path.
func LoadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open analysis table: %w", err)
	}
	defer f.Close()
	return LoadRows(f, FormatFromPath(path))
}

// LoadRows decodes a table. JSON and YAML tables are sequences of mappings;
// non-string scalars are rendered as text and null as the empty string, so a
// null value counts as present but empty. CSV tables need a header row.
func LoadRows(r io.Reader, format string) ([]Row, error) {
	switch strings.ToLower(format) {
	case FormatJSON, FormatYAML, "yml":
		return loadMappings(r)
	case FormatCSV:
		return loadCSV(r)
	}
	return nil, fmt.Errorf("%w: format %q", ErrUnsupportedTable, format)
}

func loadMappings(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis table: %w", err)
	}
	var raw []map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedTable, err)
	}
	rows := make([]Row, 0, len(raw))
	for _, m := range raw {
		row := make(Row, len(m))
		for k, v := range m {
			if v == nil {
				row[k] = ""
				continue
			}
			row[k] = fmt.Sprintf("%v", v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func loadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedTable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: csv table has no header row", ErrUnsupportedTable)
	}
	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
