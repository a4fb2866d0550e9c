// Package csvsource reads AIS position exports into raw report rows.
package csvsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/samirrijal/gateflow/internal/core/domain"
)

// columnAliases maps each report field to the header names exporters use.
var columnAliases = map[string][]string{
	"mmsi":   {"mmsi"},
	"lat":    {"lat", "latitude"},
	"lon":    {"lon", "lng", "longitude"},
	"cog":    {"course", "cog"},
	"length": {"length"},
	"speed":  {"speed", "sog"},
}

// Read parses a CSV export. Only the first line is treated as the header;
// header lines repeated further down by concatenated exports are returned
// as ordinary rows.
func Read(r io.Reader) ([]domain.RawReport, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := resolveColumns(indexColumns(header))
	if err != nil {
		return nil, err
	}

	var rows []domain.RawReport
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}

		rows = append(rows, domain.RawReport{
			MMSI:   getField(record, cols["mmsi"]),
			Lat:    getField(record, cols["lat"]),
			Lon:    getField(record, cols["lon"]),
			Cog:    getField(record, cols["cog"]),
			Length: getField(record, cols["length"]),
			Speed:  getField(record, cols["speed"]),
		})
	}

	return rows, nil
}

// ReadFile parses the CSV export at path.
func ReadFile(path string) ([]domain.RawReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func indexColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		// Strip BOM from first column
		col = strings.TrimPrefix(col, "\xef\xbb\xbf")
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}

func resolveColumns(header map[string]int) (map[string]int, error) {
	cols := make(map[string]int, len(columnAliases))
	var missing []string
	for field, aliases := range columnAliases {
		idx := -1
		for _, alias := range aliases {
			if i, ok := header[alias]; ok {
				idx = i
				break
			}
		}
		if idx < 0 {
			missing = append(missing, field)
			continue
		}
		cols[field] = idx
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, fmt.Errorf("%w: missing columns %s", domain.ErrSchema, strings.Join(missing, ", "))
	}
	return cols, nil
}

func getField(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
