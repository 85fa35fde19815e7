package datasets

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

func parseFloat32(s string) (float32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}

// countCSVRows counts the number of data rows in a CSV file (excluding header)
func countCSVRows(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, err
	}

	count := 0
	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		count++
	}

	return count, nil
}

// parseColumns reads the named columns of a record in order.
func parseColumns(record []string, colIndex map[string]int, cols []string) ([]float32, error) {
	out := make([]float32, len(cols))
	for i, col := range cols {
		idx := colIndex[col]
		if idx >= len(record) {
			return nil, fmt.Errorf("row has %d fields, column %q is at %d", len(record), col, idx)
		}
		val, err := parseFloat32(record[idx])
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", col, err)
		}
		out[i] = val
	}
	return out, nil
}
