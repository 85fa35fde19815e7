package datasets

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Noofbiz/mixbatch/sampler"
)

// CSVDataset lazily loads CSV files matching a given pattern. Every data row
// is one example; the inputs and labels are read from the named columns, in
// the order given.
type CSVDataset struct {
	// Pattern used to find CSV files (e.g., "assets/nli/*.csv")
	Pattern string

	name string

	// List of CSV file paths matching the pattern
	csvPaths []string

	features []string
	labels   []string

	// Column indices for features and labels (discovered from first file)
	colIndex map[string]int

	// files[i] is the global index range of the rows in csvPaths[i]
	files []sampler.Range

	// Total number of examples across all files
	totalExamples int
}

// NewCSVDataset creates a dataset that lazily loads the CSV files matching
// pattern. Column names are matched case-insensitively. An empty name
// defaults to the pattern.
func NewCSVDataset(name, pattern string, features, labels []string) (*CSVDataset, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("no feature columns given for %s", pattern)
	}

	// Find all CSV files matching the pattern
	csvPaths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
	}
	if len(csvPaths) == 0 {
		return nil, fmt.Errorf("no CSV files found matching pattern: %s", pattern)
	}
	if name == "" {
		name = pattern
	}

	ds := &CSVDataset{
		Pattern:  pattern,
		name:     name,
		csvPaths: csvPaths,
		features: normalizeColumns(features),
		labels:   normalizeColumns(labels),
	}

	// Read the first file to determine column structure
	if err := ds.initializeColumns(); err != nil {
		return nil, err
	}

	// Count rows in all files to build the index
	if err := ds.buildIndex(); err != nil {
		return nil, err
	}

	return ds, nil
}

func normalizeColumns(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = strings.TrimSpace(strings.ToLower(c))
	}
	return out
}

// initializeColumns reads the first CSV to determine column indices
func (d *CSVDataset) initializeColumns() error {
	file, err := os.Open(d.csvPaths[0])
	if err != nil {
		return fmt.Errorf("failed to open first CSV %s: %w", d.csvPaths[0], err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	d.colIndex = make(map[string]int)
	for i, col := range header {
		d.colIndex[strings.TrimSpace(strings.ToLower(col))] = i
	}

	// Verify required columns exist
	for _, col := range append(append([]string(nil), d.features...), d.labels...) {
		if _, ok := d.colIndex[col]; !ok {
			return fmt.Errorf("required column %q not found in CSV", col)
		}
	}

	return nil
}

// buildIndex counts rows in all files and lays the files out back to back
func (d *CSVDataset) buildIndex() error {
	counts := make([]int, len(d.csvPaths))
	for i, path := range d.csvPaths {
		count, err := countCSVRows(path)
		if err != nil {
			return fmt.Errorf("failed to count rows in %s: %w", path, err)
		}
		counts[i] = count
		d.totalExamples += count
	}

	files, err := sampler.Partition(counts)
	if err != nil {
		return err
	}
	d.files = files
	return nil
}

// Len returns the total number of examples across all CSV files
func (d *CSVDataset) Len() int {
	return d.totalExamples
}

// Name returns the name of the dataset
func (d *CSVDataset) Name() string {
	return d.name
}

// Example reads a single example by index
func (d *CSVDataset) Example(idx int) (inputs []float32, labels []float32, err error) {
	fileIdx, localIdx, ok := sampler.Locate(d.files, idx)
	if !ok {
		return nil, nil, fmt.Errorf("index %d out of range [0, %d)", idx, d.totalExamples)
	}

	// Read the specific row from the file
	return d.readExample(fileIdx, localIdx)
}

// readExample reads a specific example from a file
func (d *CSVDataset) readExample(fileIdx, rowIdx int) ([]float32, []float32, error) {
	file, err := os.Open(d.csvPaths[fileIdx])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Skip to the desired row
	for range rowIdx {
		if _, err := reader.Read(); err != nil {
			return nil, nil, fmt.Errorf("failed to skip to row %d: %w", rowIdx, err)
		}
	}

	record, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read row %d: %w", rowIdx, err)
	}
	return d.parseRecord(record)
}

func (d *CSVDataset) parseRecord(record []string) ([]float32, []float32, error) {
	inputs, err := parseColumns(record, d.colIndex, d.features)
	if err != nil {
		return nil, nil, err
	}
	labels, err := parseColumns(record, d.colIndex, d.labels)
	if err != nil {
		return nil, nil, err
	}
	return inputs, labels, nil
}

// Batch reads multiple examples by their indices
func (d *CSVDataset) Batch(indices []int) ([][]float32, [][]float32, error) {
	inputs := make([][]float32, len(indices))
	labels := make([][]float32, len(indices))

	// Group indices by file for more efficient reading
	fileGroups := make(map[int]map[int][]int)
	for batchPos, idx := range indices {
		fileIdx, localIdx, ok := sampler.Locate(d.files, idx)
		if !ok {
			return nil, nil, fmt.Errorf("index %d out of range [0, %d)", idx, d.totalExamples)
		}
		if fileGroups[fileIdx] == nil {
			fileGroups[fileIdx] = make(map[int][]int)
		}
		// the same row may appear more than once in a batch
		fileGroups[fileIdx][localIdx] = append(fileGroups[fileIdx][localIdx], batchPos)
	}

	// Process each file's indices together
	for fileIdx, rows := range fileGroups {
		if err := d.readBatchFromFile(fileIdx, rows, inputs, labels); err != nil {
			return nil, nil, err
		}
	}

	return inputs, labels, nil
}

// readBatchFromFile reads the wanted rows of one file in a single scan.
// rows maps a row index within the file to its positions in the batch.
func (d *CSVDataset) readBatchFromFile(fileIdx int, rows map[int][]int, inputs, labels [][]float32) error {
	file, err := os.Open(d.csvPaths[fileIdx])
	if err != nil {
		return fmt.Errorf("failed to open CSV: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	rowIdx := 0
	found := 0
	for found < len(rows) {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read row: %w", err)
		}

		if positions, ok := rows[rowIdx]; ok {
			in, la, err := d.parseRecord(record)
			if err != nil {
				return fmt.Errorf("%s row %d: %w", d.csvPaths[fileIdx], rowIdx, err)
			}
			for _, pos := range positions {
				inputs[pos] = in
				labels[pos] = la
			}
			found++
		}

		rowIdx++
	}

	if found < len(rows) {
		return fmt.Errorf("%s: %d requested rows missing", d.csvPaths[fileIdx], len(rows)-found)
	}
	return nil
}
