package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"passenger-insights/models"
	"passenger-insights/utils"
)

// CSVSource reads raw passengers from a CSV file with a header row. Extra
// columns are ignored; "pclass" is accepted in place of "class".
type CSVSource struct {
	path   string
	logger *utils.Logger
}

// NewCSVSource creates a CSVSource for the file at path.
func NewCSVSource(path string, logger *utils.Logger) *CSVSource {
	return &CSVSource{path: path, logger: logger}
}

// Load reads and parses every row.
func (c *CSVSource) Load() ([]*models.RawPassenger, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", c.path, err)
	}
	defer f.Close()

	rows, err := ReadPassengers(f, c.path)
	if err != nil {
		return nil, err
	}
	c.logger.Info("[csv] Loaded %d passengers from %s", len(rows), c.path)
	return rows, nil
}

func (c *CSVSource) Close() error { return nil }

// ReadPassengers parses CSV passenger records from r. source names the input
// in errors. A missing required column returns *models.SchemaError; a bad
// cell fails with its line number.
func ReadPassengers(r io.Reader, source string) ([]*models.RawPassenger, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &models.SchemaError{Source: source, Missing: models.RequiredFields}
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		name := normaliseHeader(h)
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}
	if missing := missingFields(columns); len(missing) > 0 {
		return nil, &models.SchemaError{Source: source, Missing: missing}
	}

	var rows []*models.RawPassenger
	cells := make(map[string]string, len(models.RequiredFields))
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		for _, field := range models.RequiredFields {
			cells[field] = record[columns[field]]
		}
		p, err := parseRow(cells)
		if err != nil {
			return nil, fmt.Errorf("csv: %s line %d: %w", source, line, err)
		}
		rows = append(rows, p)
	}
	return rows, nil
}

// CSVWriter writes passengers to a CSV file. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path.
// Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	return &CSVWriter{file: f, writer: csv.NewWriter(f)}, nil
}

// Write writes raw rows under the canonical header. Missing numbers are
// left empty.
func (c *CSVWriter) Write(rows []*models.RawPassenger) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writer.Write(models.RequiredFields); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, p := range rows {
		record := []string{
			formatNullable(p.Age),
			formatNullable(p.Fare),
			string(p.Sex),
			string(p.Class),
			survivedCell(p.Survived),
		}
		if err := c.writer.Write(record); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// WriteDataset writes prepared passengers with their derived groups and
// imputation flags.
func (c *CSVWriter) WriteDataset(ds *models.Dataset) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	header := append(append([]string{}, models.RequiredFields...),
		"age_group", "fare_group", "age_imputed", "fare_imputed")
	if err := c.writer.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	var writeErr error
	ds.Each(func(p models.Passenger) {
		if writeErr != nil {
			return
		}
		writeErr = c.writer.Write([]string{
			formatNullable(models.Float(p.Age)),
			formatNullable(models.Float(p.Fare)),
			string(p.Sex),
			string(p.Class),
			survivedCell(p.Survived),
			p.AgeGroup,
			p.FareGroup,
			fmt.Sprint(p.AgeImputed),
			fmt.Sprint(p.FareImputed),
		})
	})
	if writeErr != nil {
		return fmt.Errorf("csv: write row: %w", writeErr)
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func survivedCell(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
