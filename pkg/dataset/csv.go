package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ErrNoHeader is returned when CSV input has no header row.
var ErrNoHeader = errors.New("dataset: csv has no header row")

// ReadOption configures ReadCSV.
type ReadOption func(*readConfig)

type readConfig struct {
	indexColumn *string
}

// WithIndexColumn takes row IDs from the named column, which is not kept as a
// data column. Cells that are not integers are an error. Pandas writes its
// unnamed index under the empty header.
func WithIndexColumn(name string) ReadOption {
	return func(c *readConfig) {
		c.indexColumn = &name
	}
}

// ReadCSV reads a dataset from CSV with a header row. Without
// WithIndexColumn, rows get IDs 0..n-1 in file order.
func ReadCSV(r io.Reader, opts ...ReadOption) (*Dataset, error) {
	var cfg readConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}

	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	indexPos := -1

	if cfg.indexColumn != nil {
		for i, h := range header {
			if h == *cfg.indexColumn {
				indexPos = i

				break
			}
		}

		if indexPos < 0 {
			return nil, fmt.Errorf("%w: index %q", ErrUnknownColumn, *cfg.indexColumn)
		}
	}

	ds, err := New(withoutPos(header, indexPos)...)
	if err != nil {
		return nil, err
	}

	if indexPos >= 0 {
		ds.SetIndexColumn(header[indexPos])
	}

	for line := 2; ; line++ {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, readErr)
		}

		if len(record) != len(header) {
			return nil, fmt.Errorf("%w: line %d has %d fields, want %d", ErrLengthMismatch, line, len(record), len(header))
		}

		if indexPos < 0 {
			if appendErr := ds.Append(record...); appendErr != nil {
				return nil, appendErr
			}

			continue
		}

		id, convErr := strconv.Atoi(record[indexPos])
		if convErr != nil {
			return nil, fmt.Errorf("parse index on line %d: %w", line, convErr)
		}

		if appendErr := ds.AppendWithID(id, withoutPos(record, indexPos)...); appendErr != nil {
			return nil, fmt.Errorf("line %d: %w", line, appendErr)
		}
	}

	return ds, nil
}

// LoadCSV reads a dataset from the CSV file at path.
func LoadCSV(path string, opts ...ReadOption) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := ReadCSV(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return ds, nil
}

// SetIndexColumn makes WriteCSV emit row IDs first under header name.
func (d *Dataset) SetIndexColumn(name string) {
	d.indexColumn = &name
}

// WriteCSV writes the dataset as CSV. Datasets read WithIndexColumn, or given
// one by SetIndexColumn, write their row IDs as the first column.
func (d *Dataset) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	header := d.columns
	if d.indexColumn != nil {
		header = append([]string{*d.indexColumn}, d.columns...)
	}

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range d.rows {
		record := r.Cells
		if d.indexColumn != nil {
			record = append([]string{strconv.Itoa(r.ID)}, r.Cells...)
		}

		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.ID, err)
		}
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}

// SaveCSV writes the dataset to the CSV file at path.
func (d *Dataset) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}

	if err = d.WriteCSV(f); err != nil {
		f.Close()

		return err
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("close dataset: %w", err)
	}

	return nil
}

func withoutPos(values []string, pos int) []string {
	if pos < 0 {
		return values
	}

	out := make([]string, 0, len(values)-1)
	out = append(out, values[:pos]...)

	return append(out, values[pos+1:]...)
}
