// Package dataset provides the tabular listing dataset: named string columns,
// rows with stable identities, column resolution and batch removal.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrUnknownColumn is returned when a column cannot be resolved.
	ErrUnknownColumn = errors.New("dataset: unknown column")

	// ErrLengthMismatch is returned when a row or column has the wrong length.
	ErrLengthMismatch = errors.New("dataset: length mismatch")

	// ErrDuplicateColumn is returned when a header repeats a column name.
	ErrDuplicateColumn = errors.New("dataset: duplicate column")

	// ErrDuplicateID is returned when a row reuses the ID of an earlier row.
	ErrDuplicateID = errors.New("dataset: duplicate row id")
)

// Row is one record. ID is the row's identity in the source data and does
// not change when other rows are removed.
type Row struct {
	ID    int
	Cells []string
}

// Dataset is an ordered table of string cells.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    []Row
	ids     map[int]struct{}
	nextID  int

	indexColumn *string
}

// New creates an empty dataset with the given columns.
func New(columns ...string) (*Dataset, error) {
	index := make(map[string]int, len(columns))

	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}

		index[c] = i
	}

	return &Dataset{
		columns: slices.Clone(columns),
		index:   index,
		ids:     make(map[int]struct{}),
	}, nil
}

// Append adds a row with the next free ID.
func (d *Dataset) Append(cells ...string) error {
	return d.AppendWithID(d.nextID, cells...)
}

// AppendWithID adds a row with an explicit ID. IDs are unique within a
// dataset.
func (d *Dataset) AppendWithID(id int, cells ...string) error {
	if len(cells) != len(d.columns) {
		return fmt.Errorf("%w: row has %d cells, want %d", ErrLengthMismatch, len(cells), len(d.columns))
	}

	if _, dup := d.ids[id]; dup {
		return fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}

	d.ids[id] = struct{}{}
	d.rows = append(d.rows, Row{ID: id, Cells: slices.Clone(cells)})
	d.nextID = max(d.nextID, id+1)

	return nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Columns returns the column names in order.
func (d *Dataset) Columns() []string {
	return slices.Clone(d.columns)
}

// HasColumn reports whether name resolves to a column.
func (d *Dataset) HasColumn(name string) bool {
	_, err := d.ResolveColumn(name)

	return err == nil
}

// ResolveColumn returns the column name matching name exactly, or failing
// that, case-insensitively after trimming spaces.
func (d *Dataset) ResolveColumn(name string) (string, error) {
	if _, ok := d.index[name]; ok {
		return name, nil
	}

	want := strings.TrimSpace(name)
	for _, c := range d.columns {
		if strings.EqualFold(strings.TrimSpace(c), want) {
			return c, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

func (d *Dataset) columnIndex(name string) (int, error) {
	resolved, err := d.ResolveColumn(name)
	if err != nil {
		return 0, err
	}

	return d.index[resolved], nil
}

// IDs returns the row IDs in order.
func (d *Dataset) IDs() []int {
	ids := make([]int, len(d.rows))
	for i, r := range d.rows {
		ids[i] = r.ID
	}

	return ids
}

// Value returns the cell at position pos in column name.
func (d *Dataset) Value(pos int, name string) (string, error) {
	ci, err := d.columnIndex(name)
	if err != nil {
		return "", err
	}

	return d.rows[pos].Cells[ci], nil
}

// Column returns a copy of every cell in column name.
func (d *Dataset) Column(name string) ([]string, error) {
	ci, err := d.columnIndex(name)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(d.rows))
	for i, r := range d.rows {
		out[i] = r.Cells[ci]
	}

	return out, nil
}

// Floats parses column name as numbers. Blank or unparsable cells are NaN.
func (d *Dataset) Floats(name string) ([]float64, error) {
	cells, err := d.Column(name)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(cells))
	for i, c := range cells {
		out[i] = ParseFloat(c)
	}

	return out, nil
}

// ParseFloat parses a cell as a float64, returning NaN for blanks and
// unparsable text.
func ParseFloat(cell string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return math.NaN()
	}

	return v
}

// SetColumn replaces column name with values, appending the column when it
// does not exist.
func (d *Dataset) SetColumn(name string, values []string) error {
	if len(values) != len(d.rows) {
		return fmt.Errorf("%w: column %q has %d values, want %d", ErrLengthMismatch, name, len(values), len(d.rows))
	}

	ci, ok := d.index[name]
	if !ok {
		ci = len(d.columns)
		d.columns = append(d.columns, name)
		d.index[name] = ci

		for i := range d.rows {
			d.rows[i].Cells = append(d.rows[i].Cells, "")
		}
	}

	for i := range d.rows {
		d.rows[i].Cells[ci] = values[i]
	}

	return nil
}

// DropColumn removes column name if present.
func (d *Dataset) DropColumn(name string) {
	ci, ok := d.index[name]
	if !ok {
		return
	}

	d.columns = slices.Delete(d.columns, ci, ci+1)

	for i := range d.rows {
		d.rows[i].Cells = slices.Delete(d.rows[i].Cells, ci, ci+1)
	}

	d.index = make(map[string]int, len(d.columns))
	for i, c := range d.columns {
		d.index[c] = i
	}
}

// Filter returns a new dataset holding the rows for which keep returns true.
// Rows keep their IDs.
func (d *Dataset) Filter(keep func(pos int, row Row) bool) *Dataset {
	out := d.emptyCopy()

	for pos, r := range d.rows {
		if keep(pos, r) {
			out.ids[r.ID] = struct{}{}
			out.rows = append(out.rows, Row{ID: r.ID, Cells: slices.Clone(r.Cells)})
		}
	}

	return out
}

// Remove deletes every row whose ID is in ids in one pass and returns the
// number of rows removed. Unknown IDs are ignored.
func (d *Dataset) Remove(ids []int) int {
	if len(ids) == 0 {
		return 0
	}

	drop := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	before := len(d.rows)
	d.rows = slices.DeleteFunc(d.rows, func(r Row) bool {
		_, ok := drop[r.ID]
		if ok {
			delete(d.ids, r.ID)
		}

		return ok
	})

	return before - len(d.rows)
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	return d.Filter(func(int, Row) bool { return true })
}

func (d *Dataset) emptyCopy() *Dataset {
	index := make(map[string]int, len(d.index))
	for k, v := range d.index {
		index[k] = v
	}

	return &Dataset{
		columns:     slices.Clone(d.columns),
		index:       index,
		ids:         make(map[int]struct{}),
		nextID:      d.nextID,
		indexColumn: d.indexColumn,
	}
}

// Rows returns the rows in order. The slice must not be modified.
func (d *Dataset) Rows() []Row {
	return d.rows
}

// ChronologicalOrder returns row positions stable-sorted by the first key
// group whose columns are all present, together with that group. Blank or
// unparsable values sort last within their key. When no group is present the
// positional order is returned with a nil group.
func (d *Dataset) ChronologicalOrder(groups ...[]string) ([]int, []string) {
	order := make([]int, len(d.rows))
	for i := range order {
		order[i] = i
	}

	for _, group := range groups {
		keys, ok := d.sortKeys(group)
		if !ok {
			continue
		}

		slices.SortStableFunc(order, func(a, b int) int {
			for _, col := range keys {
				if c := compareNaNLast(col[a], col[b]); c != 0 {
					return c
				}
			}

			return 0
		})

		return order, group
	}

	return order, nil
}

func (d *Dataset) sortKeys(group []string) ([][]float64, bool) {
	if len(group) == 0 {
		return nil, false
	}

	keys := make([][]float64, 0, len(group))

	for _, name := range group {
		col, err := d.Floats(name)
		if err != nil {
			return nil, false
		}

		keys = append(keys, col)
	}

	return keys, true
}

func compareNaNLast(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)

	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
