package dataset

import (
	"fmt"
	"slices"
)

// Dataset is an immutable table of named, row-aligned columns.
type Dataset struct {
	// names holds column names in output order.
	names []string

	// index maps a column name to its position in names and columns.
	index map[string]int

	// columns holds cell values; columns[i] belongs to names[i].
	columns [][]Value

	// rows is the common length of every column.
	rows int
}

// New creates a Dataset from parallel slices of names and columns.
// The slices are copied, so the caller may reuse them afterwards.
func New(names []string, columns [][]Value) (*Dataset, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("%d names for %d columns: %w", len(names), len(columns), ErrRowMisaligned)
	}

	d := &Dataset{
		names:   make([]string, 0, len(names)),
		index:   make(map[string]int, len(names)),
		columns: make([][]Value, 0, len(columns)),
	}
	for i, name := range names {
		if _, ok := d.index[name]; ok {
			return nil, fmt.Errorf("%q: %w", name, ErrDuplicateColumn)
		}
		if i == 0 {
			d.rows = len(columns[i])
		} else if len(columns[i]) != d.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d: %w",
				name, len(columns[i]), d.rows, ErrRowMisaligned)
		}
		d.index[name] = i
		d.names = append(d.names, name)
		d.columns = append(d.columns, slices.Clone(columns[i]))
	}
	return d, nil
}

// Empty returns a Dataset with no columns and no rows.
func Empty() *Dataset {
	return &Dataset{index: map[string]int{}}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return d.rows
}

// Width returns the number of columns.
func (d *Dataset) Width() int {
	return len(d.names)
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	return slices.Clone(d.names)
}

// Has reports whether the named column exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Index returns the position of the named column, or -1.
func (d *Dataset) Index(name string) int {
	if i, ok := d.index[name]; ok {
		return i
	}
	return -1
}

// Cell returns the value at the given row and column position.
func (d *Dataset) Cell(row, col int) Value {
	return d.columns[col][row]
}

// Column returns a copy of the named column.
func (d *Dataset) Column(name string) ([]Value, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrColumnNotFound)
	}
	return slices.Clone(d.columns[i]), nil
}

// Kind returns the kind of the named column.
// A column is text if any non-null cell is text, numeric if every non-null
// cell is a number, and null if all cells are missing or the column does
// not exist.
func (d *Dataset) Kind(name string) Kind {
	i, ok := d.index[name]
	if !ok {
		return KindNull
	}
	kind := KindNull
	for _, v := range d.columns[i] {
		switch v.kind {
		case KindText:
			return KindText
		case KindNumber:
			kind = KindNumber
		}
	}
	return kind
}

// Filter returns a new Dataset holding the rows for which keep returns true.
// Row order is preserved and every column is kept.
func (d *Dataset) Filter(keep func(row int) bool) *Dataset {
	selected := make([]int, 0, d.rows)
	for r := 0; r < d.rows; r++ {
		if keep(r) {
			selected = append(selected, r)
		}
	}

	out := d.shallowCopy()
	out.rows = len(selected)
	for c, col := range d.columns {
		filtered := make([]Value, len(selected))
		for i, r := range selected {
			filtered[i] = col[r]
		}
		out.columns[c] = filtered
	}
	return out
}

// WithColumn returns a new Dataset in which the named column holds values.
// An existing column keeps its position; a new column is appended.
// On a Dataset without columns the row count is taken from values.
func (d *Dataset) WithColumn(name string, values []Value) (*Dataset, error) {
	if len(d.names) > 0 && len(values) != d.rows {
		return nil, fmt.Errorf("column %q has %d rows, expected %d: %w",
			name, len(values), d.rows, ErrRowMisaligned)
	}

	out := d.shallowCopy()
	if len(d.names) == 0 {
		out.rows = len(values)
	}
	if i, ok := out.index[name]; ok {
		out.columns[i] = slices.Clone(values)
		return out, nil
	}
	out.index[name] = len(out.names)
	out.names = append(out.names, name)
	out.columns = append(out.columns, slices.Clone(values))
	return out, nil
}

// Drop returns a new Dataset without the named column.
func (d *Dataset) Drop(name string) (*Dataset, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrColumnNotFound)
	}

	out := &Dataset{
		names:   slices.Delete(slices.Clone(d.names), i, i+1),
		columns: slices.Delete(slices.Clone(d.columns), i, i+1),
		index:   make(map[string]int, len(d.names)-1),
		rows:    d.rows,
	}
	for j, n := range out.names {
		out.index[n] = j
	}
	return out, nil
}

// Validate checks the row-alignment invariant.
func (d *Dataset) Validate() error {
	if len(d.names) != len(d.columns) || len(d.index) != len(d.names) {
		return fmt.Errorf("%d names for %d columns: %w", len(d.names), len(d.columns), ErrRowMisaligned)
	}
	for i, col := range d.columns {
		if len(col) != d.rows {
			return fmt.Errorf("column %q has %d rows, expected %d: %w",
				d.names[i], len(col), d.rows, ErrRowMisaligned)
		}
	}
	return nil
}

// shallowCopy copies the column headers but shares the column slices.
// Callers must replace, never modify, a shared column slice.
func (d *Dataset) shallowCopy() *Dataset {
	out := &Dataset{
		names:   slices.Clone(d.names),
		index:   make(map[string]int, len(d.index)),
		columns: slices.Clone(d.columns),
		rows:    d.rows,
	}
	for k, v := range d.index {
		out.index[k] = v
	}
	return out
}
