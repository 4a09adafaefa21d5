package stage

import (
	"testing"

	"github.com/nao1215/joblevel/internal/dataset"
)

// textColumns builds a dataset of text cells from column names and rows.
func textColumns(t *testing.T, names []string, rows ...[]string) *dataset.Dataset {
	t.Helper()

	columns := make([][]dataset.Value, len(names))
	for _, row := range rows {
		for c := range names {
			columns[c] = append(columns[c], dataset.Text(row[c]))
		}
	}
	for c := range columns {
		if columns[c] == nil {
			columns[c] = []dataset.Value{}
		}
	}
	d, err := dataset.New(names, columns)
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}
	return d
}

// columnStrings returns the stringified cells of a column.
func columnStrings(t *testing.T, d *dataset.Dataset, name string) []string {
	t.Helper()

	col, err := d.Column(name)
	if err != nil {
		t.Fatalf("Column(%q) error = %v", name, err)
	}
	out := make([]string, len(col))
	for i, v := range col {
		out[i] = v.String()
	}
	return out
}

// assertAligned checks that every column has Len() cells.
func assertAligned(t *testing.T, d *dataset.Dataset) {
	t.Helper()

	if err := d.Validate(); err != nil {
		t.Fatalf("dataset is misaligned: %v", err)
	}
	for _, name := range d.Names() {
		col, _ := d.Column(name)
		if len(col) != d.Len() {
			t.Errorf("column %q has %d cells, dataset has %d rows", name, len(col), d.Len())
		}
	}
}
