package stage

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/nao1215/joblevel/internal/dataset"
)

// WriteCSV writes d as comma-separated values with a header row.
// Missing cells are written as empty fields.
func WriteCSV(w io.Writer, d *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Names()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, d.Width())
	for row := 0; row < d.Len(); row++ {
		for c := range record {
			record[c] = d.Cell(row, c).String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
