package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Table holds the contents of one CSV file, indexed by column name.
// All cells are kept as raw strings; numeric access parses on demand.
type Table struct {
	Path    string
	Columns []string
	index   map[string]int
	rows    [][]string
}

// ReadTable reads a CSV file with a header row. Every record must have
// the same number of fields as the header; a short or long record is
// rejected with the row number in the error.
func ReadTable(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: reading %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("dataset: %s has no data rows", path)
	}

	t := &Table{
		Path:    path,
		Columns: records[0],
		index:   make(map[string]int, len(records[0])),
		rows:    records[1:],
	}
	for i, name := range t.Columns {
		t.index[name] = i
	}
	return t, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Float returns the value of column name in row i parsed as float64.
func (t *Table) Float(i int, name string) (float64, error) {
	col, ok := t.index[name]
	if !ok {
		return 0, fmt.Errorf("dataset: %s: %w", name, ErrMissingColumn)
	}
	v, err := strconv.ParseFloat(t.rows[i][col], 64)
	if err != nil {
		return 0, fmt.Errorf("dataset: %s row %d column %q: %w", t.Path, i+2, name, err)
	}
	return v, nil
}

// FloatColumn parses an entire column as float64.
func (t *Table) FloatColumn(name string) ([]float64, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("dataset: %s: %w", name, ErrMissingColumn)
	}
	out := make([]float64, t.Len())
	for i := range t.rows {
		v, err := t.Float(i, name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
