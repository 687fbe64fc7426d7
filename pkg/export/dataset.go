package export

import "fmt"

// Column is one exported field. Key addresses the row value, Title is the human heading.
type Column struct {
	Key   string
	Title string
}

// Row maps column keys to rendered cell values.
type Row map[string]string

// Dataset is a titled table shared by the CSV and PDF renderers.
type Dataset struct {
	Title   string
	Columns []Column
	Rows    []Row
}

func (d Dataset) validate() error {
	if len(d.Columns) == 0 {
		return fmt.Errorf("export requires at least one column")
	}
	return nil
}

// record flattens row in column order. Missing cells are empty.
func (d Dataset) record(row Row) []string {
	out := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		out[i] = row[col.Key]
	}
	return out
}

func (c Column) heading() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Key
}
