// Package dataset holds the in-memory table the pipeline loads, cleans and
// summarises into a prompt.
package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MetricColumn is the column the cleaning predicate is applied to.
const MetricColumn = "financial_metric"

// Dataset is a rectangular table of string cells. Index carries the original
// row labels so a filtered preview still shows where each row came from.
type Dataset struct {
	Columns []string
	Index   []int
	Rows    [][]string
}

// New builds a dataset with a 0..n-1 index.
func New(columns []string, rows [][]string) *Dataset {
	index := make([]int, len(rows))
	for i := range rows {
		index[i] = i
	}
	return &Dataset{Columns: columns, Index: index, Rows: rows}
}

// Empty returns a dataset with no columns and no rows.
func Empty() *Dataset {
	return &Dataset{}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// IsEmpty reports whether the dataset has no rows.
func (d *Dataset) IsEmpty() bool {
	return d.Len() == 0
}

// ColumnIndex returns the position of name, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	if d == nil {
		return -1
	}
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the dataset carries the named column.
func (d *Dataset) HasColumn(name string) bool {
	return d.ColumnIndex(name) >= 0
}

// Head returns the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if d == nil {
		return Empty()
	}
	if n < 0 {
		n = 0
	}
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	out := &Dataset{
		Columns: d.Columns,
		Index:   make([]int, n),
		Rows:    make([][]string, n),
	}
	copy(out.Index, d.index()[:n])
	copy(out.Rows, d.Rows[:n])
	return out
}

// Records returns rows keyed by column name.
func (d *Dataset) Records() []map[string]string {
	if d == nil {
		return nil
	}
	out := make([]map[string]string, 0, len(d.Rows))
	for _, row := range d.Rows {
		rec := make(map[string]string, len(d.Columns))
		for i, c := range d.Columns {
			if i < len(row) {
				rec[c] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}

// Equal compares columns, index and cells.
func (d *Dataset) Equal(other *Dataset) bool {
	if d.Len() != other.Len() {
		return false
	}
	if d == nil || other == nil {
		return d.Len() == 0 && other.Len() == 0
	}
	if strings.Join(d.Columns, "\x00") != strings.Join(other.Columns, "\x00") {
		return false
	}
	di, oi := d.index(), other.index()
	for i := range d.Rows {
		if di[i] != oi[i] {
			return false
		}
		if strings.Join(d.Rows[i], "\x00") != strings.Join(other.Rows[i], "\x00") {
			return false
		}
	}
	return true
}

// String renders the dataset as a fixed-width table with the row index in
// the first column, numbers and text right-aligned.
func (d *Dataset) String() string {
	if d == nil {
		return "Empty dataset\nColumns: []\nIndex: []"
	}
	if len(d.Rows) == 0 {
		return fmt.Sprintf("Empty dataset\nColumns: [%s]\nIndex: []", strings.Join(d.Columns, ", "))
	}

	idx := d.index()
	labels := make([]string, len(idx))
	indexWidth := 0
	for i, v := range idx {
		labels[i] = strconv.Itoa(v)
		indexWidth = max(indexWidth, len(labels[i]))
	}

	widths := make([]int, len(d.Columns))
	for c, name := range d.Columns {
		widths[c] = utf8.RuneCountInString(name)
		for _, row := range d.Rows {
			widths[c] = max(widths[c], utf8.RuneCountInString(display(cell(row, c))))
		}
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", indexWidth))
	for c, name := range d.Columns {
		fmt.Fprintf(&b, "  %*s", widths[c], name)
	}
	for r, row := range d.Rows {
		b.WriteByte('\n')
		fmt.Fprintf(&b, "%-*s", indexWidth, labels[r])
		for c := range d.Columns {
			fmt.Fprintf(&b, "  %*s", widths[c], display(cell(row, c)))
		}
	}
	return b.String()
}

func (d *Dataset) index() []int {
	if len(d.Index) == len(d.Rows) {
		return d.Index
	}
	index := make([]int, len(d.Rows))
	for i := range index {
		index[i] = i
	}
	return index
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func display(v string) string {
	if IsNull(v) {
		return "NaN"
	}
	return v
}
