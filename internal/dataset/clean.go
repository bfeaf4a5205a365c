package dataset

import (
	"strconv"
	"strings"
)

// nullTokens are the cell values read as missing.
var nullTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsNull reports whether a cell is missing.
func IsNull(v string) bool {
	_, ok := nullTokens[v]
	return ok
}

// Clean drops every row with a missing cell, then keeps rows whose metric
// column is a number strictly greater than zero. A dataset without the
// metric column cleans to an empty table with the same columns. The result
// never aliases the input rows.
func Clean(d *Dataset) *Dataset {
	if d == nil {
		return Empty()
	}

	out := &Dataset{Columns: d.Columns}
	metric := d.ColumnIndex(MetricColumn)
	if metric < 0 {
		return out
	}

	index := d.index()
	for i, row := range d.Rows {
		if hasNull(row, len(d.Columns)) {
			continue
		}
		v, ok := parseMetric(row[metric])
		if !ok || !(v > 0) {
			continue
		}
		kept := make([]string, len(row))
		copy(kept, row)
		out.Rows = append(out.Rows, kept)
		out.Index = append(out.Index, index[i])
	}
	return out
}

func hasNull(row []string, width int) bool {
	if len(row) < width {
		return true
	}
	for _, v := range row {
		if IsNull(v) {
			return true
		}
	}
	return false
}

func parseMetric(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
