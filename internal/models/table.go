package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Table is a parsed tabular payload: a header row plus data rows, all values
// kept as strings the way the upstream delivers them.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// WithColumn returns a copy of the table with a constant-valued column appended.
func (t *Table) WithColumn(name, value string) *Table {
	out := &Table{Columns: append(append([]string{}, t.Columns...), name)}
	out.Rows = make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		out.Rows = append(out.Rows, append(append([]string{}, row...), value))
	}
	return out
}

// FilterByColumn returns the rows whose value in the named column matches the
// given value after both sides are normalized with NormalizeMeteringPointID.
// Columns are preserved. A missing column yields an empty table.
func (t *Table) FilterByColumn(name, value string) *Table {
	out := &Table{Columns: append([]string{}, t.Columns...)}
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return out
	}
	want := NormalizeMeteringPointID(value)
	for _, row := range t.Rows {
		if idx < len(row) && NormalizeMeteringPointID(row[idx]) == want {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Select returns a copy of the table containing only the named columns, in the
// given order. Names absent from the table are skipped.
func (t *Table) Select(names []string) *Table {
	var indices []int
	out := &Table{}
	for _, name := range names {
		if idx := t.ColumnIndex(name); idx >= 0 {
			indices = append(indices, idx)
			out.Columns = append(out.Columns, name)
		}
	}
	out.Rows = make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		selected := make([]string, 0, len(indices))
		for _, idx := range indices {
			if idx < len(row) {
				selected = append(selected, row[idx])
			} else {
				selected = append(selected, "")
			}
		}
		out.Rows = append(out.Rows, selected)
	}
	return out
}

// RenamePositional replaces the column names by position. The upstream export
// endpoints return unstable, localized header names but a stable column order,
// so renaming is deliberately positional. This is the single place where that
// assumption lives.
func (t *Table) RenamePositional(names []string) error {
	if len(names) != len(t.Columns) {
		return fmt.Errorf("models: cannot rename %d columns to %d names", len(t.Columns), len(names))
	}
	t.Columns = append([]string{}, names...)
	return nil
}

// NormalizeMeteringPointID maps a metering point identifier to its canonical
// form. Upstream returns ids as JSON strings in one endpoint and as numeric
// cells in the CSV exports, so every comparison in this codebase goes through
// this function. The operation is idempotent.
func NormalizeMeteringPointID(id string) string {
	s := strings.TrimSpace(id)
	s = strings.TrimSuffix(s, ".0")
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return strconv.FormatUint(n, 10)
	}
	return s
}
