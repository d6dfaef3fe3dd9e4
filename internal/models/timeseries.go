package models

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeSeriesColumns is the fixed schema the time series export is renamed to,
// by position.
var TimeSeriesColumns = []string{
	"metering_point_id",
	"from_date",
	"to_date",
	"consumption",
	"unit",
	"quality",
	"type",
}

// DataIDColumn tags every persisted row with the correlation id of the run
// that produced it.
const DataIDColumn = "data_id"

// TimeSeriesRow is one consumption reading for one metering point.
type TimeSeriesRow struct {
	MeteringPointID string
	FromDate        string
	ToDate          string
	Consumption     float64
	Unit            string
	Quality         string
	Type            string
}

// TimeSeriesRows converts a renamed time series table into typed rows. The
// consumption column may use a decimal comma; it is accepted here and in
// NormalizeConsumption.
func TimeSeriesRows(t *Table) ([]TimeSeriesRow, error) {
	for _, name := range TimeSeriesColumns {
		if t.ColumnIndex(name) < 0 {
			return nil, fmt.Errorf("models: time series table missing column %q", name)
		}
	}
	idx := func(name string) int { return t.ColumnIndex(name) }
	width := 0
	for _, name := range TimeSeriesColumns {
		if n := idx(name) + 1; n > width {
			width = n
		}
	}
	rows := make([]TimeSeriesRow, 0, len(t.Rows))
	for i, row := range t.Rows {
		// Exports are parsed without a fixed record length, so a truncated
		// row reaches this point.
		if len(row) < width {
			return nil, fmt.Errorf("models: row %d: got %d fields, want %d", i, len(row), width)
		}
		consumption, err := strconv.ParseFloat(NormalizeConsumption(row[idx("consumption")]), 64)
		if err != nil {
			return nil, fmt.Errorf("models: row %d: bad consumption value %q", i, row[idx("consumption")])
		}
		rows = append(rows, TimeSeriesRow{
			MeteringPointID: NormalizeMeteringPointID(row[idx("metering_point_id")]),
			FromDate:        row[idx("from_date")],
			ToDate:          row[idx("to_date")],
			Consumption:     consumption,
			Unit:            row[idx("unit")],
			Quality:         row[idx("quality")],
			Type:            row[idx("type")],
		})
	}
	return rows, nil
}

// NormalizeConsumption rewrites a Danish decimal-comma value to a dot-decimal
// one.
func NormalizeConsumption(value string) string {
	return strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
}
