// Package encoding repairs and parses the tabular export payloads of the
// upstream metering API. The exports are UTF-8 documents that were read as
// Latin-1 somewhere on the upstream side, so Danish characters arrive
// double-encoded and must be folded back before parsing.
package encoding

import (
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/TueLindhart/load-electricity-data-from-api/internal/models"
)

const delimiter = ';'

// RepairText undoes the upstream double encoding: every rune of the input is
// taken as a Latin-1 byte value and the resulting byte string is decoded as
// UTF-8. Input runes outside the Latin-1 range cannot come from this defect
// and make the payload unrecoverable.
func RepairText(s string) (string, error) {
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return "", fmt.Errorf("encoding: payload not reversible to latin-1 bytes: %w", err)
	}
	if !utf8.ValidString(raw) {
		return "", fmt.Errorf("encoding: repaired payload is not valid utf-8")
	}
	return raw, nil
}

// ParseTable parses a semicolon-delimited export with a header row.
func ParseTable(s string) (*models.Table, error) {
	reader := csv.NewReader(strings.NewReader(s))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("encoding: parse table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("encoding: empty payload")
	}
	return &models.Table{
		Columns: records[0],
		Rows:    records[1:],
	}, nil
}

// RepairAndParse is the full decoder stage applied to every export response.
func RepairAndParse(s string) (*models.Table, error) {
	repaired, err := RepairText(s)
	if err != nil {
		return nil, err
	}
	return ParseTable(repaired)
}
