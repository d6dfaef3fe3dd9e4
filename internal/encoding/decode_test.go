package encoding

import (
	"testing"
)

// misencode reproduces the upstream defect: the UTF-8 bytes of s read back as
// Latin-1 characters.
func misencode(s string) string {
	runes := make([]rune, 0, len(s))
	for _, b := range []byte(s) {
		runes = append(runes, rune(b))
	}
	return string(runes)
}

func TestRepairTextRoundTrip(t *testing.T) {
	cases := []string{
		"København Ø",
		"Strømforbrug på målepunkt",
		"plain ascii stays plain ascii",
		"æøåÆØÅ",
		"",
	}
	for _, want := range cases {
		got, err := RepairText(misencode(want))
		if err != nil {
			t.Fatalf("repair %q: %v", want, err)
		}
		if got != want {
			t.Fatalf("repair %q: got %q", want, got)
		}
	}
}

func TestRepairTextRejectsNonLatin1(t *testing.T) {
	if _, err := RepairText("данные"); err == nil {
		t.Fatalf("expected error for input outside latin-1 range")
	}
}

func TestRepairTextRejectsInvalidUTF8(t *testing.T) {
	// A lone 0xE5 byte read as Latin-1 is "å", but 0xE5 alone is not valid
	// UTF-8, so the repair cannot have a defect-shaped origin.
	if _, err := RepairText("å"); err == nil {
		t.Fatalf("expected error for payload that does not decode as utf-8")
	}
}

func TestParseTable(t *testing.T) {
	table, err := ParseTable("a;b;c\n1;2;3\n4;5;6\n")
	if err != nil {
		t.Fatalf("parse table: %v", err)
	}
	if len(table.Columns) != 3 || table.Columns[0] != "a" {
		t.Fatalf("unexpected columns: %v", table.Columns)
	}
	if len(table.Rows) != 2 || table.Rows[1][2] != "6" {
		t.Fatalf("unexpected rows: %v", table.Rows)
	}
}

func TestParseTableEmpty(t *testing.T) {
	if _, err := ParseTable(""); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

func TestRepairAndParse(t *testing.T) {
	payload := misencode("by;navn\n8000;Århus\n")
	table, err := RepairAndParse(payload)
	if err != nil {
		t.Fatalf("repair and parse: %v", err)
	}
	if table.Rows[0][1] != "Århus" {
		t.Fatalf("expected repaired city name, got %q", table.Rows[0][1])
	}
}
