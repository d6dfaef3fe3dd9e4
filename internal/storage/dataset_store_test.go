package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/TueLindhart/load-electricity-data-from-api/internal/models"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return records
}

func TestWriteTimeSeries(t *testing.T) {
	store := NewStore(t.TempDir())
	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)

	table := &models.Table{
		Columns: append(append([]string{}, models.TimeSeriesColumns...), models.DataIDColumn),
		Rows: [][]string{
			{"111", "2023-01-01", "2023-01-02", "1.5", "kWh", "Measured", "E17", "user-1"},
		},
	}
	path, err := store.WriteTimeSeries("111", from, to, table)
	if err != nil {
		t.Fatalf("write time series: %v", err)
	}
	if filepath.Base(path) != "111-2023-01-01-2023-01-03-ts.csv" {
		t.Fatalf("unexpected file name %s", filepath.Base(path))
	}
	if filepath.Base(filepath.Dir(path)) != "electricity_data" {
		t.Fatalf("unexpected category dir %s", filepath.Dir(path))
	}

	records := readCSV(t, path)
	if len(records) != 2 {
		t.Fatalf("expected header plus one row, got %d records", len(records))
	}
	if records[1][7] != "user-1" {
		t.Fatalf("data id missing from row: %v", records[1])
	}
}

func TestWriteMasterDataEnforcesAllowList(t *testing.T) {
	store := NewStore(t.TempDir())
	table := &models.Table{
		Columns: []string{"meteringPointId", "consumerName", "streetName", "cityName", models.DataIDColumn},
		Rows: [][]string{
			{"111", "Jens Jensen", "Nørregade 1", "Aarhus", "user-1"},
		},
	}
	path, err := store.WriteMasterData("111", table)
	if err != nil {
		t.Fatalf("write master data: %v", err)
	}

	records := readCSV(t, path)
	want := []string{"meteringPointId", models.DataIDColumn, "cityName"}
	if !reflect.DeepEqual(records[0], want) {
		t.Fatalf("allow list not enforced, header: %v", records[0])
	}
	if !reflect.DeepEqual(records[1], []string{"111", "user-1", "Aarhus"}) {
		t.Fatalf("unexpected row: %v", records[1])
	}
	for _, cell := range records[1] {
		if cell == "Jens Jensen" || cell == "Nørregade 1" {
			t.Fatalf("personal column leaked into %s", path)
		}
	}
}

func TestWriteChargeData(t *testing.T) {
	store := NewStore(t.TempDir())
	table := &models.Table{
		Columns: []string{"meteringPointId", "chargeType", models.DataIDColumn},
		Rows:    [][]string{{"222", "Nettarif", "user-2"}},
	}
	path, err := store.WriteChargeData("222", table)
	if err != nil {
		t.Fatalf("write charge data: %v", err)
	}
	if filepath.Base(path) != "222-charge_data.csv" {
		t.Fatalf("unexpected file name %s", filepath.Base(path))
	}
	records := readCSV(t, path)
	if records[1][1] != "Nettarif" {
		t.Fatalf("unexpected row: %v", records[1])
	}
}

func TestWriteMetadataSnapshotOverwrites(t *testing.T) {
	store := NewStore(t.TempDir())
	registered := time.Date(2023, 7, 1, 12, 0, 0, 0, time.UTC)

	first := []models.User{{ID: "user-1", RefreshToken: "tok-1", RegisteredAt: registered}}
	if _, err := store.WriteMetadataSnapshot(first); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	second := []models.User{
		{ID: "user-1", RefreshToken: "tok-1", RegisteredAt: registered},
		{ID: "user-2", RefreshToken: "tok-2", Email: "b@example.com", RegisteredAt: registered},
	}
	path, err := store.WriteMetadataSnapshot(second)
	if err != nil {
		t.Fatalf("write snapshot again: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("snapshot not overwritten, got %d records", len(records))
	}
	if records[2][0] != "user-2" || records[2][1] != "b@example.com" {
		t.Fatalf("unexpected snapshot row: %v", records[2])
	}
}
