// Package storage persists retrieved datasets as CSV files under a data root,
// one directory per category. File paths are deterministic, so rerunning a
// window for the same metering point overwrites instead of duplicating.
package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/TueLindhart/load-electricity-data-from-api/internal/models"
)

const (
	timeSeriesDir = "electricity_data"
	masterDir     = "master_data"
	chargeDir     = "charge_data"
	metaDir       = "meta_data"

	dateFormat = "2006-01-02"
)

// masterDataAllowList is the hard privacy boundary for master data: only
// these columns may ever reach disk. Names, addresses and CVR/CPR-bearing
// columns from the export are deliberately absent.
var masterDataAllowList = []string{
	"meteringPointId",
	models.DataIDColumn,
	"typeOfMP",
	"settlementMethod",
	"meterReadingOccurrence",
	"gridOperatorName",
	"balanceSupplierName",
	"postcode",
	"cityName",
	"municipalityCode",
	"physicalStatusOfMP",
	"connectionState",
	"estimatedAnnualVolume",
}

// Store writes datasets below a single data root.
type Store struct {
	root string
}

// NewStore returns store rooted at dir.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// WriteTimeSeries persists one metering point's consumption rows for a date
// window.
func (s *Store) WriteTimeSeries(meteringPointID string, dateFrom, dateTo time.Time, table *models.Table) (string, error) {
	name := fmt.Sprintf("%s-%s-%s-ts.csv", meteringPointID, dateFrom.Format(dateFormat), dateTo.Format(dateFormat))
	return s.writeTable(timeSeriesDir, name, table)
}

// WriteMasterData persists one metering point's descriptive data. The table
// is reduced to the allow-listed columns here, regardless of what the caller
// passes in.
func (s *Store) WriteMasterData(meteringPointID string, table *models.Table) (string, error) {
	filtered := table.Select(masterDataAllowList)
	name := fmt.Sprintf("%s-master_data.csv", meteringPointID)
	return s.writeTable(masterDir, name, filtered)
}

// WriteChargeData persists one metering point's tariff data.
func (s *Store) WriteChargeData(meteringPointID string, table *models.Table) (string, error) {
	name := fmt.Sprintf("%s-charge_data.csv", meteringPointID)
	return s.writeTable(chargeDir, name, table)
}

// WriteMetadataSnapshot overwrites the full known-user metadata file consumed
// by external tooling.
func (s *Store) WriteMetadataSnapshot(users []models.User) (string, error) {
	table := &models.Table{
		Columns: []string{"id", "email", "registered_at", "refresh_token"},
	}
	for _, u := range users {
		table.Rows = append(table.Rows, []string{
			u.CorrelationID(),
			u.Email,
			u.RegisteredAt.UTC().Format(time.RFC3339),
			u.RefreshToken,
		})
	}
	return s.writeTable(metaDir, "meta_data.csv", table)
}

func (s *Store) writeTable(category, name string, table *models.Table) (string, error) {
	dir := filepath.Join(s.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("storage: create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(table.Columns); err != nil {
		return "", fmt.Errorf("storage: write header to %s: %w", path, err)
	}
	for _, row := range table.Rows {
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("storage: write row to %s: %w", path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("storage: flush %s: %w", path, err)
	}
	return path, nil
}
