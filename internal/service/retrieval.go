// Package service drives the token-to-dataset retrieval pipeline: exchange a
// credential, resolve metering points, fetch the exports, partition per
// metering point and persist.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/TueLindhart/load-electricity-data-from-api/internal/clients"
	"github.com/TueLindhart/load-electricity-data-from-api/internal/models"
)

// UpstreamAPI is the surface of the metering data client the orchestrator
// needs.
type UpstreamAPI interface {
	ExchangeToken(ctx context.Context, refreshToken string) (string, error)
	ListMeteringPoints(ctx context.Context, accessToken string) ([]models.MeteringPoint, error)
	FetchTimeSeries(ctx context.Context, accessToken string, ids []string, dateFrom, dateTo time.Time, aggregation string) (*models.Table, error)
	FetchMasterAndChargeData(ctx context.Context, accessToken string, ids []string) (*models.Table, *models.Table, error)
}

// DatasetStore is the persistence surface for retrieved tables.
type DatasetStore interface {
	WriteTimeSeries(meteringPointID string, dateFrom, dateTo time.Time, table *models.Table) (string, error)
	WriteMasterData(meteringPointID string, table *models.Table) (string, error)
	WriteChargeData(meteringPointID string, table *models.Table) (string, error)
}

// RetrievalInput describes one dataset retrieval. Either RefreshToken or
// AccessToken must be set; AccessToken and MeteringPointIDs let a follow-up
// chunk skip the exchange and listing steps.
type RetrievalInput struct {
	DataID                 string
	RefreshToken           string
	AccessToken            string
	MeteringPointIDs       []string
	DateFrom               time.Time
	DateTo                 time.Time
	IncludeMasterAndCharge bool
}

// RetrievalService orchestrates the upstream call sequence for one credential
// and date window.
type RetrievalService struct {
	api    UpstreamAPI
	store  DatasetStore
	logger *zap.Logger
}

// NewRetrievalService builds service.
func NewRetrievalService(api UpstreamAPI, store DatasetStore, logger *zap.Logger) *RetrievalService {
	return &RetrievalService{
		api:    api,
		store:  store,
		logger: logger,
	}
}

// Retrieve runs the full sequence for one window. API-level failures come
// back as *models.StepError values, never as panics, so the caller owns the
// retry decision. Files written before a later step fails are left in place;
// reruns overwrite them at the same paths.
func (s *RetrievalService) Retrieve(ctx context.Context, in RetrievalInput) (*models.RetrievalResult, error) {
	if in.RefreshToken == "" && in.AccessToken == "" {
		s.logger.Error("retrieval requested without any credential", zap.String("data_id", in.DataID))
		return nil, models.ErrPrecondition
	}

	accessToken := in.AccessToken
	if accessToken == "" {
		s.logger.Info("getting access token", zap.String("data_id", in.DataID))
		token, err := s.api.ExchangeToken(ctx, in.RefreshToken)
		if err != nil {
			s.logger.Error("getting access token failed", zap.String("data_id", in.DataID), zap.Error(err))
			return nil, &models.StepError{Step: models.StepToken, Message: "Error getting access token", Cause: err}
		}
		accessToken = token
	}

	ids := in.MeteringPointIDs
	if len(ids) == 0 {
		s.logger.Info("getting metering points", zap.String("data_id", in.DataID))
		points, err := s.api.ListMeteringPoints(ctx, accessToken)
		if err != nil {
			s.logger.Error("getting metering points failed", zap.String("data_id", in.DataID), zap.Error(err))
			return nil, &models.StepError{Step: models.StepMeteringPoints, Message: "Error getting metering points", Cause: err}
		}
		for _, p := range points {
			ids = append(ids, p.ID())
		}
	}

	s.logger.Info("getting meter data",
		zap.String("data_id", in.DataID),
		zap.Strings("metering_points", ids),
		zap.Time("date_from", in.DateFrom),
		zap.Time("date_to", in.DateTo),
	)
	series, err := s.api.FetchTimeSeries(ctx, accessToken, ids, in.DateFrom, in.DateTo, clients.AggregationHour)
	if err != nil {
		s.logger.Error("getting meter data failed", zap.String("data_id", in.DataID), zap.Error(err))
		return nil, &models.StepError{Step: models.StepTimeSeries, Message: "Error getting meter data", Cause: err}
	}
	tagged := series.WithColumn(models.DataIDColumn, in.DataID)

	var filePaths []string
	for _, id := range ids {
		perPoint := tagged.FilterByColumn("metering_point_id", id)
		path, err := s.store.WriteTimeSeries(id, in.DateFrom, in.DateTo, perPoint)
		if err != nil {
			return nil, &models.StepError{Step: models.StepStore, Message: "Error saving meter data", Cause: err}
		}
		s.logger.Info("saved meter data", zap.String("data_id", in.DataID), zap.String("path", path))
		filePaths = append(filePaths, path)
	}

	if in.IncludeMasterAndCharge {
		paths, err := s.retrieveMasterAndCharge(ctx, in.DataID, accessToken, ids)
		if err != nil {
			return nil, err
		}
		filePaths = append(filePaths, paths...)
	}

	return &models.RetrievalResult{
		FilePaths:        filePaths,
		AccessToken:      accessToken,
		MeteringPointIDs: ids,
	}, nil
}

func (s *RetrievalService) retrieveMasterAndCharge(ctx context.Context, dataID, accessToken string, ids []string) ([]string, error) {
	s.logger.Info("getting master and charge data", zap.String("data_id", dataID))
	master, charges, err := s.api.FetchMasterAndChargeData(ctx, accessToken, ids)
	if err != nil {
		s.logger.Error("getting master and charge data failed", zap.String("data_id", dataID), zap.Error(err))
		return nil, &models.StepError{Step: models.StepMasterCharge, Message: "Error getting master and charge data", Cause: err}
	}

	masterTagged := master.WithColumn(models.DataIDColumn, dataID)
	chargesTagged := charges.WithColumn(models.DataIDColumn, dataID)

	var paths []string
	for _, id := range ids {
		masterPart := masterTagged.FilterByColumn(exportIDColumn(masterTagged), id)
		path, err := s.store.WriteMasterData(id, masterPart)
		if err != nil {
			return nil, &models.StepError{Step: models.StepStore, Message: "Error saving master data", Cause: err}
		}
		paths = append(paths, path)

		chargePart := chargesTagged.FilterByColumn(exportIDColumn(chargesTagged), id)
		path, err = s.store.WriteChargeData(id, chargePart)
		if err != nil {
			return nil, &models.StepError{Step: models.StepStore, Message: "Error saving charge data", Cause: err}
		}
		paths = append(paths, path)
	}
	s.logger.Info("saved master and charge data", zap.String("data_id", dataID), zap.Int("files", len(paths)))
	return paths, nil
}

// exportIDColumn locates the metering point id column of an export table. The
// exports usually name it meteringPointId; when the localized header drifts,
// the id is still the first column.
func exportIDColumn(t *models.Table) string {
	if t.ColumnIndex("meteringPointId") >= 0 {
		return "meteringPointId"
	}
	if len(t.Columns) > 0 {
		return t.Columns[0]
	}
	return ""
}
