package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/TueLindhart/load-electricity-data-from-api/internal/encoding"
	"github.com/TueLindhart/load-electricity-data-from-api/internal/models"
)

const (
	tokenPath          = "/api/token"
	meteringPointsPath = "/api/meteringpoints/meteringpoints"
	masterDataPath     = "/api/meteringpoints/masterdata/export"
	chargesPath        = "/api/meteringpoints/charges/export"
	timeSeriesPathFmt  = "/api/meterdata/timeseries/export/%s/%s/%s"

	dateFormat = "2006-01-02"
)

// AggregationHour requests hourly consumption buckets.
const AggregationHour = "Hour"

// Eloverblik is a stateless client for the customer metering data API. Every
// call builds its own Authorization header; no token or session state is
// retained between operations.
type Eloverblik struct {
	base   *BaseClient
	logger *zap.Logger
}

// NewEloverblik returns client.
func NewEloverblik(baseURL string, httpClient HTTPDoer, logger *zap.Logger) *Eloverblik {
	return &Eloverblik{
		base:   NewBaseClient(baseURL, httpClient),
		logger: logger,
	}
}

func bearerHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

type tokenResponse struct {
	Result string `json:"result"`
}

type meteringPointsResponse struct {
	Result []models.MeteringPoint `json:"result"`
}

type exportRequest struct {
	MeteringPoints struct {
		MeteringPoint []string `json:"meteringPoint"`
	} `json:"meteringPoints"`
}

func exportBody(ids []string) ([]byte, error) {
	var req exportRequest
	req.MeteringPoints.MeteringPoint = ids
	return json.Marshal(req)
}

// ExchangeToken trades a long-lived refresh token for a short-lived data
// access token. A rejected exchange comes back as *models.APIError; retrying
// is the caller's decision.
func (c *Eloverblik) ExchangeToken(ctx context.Context, refreshToken string) (string, error) {
	resp, err := c.base.Do(ctx, http.MethodGet, tokenPath, nil, bearerHeaders(refreshToken))
	if err != nil {
		return "", fmt.Errorf("clients: token exchange: %w", err)
	}
	if !resp.OK() {
		c.logger.Warn("token exchange rejected", zap.Int("code", resp.StatusCode), zap.String("reason", resp.Reason))
		return "", &models.APIError{Code: resp.StatusCode, Reason: resp.Reason}
	}
	var payload tokenResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return "", fmt.Errorf("clients: decode token response: %w", err)
	}
	return payload.Result, nil
}

// ListMeteringPoints enumerates the metering points owned by the account
// behind the access token.
func (c *Eloverblik) ListMeteringPoints(ctx context.Context, accessToken string) ([]models.MeteringPoint, error) {
	resp, err := c.base.Do(ctx, http.MethodGet, meteringPointsPath, nil, bearerHeaders(accessToken))
	if err != nil {
		return nil, fmt.Errorf("clients: list metering points: %w", err)
	}
	if !resp.OK() {
		c.logger.Warn("metering point listing rejected", zap.Int("code", resp.StatusCode), zap.String("reason", resp.Reason))
		return nil, &models.APIError{Code: resp.StatusCode, Reason: resp.Reason}
	}
	var payload meteringPointsResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("clients: decode metering points response: %w", err)
	}
	return payload.Result, nil
}

// FetchTimeSeries retrieves consumption for the given metering points and
// date window, bucketed by the given aggregation. The response columns are
// renamed by position to the fixed schema and decimal commas in the
// consumption column are normalized.
func (c *Eloverblik) FetchTimeSeries(ctx context.Context, accessToken string, ids []string, dateFrom, dateTo time.Time, aggregation string) (*models.Table, error) {
	body, err := exportBody(ids)
	if err != nil {
		return nil, fmt.Errorf("clients: encode time series request: %w", err)
	}
	path := fmt.Sprintf(timeSeriesPathFmt, dateFrom.Format(dateFormat), dateTo.Format(dateFormat), aggregation)
	resp, err := c.base.Do(ctx, http.MethodPost, path, body, bearerHeaders(accessToken))
	if err != nil {
		return nil, fmt.Errorf("clients: fetch time series: %w", err)
	}
	if !resp.OK() {
		c.logger.Warn("time series fetch rejected", zap.Int("code", resp.StatusCode), zap.String("reason", resp.Reason))
		return nil, &models.APIError{Code: resp.StatusCode, Reason: resp.Reason}
	}
	table, err := encoding.RepairAndParse(string(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("clients: decode time series payload: %w", err)
	}
	return mapTimeSeriesTable(table)
}

// mapTimeSeriesTable applies the positional schema rename and validates the
// rows. Kept as one function so a switch to name-based mapping stays local if
// the upstream headers ever stabilize.
func mapTimeSeriesTable(table *models.Table) (*models.Table, error) {
	if err := table.RenamePositional(models.TimeSeriesColumns); err != nil {
		return nil, fmt.Errorf("clients: unexpected time series shape: %w", err)
	}
	consumptionIdx := table.ColumnIndex("consumption")
	for _, row := range table.Rows {
		if consumptionIdx < len(row) {
			row[consumptionIdx] = models.NormalizeConsumption(row[consumptionIdx])
		}
	}
	if _, err := models.TimeSeriesRows(table); err != nil {
		return nil, fmt.Errorf("clients: malformed time series payload: %w", err)
	}
	return table, nil
}

// FetchMasterAndChargeData retrieves the descriptive and tariff exports for
// the given metering points. The two sub-calls stand or fall together: if
// either fails, the whole operation returns that failure.
func (c *Eloverblik) FetchMasterAndChargeData(ctx context.Context, accessToken string, ids []string) (*models.Table, *models.Table, error) {
	master, err := c.fetchExport(ctx, masterDataPath, accessToken, ids)
	if err != nil {
		return nil, nil, err
	}
	charges, err := c.fetchExport(ctx, chargesPath, accessToken, ids)
	if err != nil {
		return nil, nil, err
	}
	return master, charges, nil
}

func (c *Eloverblik) fetchExport(ctx context.Context, path, accessToken string, ids []string) (*models.Table, error) {
	body, err := exportBody(ids)
	if err != nil {
		return nil, fmt.Errorf("clients: encode export request: %w", err)
	}
	resp, err := c.base.Do(ctx, http.MethodPost, path, body, bearerHeaders(accessToken))
	if err != nil {
		return nil, fmt.Errorf("clients: fetch export %s: %w", path, err)
	}
	if !resp.OK() {
		c.logger.Warn("export fetch rejected", zap.String("path", path), zap.Int("code", resp.StatusCode), zap.String("reason", resp.Reason))
		return nil, &models.APIError{Code: resp.StatusCode, Reason: resp.Reason}
	}
	table, err := encoding.RepairAndParse(string(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("clients: decode export %s payload: %w", path, err)
	}
	return table, nil
}
