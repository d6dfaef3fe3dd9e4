package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TueLindhart/load-electricity-data-from-api/internal/models"
)

// chunkDays is the upstream cap on one time series request. History beyond it
// must be fetched in separate windows.
const chunkDays = 720

// chunkOffsets walks the trailing 2x720 days as two non-overlapping windows.
var chunkOffsets = []int{0, chunkDays}

// Retriever is the orchestrator surface the driver needs.
type Retriever interface {
	Retrieve(ctx context.Context, in RetrievalInput) (*models.RetrievalResult, error)
}

// PipelineDriver runs a full per-credential retrieval as two chunked windows,
// threading the access token and metering point list resolved on the first
// chunk into the second. Master and charge data does not vary with the date
// window, so only the first chunk fetches it.
type PipelineDriver struct {
	retriever Retriever
	logger    *zap.Logger
	now       func() time.Time
}

// NewPipelineDriver builds driver.
func NewPipelineDriver(retriever Retriever, logger *zap.Logger) *PipelineDriver {
	return &PipelineDriver{
		retriever: retriever,
		logger:    logger,
		now:       time.Now,
	}
}

// Run retrieves the trailing history for one credential and returns every
// file path produced. A first-chunk failure aborts before the second chunk; a
// second-chunk failure fails the invocation even though first-chunk files
// already exist on disk.
func (d *PipelineDriver) Run(ctx context.Context, refreshToken, dataID string) ([]string, error) {
	now := d.now()
	dateTo := now
	dateFrom := now.AddDate(0, 0, -chunkDays)

	var (
		accessToken string
		pointIDs    []string
		filePaths   []string
	)
	includeMasterAndCharge := true

	for _, offset := range chunkOffsets {
		dateTo = dateTo.AddDate(0, 0, -offset)
		dateFrom = dateFrom.AddDate(0, 0, -offset)

		result, err := d.retriever.Retrieve(ctx, RetrievalInput{
			DataID:                 dataID,
			RefreshToken:           refreshToken,
			AccessToken:            accessToken,
			MeteringPointIDs:       pointIDs,
			DateFrom:               dateFrom,
			DateTo:                 dateTo,
			IncludeMasterAndCharge: includeMasterAndCharge,
		})
		if err != nil {
			return nil, fmt.Errorf("service: chunk %s to %s: %w",
				dateFrom.Format("2006-01-02"), dateTo.Format("2006-01-02"), err)
		}

		d.logger.Info("chunk completed",
			zap.String("data_id", dataID),
			zap.Time("date_from", dateFrom),
			zap.Time("date_to", dateTo),
			zap.Int("files", len(result.FilePaths)),
		)

		filePaths = append(filePaths, result.FilePaths...)
		accessToken = result.AccessToken
		pointIDs = result.MeteringPointIDs
		includeMasterAndCharge = false
	}

	return filePaths, nil
}
