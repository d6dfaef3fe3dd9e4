package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/TueLindhart/load-electricity-data-from-api/internal/models"
)

// UserSource supplies registered users and tracks which have been processed.
type UserSource interface {
	AllKnownUsers(ctx context.Context) ([]models.User, error)
	ProcessedIDs(ctx context.Context) (map[string]struct{}, error)
	MarkProcessed(ctx context.Context, correlationID string) error
}

// PipelineRunner is the chunked driver surface.
type PipelineRunner interface {
	Run(ctx context.Context, refreshToken, dataID string) ([]string, error)
}

// UploadSink pushes a produced file to remote storage.
type UploadSink interface {
	Upload(ctx context.Context, path string) (string, error)
}

// Notifier reports run outcomes to the operator. Best effort: its failures
// are logged, never retried.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// SnapshotWriter persists the current metadata snapshot.
type SnapshotWriter interface {
	WriteMetadataSnapshot(users []models.User) (string, error)
}

// Coordinator processes every pending credential sequentially: pipeline,
// upload, one retry after a cooldown, then a single summary notification.
type Coordinator struct {
	users     UserSource
	pipeline  PipelineRunner
	uploader  UploadSink
	snapshots SnapshotWriter
	notifier  Notifier
	logger    *zap.Logger
	cooldown  time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewCoordinator builds coordinator. The cooldown matches the upstream
// per-minute limit on token issuance.
func NewCoordinator(
	users UserSource,
	pipeline PipelineRunner,
	uploader UploadSink,
	snapshots SnapshotWriter,
	notifier Notifier,
	logger *zap.Logger,
	cooldown time.Duration,
) *Coordinator {
	return &Coordinator{
		users:     users,
		pipeline:  pipeline,
		uploader:  uploader,
		snapshots: snapshots,
		notifier:  notifier,
		logger:    logger,
		cooldown:  cooldown,
		sleep:     sleepContext,
	}
}

// Run processes all pending users. It returns an error only for failures of
// the run itself (metadata source unreachable, canceled context); individual
// credential failures are collected and reported through the notifier.
func (c *Coordinator) Run(ctx context.Context) error {
	users, err := c.users.AllKnownUsers(ctx)
	if err != nil {
		return fmt.Errorf("service: load known users: %w", err)
	}
	processed, err := c.users.ProcessedIDs(ctx)
	if err != nil {
		return fmt.Errorf("service: load processed ids: %w", err)
	}

	var pending []models.User
	for _, u := range users {
		if _, done := processed[u.CorrelationID()]; !done {
			pending = append(pending, u)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CorrelationID() < pending[j].CorrelationID()
	})

	if len(pending) == 0 {
		c.logger.Info("no new users")
		return nil
	}

	snapshotPath, err := c.snapshots.WriteMetadataSnapshot(users)
	if err != nil {
		return fmt.Errorf("service: write metadata snapshot: %w", err)
	}
	c.logger.Info("metadata snapshot written", zap.String("path", snapshotPath))

	var failed []string
	for _, u := range pending {
		id := u.CorrelationID()
		if err := c.processUser(ctx, u, id); err != nil {
			c.logger.Warn("pipeline failed, retrying after cooldown",
				zap.String("data_id", id),
				zap.Duration("cooldown", c.cooldown),
				zap.Error(err),
			)
			if sleepErr := c.sleep(ctx, c.cooldown); sleepErr != nil {
				return sleepErr
			}
			if err := c.processUser(ctx, u, id); err != nil {
				c.logger.Error("pipeline failed after retry", zap.String("data_id", id), zap.Error(err))
				failed = append(failed, id)
				continue
			}
		}
		c.logger.Info("data loaded and uploaded", zap.String("data_id", id))
	}

	c.notifyOutcome(ctx, failed)
	return nil
}

func (c *Coordinator) processUser(ctx context.Context, u models.User, id string) error {
	paths, err := c.pipeline.Run(ctx, u.RefreshToken, id)
	if err != nil {
		return err
	}
	for _, path := range paths {
		fileID, err := c.uploader.Upload(ctx, path)
		if err != nil {
			return fmt.Errorf("service: upload %s: %w", path, err)
		}
		c.logger.Info("file uploaded", zap.String("path", path), zap.String("file_id", fileID))
	}
	if err := c.users.MarkProcessed(ctx, id); err != nil {
		return fmt.Errorf("service: mark processed: %w", err)
	}
	return nil
}

func (c *Coordinator) notifyOutcome(ctx context.Context, failed []string) {
	var subject, body string
	if len(failed) == 0 {
		subject = "New electricity data added"
		body = "You have received new electricity data!"
	} else {
		subject = "Error in fetching data"
		body = fmt.Sprintf("Following data ID's failed to collect data: %v", failed)
	}
	if err := c.notifier.Notify(ctx, subject, body); err != nil {
		c.logger.Error("notification failed", zap.String("subject", subject), zap.Error(err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
