// Package app wires the collector's dependency graph and owns the top-level
// failure boundary: whatever goes wrong inside a run ends as a notification
// and a clean exit, never a crash.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/TueLindhart/load-electricity-data-from-api/internal/clients"
	"github.com/TueLindhart/load-electricity-data-from-api/internal/config"
	"github.com/TueLindhart/load-electricity-data-from-api/internal/notify"
	"github.com/TueLindhart/load-electricity-data-from-api/internal/repository"
	"github.com/TueLindhart/load-electricity-data-from-api/internal/runlock"
	"github.com/TueLindhart/load-electricity-data-from-api/internal/service"
	"github.com/TueLindhart/load-electricity-data-from-api/internal/storage"
	"github.com/TueLindhart/load-electricity-data-from-api/internal/upload"
)

const runLockKey = "collector:run-lock"

// App holds the wired collector.
type App struct {
	coordinator *service.Coordinator
	notifier    notify.Notifier
	lock        *runlock.Lock
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	logger = logger.With(zap.String("run_id", uuid.New().String()))

	db, err := repository.NewPostgresDB(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("app: connect postgres: %w", err)
	}
	userRepo := repository.NewUserRepository(db)

	httpClient := clients.NewDefaultHTTPClient(cfg.HTTPTimeout())
	api := clients.NewEloverblik(cfg.API.BaseURL, httpClient, logger)
	store := storage.NewStore(cfg.Storage.DataRoot)
	sink := upload.NewHTTPSink(cfg.Upload.BaseURL, cfg.Upload.Token, cfg.Upload.FolderID, httpClient, logger)

	retrieval := service.NewRetrievalService(api, store, logger)
	driver := service.NewPipelineDriver(retrieval, logger)

	var channels []notify.Notifier
	if cfg.Email.Enabled {
		channels = append(channels, notify.NewEmailNotifier(notify.EmailConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			From:     cfg.Email.From,
			Password: cfg.Email.Password,
			To:       cfg.Email.To,
		}))
	}
	if cfg.Telegram.Enabled {
		telegram, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			db.Close()
			return nil, err
		}
		channels = append(channels, telegram)
	}
	notifier := notify.NewMulti(logger, channels...)

	coordinator := service.NewCoordinator(userRepo, driver, sink, store, notifier, logger, cfg.RetryCooldown())

	a := &App{
		coordinator: coordinator,
		notifier:    notifier,
		db:          db,
		logger:      logger,
	}

	if cfg.Redis.Enabled {
		redisClient, err := runlock.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("app: connect redis: %w", err)
		}
		a.redisClient = redisClient
		a.lock = runlock.NewLock(redisClient, runLockKey, cfg.LockTTL())
	}

	return a, nil
}

// Run executes one collection run. Errors and panics from inside the run are
// reported through the notifier; the process still exits cleanly so the
// scheduler does not mistake a data failure for a crash loop.
func (a *App) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("run panicked", zap.Any("panic", r))
			a.reportFailure(ctx, fmt.Sprintf("%v", r))
			err = nil
		}
	}()

	if a.lock != nil {
		acquired, lockErr := a.lock.Acquire(ctx)
		if lockErr != nil {
			return fmt.Errorf("app: acquire run lock: %w", lockErr)
		}
		if !acquired {
			a.logger.Warn("another run holds the lock, skipping")
			return nil
		}
		defer func() {
			if releaseErr := a.lock.Release(context.WithoutCancel(ctx)); releaseErr != nil {
				a.logger.Error("release run lock failed", zap.Error(releaseErr))
			}
		}()
	}

	if runErr := a.coordinator.Run(ctx); runErr != nil {
		a.logger.Error("run failed", zap.Error(runErr))
		a.reportFailure(ctx, runErr.Error())
	}
	return nil
}

func (a *App) reportFailure(ctx context.Context, message string) {
	body := fmt.Sprintf("Failed run with error:\n%s", message)
	if err := a.notifier.Notify(ctx, "Error in fetching data", body); err != nil {
		a.logger.Error("failure notification failed", zap.Error(err))
	}
}

// Close releases database and redis connections.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redisClient != nil {
		a.redisClient.Close()
	}
}
