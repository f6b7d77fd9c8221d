package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"

	"github.com/phrazzld/taskflow-api/internal/avatar"
	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/events"
	"github.com/phrazzld/taskflow-api/internal/platform/mongo"
	"github.com/phrazzld/taskflow-api/internal/platform/postgres"
	"github.com/phrazzld/taskflow-api/internal/ratelimit"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
)

const rateLimitKeyPrefix = "taskflow:ratelimit:auth"

// application holds the shared dependencies and everything that must be
// released on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	jwtService     auth.JWTService
	accountService service.AccountService
	taskService    service.TaskService
	profileService service.ProfileService

	avatars *avatar.DiskStorage
	limiter ratelimit.Limiter

	closers []func(ctx context.Context) error
}

// storage is one backend's stores.
type storage struct {
	users store.UserStore
	tasks store.TaskStore
	tx    store.Transactor
}

// newApplication connects the configured backend and builds the services.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: logger}

	stores, err := app.openStorage(ctx)
	if err != nil {
		app.cleanup(context.Background())
		return nil, err
	}

	if cfg.RateLimit.Enabled {
		if err := app.setupLimiter(ctx); err != nil {
			app.cleanup(context.Background())
			return nil, err
		}
	}

	if err := app.wireServices(stores); err != nil {
		app.cleanup(context.Background())
		return nil, err
	}

	logger.Info("application initialized",
		slog.String("driver", cfg.Database.Driver),
		slog.Bool("rate_limit", app.limiter != nil))
	return app, nil
}

func (app *application) openStorage(ctx context.Context) (storage, error) {
	cfg := app.config
	cost := cfg.Auth.BcryptCost

	switch cfg.Database.Driver {
	case "mongo":
		client, err := setupMongo(ctx, cfg.Database, app.logger)
		if err != nil {
			return storage{}, err
		}
		app.closers = append(app.closers, client.Disconnect)
		db := client.Database(cfg.Database.Name)
		return storage{
			users: mongo.NewUserStore(db, cost, app.logger),
			tasks: mongo.NewTaskStore(db, app.logger),
			tx:    mongo.NewTransactor(db, cost, app.logger),
		}, nil
	default:
		db, err := setupPostgres(ctx, cfg.Database, app.logger)
		if err != nil {
			return storage{}, err
		}
		app.closers = append(app.closers, func(context.Context) error { return db.Close() })
		return storage{
			users: postgres.NewPostgresUserStore(db, cost, app.logger),
			tasks: postgres.NewPostgresTaskStore(db, app.logger),
			tx:    postgres.NewTransactor(db, cost, app.logger),
		}, nil
	}
}

// setupLimiter keeps counters in Redis when an address is configured so
// every instance shares them; otherwise in process memory.
func (app *application) setupLimiter(ctx context.Context) error {
	rl := app.config.RateLimit
	window := time.Duration(rl.WindowSeconds) * time.Second

	if rl.RedisAddr == "" {
		app.limiter = ratelimit.NewMemoryLimiter(rl.Limit, window)
		return nil
	}

	client, err := setupRedis(ctx, rl, app.config.Database.ConnectAttempts, app.logger)
	if err != nil {
		return err
	}
	app.closers = append(app.closers, func(context.Context) error { return client.Close() })
	app.limiter = ratelimit.NewRedisLimiter(client, rateLimitKeyPrefix, rl.Limit, window)
	return nil
}

// wireServices builds the services on top of stores.
func (app *application) wireServices(stores storage) error {
	cfg := app.config

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	app.jwtService = jwtService
	app.logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	app.avatars, err = avatar.NewDiskStorage(cfg.Uploads.Dir, cfg.Uploads.MaxAvatarBytes, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize avatar storage: %w", err)
	}

	emitter := events.NewInMemoryEventEmitter(app.logger)
	emitter.RegisterHandler(avatar.NewCleanupHandler(app.avatars))

	providers := auth.NewOAuthProviders(cfg.OAuth)
	for name := range providers {
		app.logger.Info("OAuth provider enabled", slog.String("provider", string(name)))
	}

	passwords := auth.NewBcryptVerifier()
	app.accountService = service.NewAccountService(stores.users, jwtService, passwords, providers, app.logger)
	app.taskService = service.NewTaskService(stores.tasks, app.logger)
	app.profileService = service.NewProfileService(
		stores.users,
		stores.tasks,
		stores.tx,
		passwords,
		app.avatars,
		emitter,
		app.logger,
	)
	return nil
}

// Run serves HTTP until ctx is cancelled, then releases resources.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup(context.Background())

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup closes connections in reverse order of opening.
func (app *application) cleanup(ctx context.Context) {
	var err error
	for i := len(app.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, app.closers[i](ctx))
	}
	app.closers = nil
	if err != nil {
		app.logger.Error("error closing resources", slog.String("error", err.Error()))
		return
	}
	app.logger.Info("application shutdown completed")
}
