package http

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todolist/internal/adapter/cache"
	"todolist/internal/adapter/database/mongo"
	"todolist/internal/adapter/database/postgres"
	mongorepo "todolist/internal/adapter/database/mongo/repository"
	"todolist/internal/adapter/database/sqlite"
	sqliterepo "todolist/internal/adapter/database/sqlite/repository"
	"todolist/internal/adapter/http/handler"
	"todolist/internal/adapter/http/routes"
	"todolist/internal/adapter/mail"
	"todolist/internal/adapter/storage"
	"todolist/internal/core/port"
	"todolist/internal/core/service"
	"todolist/internal/core/telemetry"
	"todolist/internal/core/token"
	"todolist/pkg/config"
	"todolist/pkg/logger"
)

type Container struct {
	UserRepo port.UserRepository
	TodoRepo port.TodoRepository
	Cache    port.CacheRepository
	Tokens   port.TokenIssuer
	Mailer   port.Mailer
	Storage  port.ObjectStorage

	UserUseCase port.UserService
	TodoUseCase port.TodoService
	AuthUseCase port.AuthService

	UserHandler *handler.UserHandler
	TodoHandler *handler.TodoHandler
	AuthHandler *handler.AuthHandler

	ping    func(ctx context.Context) error
	closers []func(ctx context.Context) error
}

// NewContainer wires adapters chosen by cfg into the services and handlers.
func NewContainer(ctx context.Context, cfg *config.AppConfig, log *logger.LokiLogger, metrics *telemetry.AppMetrics, probe port.Telemetry) (*Container, error) {
	c := &Container{}
	zapLogger := log.Zap()

	if err := c.openDatabase(ctx, cfg.Database, probe, zapLogger); err != nil {
		return nil, err
	}

	if err := c.openCache(ctx, cfg.Cache, metrics, zapLogger); err != nil {
		c.Close(ctx)
		return nil, err
	}

	tokens, err := token.NewIssuer(token.Config{
		AccessSecret:       cfg.Auth.AccessTokenSecret,
		AccessTTL:          cfg.Auth.AccessTokenTTL,
		RefreshSecret:      cfg.Auth.RefreshTokenSecret,
		RefreshTTL:         cfg.Auth.RefreshTokenTTL,
		VerificationSecret: cfg.Auth.VerificationTokenSecret,
		VerificationTTL:    cfg.Auth.VerificationTokenTTL,
	})

	if err != nil {
		c.Close(ctx)
		return nil, err
	}

	c.Tokens = tokens
	c.Mailer = newMailer(cfg.SMTP, zapLogger)

	c.Storage, err = newStorage(cfg.Storage, zapLogger)

	if err != nil {
		c.Close(ctx)
		return nil, err
	}

	authSvc := service.NewAuthService(c.UserRepo, c.Tokens, c.Mailer, c.Storage, probe, zapLogger, service.AuthConfig{
		RequireVerifiedEmail: cfg.Auth.RequireVerifiedEmail,
		AppBaseURL:           cfg.AppBaseURL,
	})
	userSvc := service.NewUserService(c.UserRepo, c.TodoRepo, c.Storage, c.Cache, probe, zapLogger)
	todoSvc := service.NewTodoService(c.TodoRepo, c.UserRepo, c.Cache, cfg.Cache.TTL, probe, zapLogger).
		WithCursorSecret(cfg.CursorSecret)

	opts := handler.Options{
		SecureCookies: cfg.IsProduction(),
		RefreshTTL:    cfg.Auth.RefreshTokenTTL,
		UploadDir:     cfg.Storage.UploadDir,
	}

	c.AuthUseCase = authSvc
	c.UserUseCase = userSvc
	c.TodoUseCase = todoSvc

	c.AuthHandler = handler.NewAuthHandler(authSvc, opts)
	c.UserHandler = handler.NewUserHandler(userSvc, opts)
	c.TodoHandler = handler.NewTodoHandler(todoSvc, log)

	return c, nil
}

func (c *Container) Handlers() routes.HandlersConfig {
	return routes.HandlersConfig{
		AuthHandler: c.AuthHandler,
		UserHandler: c.UserHandler,
		TodoHandler: c.TodoHandler,
		Tokens:      c.Tokens,
		Health: func(gc *gin.Context) error {
			return c.Ping(gc.Request.Context())
		},
	}
}

// Ping checks the database connection.
func (c *Container) Ping(ctx context.Context) error {
	if c.ping == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return c.ping(ctx)
}

// Close releases connections in reverse order of opening.
func (c *Container) Close(ctx context.Context) error {
	var errs []error

	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i](ctx))
	}

	c.closers = nil

	return errors.Join(errs...)
}

func (c *Container) openDatabase(ctx context.Context, cfg config.DatabaseConfig, probe port.Telemetry, logger *zap.Logger) error {
	switch cfg.Driver {
	case config.DriverMongo:
		db, err := mongo.Connect(ctx, mongo.Options{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
		}, logger)

		if err != nil {
			return err
		}

		c.UserRepo = mongorepo.NewUserRepository(db, probe)
		c.TodoRepo = mongorepo.NewTodoRepository(db, probe)
		c.ping = func(ctx context.Context) error { return db.Client.Ping(ctx, nil) }
		c.closers = append(c.closers, db.Close)

	case config.DriverSQLite:
		db, err := sqlite.Open(sqlite.Options{
			Path:     cfg.Path,
			LogQuery: cfg.LogQueries,
		})

		if err != nil {
			return err
		}

		c.UserRepo = sqliterepo.NewUserRepository(db, probe)
		c.TodoRepo = sqliterepo.NewTodoRepository(db, probe)
		c.ping = db.PingContext
		c.closers = append(c.closers, func(context.Context) error { return db.Close() })

	case config.DriverPostgres:
		db, err := postgres.Open(ctx, postgres.Options{
			URL:      cfg.PostgresURL,
			LogQuery: cfg.LogQueries,
		})

		if err != nil {
			return err
		}

		c.UserRepo = sqliterepo.NewUserRepository(db, probe)
		c.TodoRepo = sqliterepo.NewTodoRepository(db, probe)
		c.ping = db.PingContext
		c.closers = append(c.closers, func(context.Context) error { return db.Close() })

	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	logger.Info("Database connected", zap.String("driver", cfg.Driver))

	return nil
}

func (c *Container) openCache(ctx context.Context, cfg config.CacheConfig, metrics *telemetry.AppMetrics, logger *zap.Logger) error {
	var backend port.CacheRepository

	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.PoolSize)

		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}

		backend = redisCache
		logger.Info("Using redis cache")
	} else {
		backend = cache.NewMemoryCache(cfg.TTL)
		logger.Info("Using in-memory cache")
	}

	if metrics != nil {
		backend = cache.NewInstrumentedCache(backend, metrics)
	}

	c.Cache = backend
	c.closers = append(c.closers, func(context.Context) error { return backend.Close() })

	return nil
}

func newMailer(cfg config.SMTPConfig, logger *zap.Logger) port.Mailer {
	if cfg.Host == "" {
		logger.Warn("SMTP_HOST not set, emails will only be logged")
		return mail.NewLogMailer(logger)
	}

	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	}, logger)
}

func newStorage(cfg config.StorageConfig, logger *zap.Logger) (port.ObjectStorage, error) {
	cloudinaryConfig := storage.CloudinaryConfig{
		CloudName: cfg.CloudName,
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		Folder:    cfg.Folder,
	}

	if !cloudinaryConfig.Enabled() {
		logger.Warn("Cloudinary not configured, profile pictures are disabled")
		return storage.DisabledStorage{}, nil
	}

	return storage.NewCloudinaryStorage(cloudinaryConfig, logger)
}
